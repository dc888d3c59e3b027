// Package model contains simple struct definitions shared across packages.
package model

import (
	"time"
)

// Object is an uploaded file that signed links can point at.
type Object struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Link records a signed URL handed out by the service. The signed URL itself
// is self-verifying; the record only exists for auditing.
type Link struct {
	ID        string     `json:"id"`
	ObjectID  string     `json:"objectId,omitempty"`
	Target    string     `json:"target"`
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Address   string     `json:"address,omitempty"`
	Methods   []string   `json:"methods,omitempty"`
	CreatedBy string     `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
}

// AccessEvent is one presentation of a signed URL, whatever the outcome.
type AccessEvent struct {
	ID      string    `json:"id"`
	Target  string    `json:"target"`
	Outcome string    `json:"outcome"`
	Method  string    `json:"method"`
	Address string    `json:"address"`
	At      time.Time `json:"at"`
}
