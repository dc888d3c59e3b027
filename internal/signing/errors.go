package signing

import (
	"errors"
	"fmt"
)

var (
	// ErrBlackholed is returned by Check for any tampered, malformed or
	// constraint-violating URL. The cause is not exposed.
	ErrBlackholed = errors.New("signed url blackholed")

	// ErrExpired is returned by Check for an intact URL whose expiry has passed.
	ErrExpired = errors.New("signed url expired")

	// ErrNoSecrets is returned by New when the secret set is empty.
	ErrNoSecrets = errors.New("at least one secret is required")

	// ErrUnknownHash is returned when a hash algorithm name is not registered.
	ErrUnknownHash = errors.New("unknown hash algorithm")
)

// DecodeError describes a malformed constraint fragment.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode constraints: %s", e.Reason)
	}
	return fmt.Sprintf("decode constraints: field %q: %s", e.Field, e.Reason)
}
