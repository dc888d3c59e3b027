// Package storage defines where uploaded objects live. MemoryStore keeps them
// in process; the s3storage package provides the MinIO/S3 backend.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dharsanguruparan/LinkSeal/internal/model"
)

var (
	// ErrNotFound is returned when no object exists for an id.
	ErrNotFound = errors.New("object not found")
)

// ObjectStore persists uploaded objects and streams them back.
type ObjectStore interface {
	Put(ctx context.Context, obj *model.Object, r io.Reader) error
	Get(ctx context.Context, id string) (*model.Object, io.ReadSeekCloser, error)
	Stat(ctx context.Context, id string) (*model.Object, error)
}

type memoryEntry struct {
	obj  model.Object
	data []byte
}

// MemoryStore keeps objects in a map guarded by an RWMutex: many concurrent
// downloads, occasional uploads.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*memoryEntry
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]*memoryEntry),
	}
}

// Put reads r fully and stores it under obj.ID, replacing any previous object.
func (m *MemoryStore) Put(_ context.Context, obj *model.Object, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read object: %w", err)
	}
	if obj.CreatedAt.IsZero() {
		obj.CreatedAt = time.Now().UTC()
	}
	obj.Size = int64(len(data))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[obj.ID] = &memoryEntry{obj: *obj, data: data}
	return nil
}

// Get returns a copy of the metadata and a reader over the content.
func (m *MemoryStore) Get(_ context.Context, id string) (*model.Object, io.ReadSeekCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.objects[id]
	if !ok {
		return nil, nil, ErrNotFound
	}
	obj := e.obj
	return &obj, nopCloser{bytes.NewReader(e.data)}, nil
}

// Stat returns a copy of the metadata only.
func (m *MemoryStore) Stat(_ context.Context, id string) (*model.Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.objects[id]
	if !ok {
		return nil, ErrNotFound
	}
	obj := e.obj
	return &obj, nil
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
