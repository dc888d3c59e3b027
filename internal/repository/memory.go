package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dharsanguruparan/LinkSeal/internal/model"
)

// MemoryAuditLog is the in-process AuditLog used when no database is
// configured.
type MemoryAuditLog struct {
	mu     sync.RWMutex
	links  map[string]model.Link
	events []model.AccessEvent
}

// NewMemoryAuditLog constructs an empty MemoryAuditLog.
func NewMemoryAuditLog() *MemoryAuditLog {
	return &MemoryAuditLog{links: make(map[string]model.Link)}
}

func (m *MemoryAuditLog) CreateLink(_ context.Context, link *model.Link) error {
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[link.ID] = *link
	return nil
}

func (m *MemoryAuditLog) GetLink(_ context.Context, id string) (*model.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	link, ok := m.links[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &link, nil
}

func (m *MemoryAuditLog) RecordAccess(_ context.Context, ev *model.AccessEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *ev)
	return nil
}

func (m *MemoryAuditLog) ListAccess(_ context.Context, target string, limit int) ([]model.AccessEvent, error) {
	m.mu.RLock()
	var out []model.AccessEvent
	for _, ev := range m.events {
		if ev.Target == target {
			out = append(out, ev)
		}
	}
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
