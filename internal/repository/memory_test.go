package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/LinkSeal/internal/model"
)

func TestMemoryAuditLog_Links(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryAuditLog()

	link := &model.Link{ID: "l1", Target: "http://h/d/1", URL: "http://h/d/1?signed=r%3A1%3Babc"}
	require.NoError(t, log.CreateLink(ctx, link))
	assert.False(t, link.CreatedAt.IsZero())

	got, err := log.GetLink(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, link.URL, got.URL)

	_, err = log.GetLink(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryAuditLog_ListAccess(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryAuditLog()
	base := time.Unix(1700000000, 0)

	for i, outcome := range []string{"valid", "expired", "blackholed"} {
		require.NoError(t, log.RecordAccess(ctx, &model.AccessEvent{
			ID:      outcome,
			Target:  "/d/1",
			Outcome: outcome,
			At:      base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, log.RecordAccess(ctx, &model.AccessEvent{ID: "other", Target: "/d/2", At: base}))

	events, err := log.ListAccess(ctx, "/d/1", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "blackholed", events[0].Outcome)
	assert.Equal(t, "expired", events[1].Outcome)
}
