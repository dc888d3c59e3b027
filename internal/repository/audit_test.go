package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/LinkSeal/internal/database"
	"github.com/dharsanguruparan/LinkSeal/internal/model"
)

// TestPostgresAuditLog runs against a real database when
// LINKSEAL_TEST_DATABASE_URL is set.
func TestPostgresAuditLog(t *testing.T) {
	dsn := os.Getenv("LINKSEAL_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("LINKSEAL_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := database.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.EnsureSchema(ctx, pool))

	log := NewPostgresAuditLog(pool)
	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	link := &model.Link{
		ID:        uuid.NewString(),
		Target:    "http://h/d/1",
		URL:       "http://h/d/1?signed=r%3A1%3Babc",
		ExpiresAt: &exp,
		Methods:   []string{"GET"},
		CreatedBy: "tester",
	}
	require.NoError(t, log.CreateLink(ctx, link))

	got, err := log.GetLink(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, link.URL, got.URL)
	assert.Equal(t, []string{"GET"}, got.Methods)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, exp.Equal(*got.ExpiresAt))

	_, err = log.GetLink(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	target := "/d/" + uuid.NewString()
	require.NoError(t, log.RecordAccess(ctx, &model.AccessEvent{
		ID: uuid.NewString(), Target: target, Outcome: "valid", Method: "GET", Address: "127.0.0.1", At: time.Now().UTC(),
	}))
	events, err := log.ListAccess(ctx, target, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "valid", events[0].Outcome)
}
