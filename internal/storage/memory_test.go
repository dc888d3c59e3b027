package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/LinkSeal/internal/model"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	obj := &model.Object{ID: "abc", Name: "notes.txt", ContentType: "text/plain; charset=utf-8"}
	require.NoError(t, store.Put(ctx, obj, strings.NewReader("hello")))
	assert.Equal(t, int64(5), obj.Size)
	assert.False(t, obj.CreatedAt.IsZero())

	got, rc, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "notes.txt", got.Name)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// callers get a copy
	got.Name = "changed"
	again, _, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", again.Name)
}

func TestMemoryStore_NotFound(t *testing.T) {
	_, _, err := NewMemoryStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewMemoryStore().Stat(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Stat(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, &model.Object{ID: "x", Name: "a.bin"}, strings.NewReader("1234")))

	obj, err := store.Stat(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "a.bin", obj.Name)
	assert.Equal(t, int64(4), obj.Size)
}
