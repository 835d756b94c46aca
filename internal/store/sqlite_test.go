package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlobs(t *testing.T) *SQLiteBlobs {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteBlobs(filepath.Join(dir, "nested", "album.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBlobsGetMissing(t *testing.T) {
	s := newTestBlobs(t)

	data, ok, err := s.Get(context.Background(), CollectionKey)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestBlobsPutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestBlobs(t)

	require.NoError(t, s.Put(ctx, BindingsKey, []byte(`{"a":"1"}`)))
	require.NoError(t, s.Put(ctx, BindingsKey, []byte(`{"a":"2"}`)))

	data, ok, err := s.Get(ctx, BindingsKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":"2"}`, string(data))

	// Keys are independent.
	_, ok, _ = s.Get(ctx, CollectionKey)
	assert.False(t, ok)
}

func TestBlobsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "album.db")

	s, err := NewSQLiteBlobs(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, CollectionKey, []byte(`[]`)))
	require.NoError(t, s.Close())

	s, err = NewSQLiteBlobs(path)
	require.NoError(t, err)
	defer s.Close()
	data, ok, err := s.Get(ctx, CollectionKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(data))
	assert.Equal(t, path, s.Path())
}
