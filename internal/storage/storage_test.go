package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// exerciseStore runs the same contract against every backend.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, KeyWatchlist)
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)

	var r record
	err = LoadJSON(ctx, s, KeyWatchlist, &r)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, SaveJSON(ctx, s, KeyWatchlist, record{Name: "first", Items: []string{"bitcoin"}}))
	require.NoError(t, LoadJSON(ctx, s, KeyWatchlist, &r))
	assert.Equal(t, "first", r.Name)
	assert.Equal(t, []string{"bitcoin"}, r.Items)

	// Rewritten wholesale
	require.NoError(t, SaveJSON(ctx, s, KeyWatchlist, record{Name: "second"}))
	var r2 record
	require.NoError(t, LoadJSON(ctx, s, KeyWatchlist, &r2))
	assert.Equal(t, "second", r2.Name)
	assert.Empty(t, r2.Items)

	// Keys are independent
	require.NoError(t, s.Put(ctx, KeyTheme, []byte("light")))
	b, err := s.Get(ctx, KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "light", string(b))
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "data"))
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)

	// No temp file left behind after the atomic rename
	_, err = os.Stat(filepath.Join(dir, "data", KeyWatchlist+".json.tmp"))
	assert.True(t, os.IsNotExist(err))

	raw, err := os.ReadFile(filepath.Join(dir, "data", KeyWatchlist+".json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"name": "second"`)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)

	// Callers cannot mutate stored bytes through the returned slice
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "k", []byte("abc")))
	b, _ := s.Get(ctx, "k")
	b[0] = 'x'
	b2, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(b2))
}

func TestLoadJSON_Corrupt(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, KeyAlerts, []byte("{not json")))

	var r record
	err := LoadJSON(ctx, s, KeyAlerts, &r)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, Options{Backend: "", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)
}
