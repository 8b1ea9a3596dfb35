package watchlist

import (
	"context"
	"testing"

	"crypto_tracker/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggle(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	w := New(store)

	assert.True(t, w.Toggle(ctx, "bitcoin"))
	assert.True(t, w.Toggle(ctx, "ethereum"))
	assert.True(t, w.IsWatched("bitcoin"))
	assert.Equal(t, []string{"bitcoin", "ethereum"}, w.IDs())

	assert.False(t, w.Toggle(ctx, "bitcoin"))
	assert.False(t, w.IsWatched("bitcoin"))
	assert.Equal(t, []string{"ethereum"}, w.IDs())

	raw, err := store.Get(ctx, storage.KeyWatchlist)
	require.NoError(t, err)
	assert.JSONEq(t, `["ethereum"]`, string(raw))
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(ctx, storage.KeyWatchlist, []byte(`["solana","solana","cardano"]`)))

	w := New(store)
	w.Load(ctx)
	assert.Equal(t, []string{"solana", "cardano"}, w.IDs())
	assert.Equal(t, 2, w.Len())
}

func TestLoad_CorruptFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(ctx, storage.KeyWatchlist, []byte(`{"oops":true}`)))

	w := New(store)
	w.Load(ctx)
	assert.Empty(t, w.IDs())
}
