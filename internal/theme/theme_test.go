package theme

import (
	"context"
	"testing"

	"crypto_tracker/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTheme_DefaultDark(t *testing.T) {
	th := New(storage.NewMemoryStore())
	th.Load(context.Background())
	assert.True(t, th.Dark())
	assert.Equal(t, Dark, th.Name())
}

func TestTheme_ToggleRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	th := New(store)
	th.Load(ctx)

	assert.Equal(t, Light, th.Toggle(ctx))
	raw, err := store.Get(ctx, storage.KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "light", string(raw))

	reloaded := New(store)
	reloaded.Load(ctx)
	assert.False(t, reloaded.Dark())
	assert.Equal(t, lightPalette, reloaded.Palette())

	assert.Equal(t, Dark, reloaded.Toggle(ctx))
}

func TestTheme_UnknownValueIsLight(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(ctx, storage.KeyTheme, []byte("sepia")))

	th := New(store)
	th.Load(ctx)
	assert.False(t, th.Dark())
}
