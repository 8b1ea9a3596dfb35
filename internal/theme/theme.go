package theme

import (
	"context"
	"errors"
	"strings"
	"sync"

	"crypto_tracker/internal/storage"

	"go.uber.org/zap"
)

const (
	Dark  = "dark"
	Light = "light"
)

// Theme is the persisted dark/light preference. Dark is the default.
// The record is the bare word, not JSON.
type Theme struct {
	mu    sync.RWMutex
	store storage.Store
	dark  bool
}

func New(store storage.Store) *Theme {
	return &Theme{store: store, dark: true}
}

func (t *Theme) Load(ctx context.Context) {
	b, err := t.store.Get(ctx, storage.KeyTheme)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		zap.L().Warn("Theme record unreadable", zap.Error(err))
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// No record means dark; any saved value other than "dark" means light.
	t.dark = err != nil || len(b) == 0 || strings.TrimSpace(string(b)) == Dark
}

func (t *Theme) Save(ctx context.Context) error {
	return t.store.Put(ctx, storage.KeyTheme, []byte(t.Name()))
}

// Toggle flips the theme, persists it and returns the new name.
func (t *Theme) Toggle(ctx context.Context) string {
	t.mu.Lock()
	t.dark = !t.dark
	t.mu.Unlock()

	if err := t.Save(ctx); err != nil {
		zap.L().Error("Failed to persist theme", zap.Error(err))
	}
	return t.Name()
}

func (t *Theme) Dark() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dark
}

func (t *Theme) Name() string {
	if t.Dark() {
		return Dark
	}
	return Light
}

// Palette holds the colours a view needs for the active theme.
type Palette struct {
	Background string
	Foreground string
	Muted      string
	Gain       string
	Loss       string
	Up         string // change marker glyphs
	Down       string
}

var (
	darkPalette = Palette{
		Background: "#0B0E11",
		Foreground: "#E5E7EB",
		Muted:      "#9CA3AF",
		Gain:       "#10B981",
		Loss:       "#EF4444",
		Up:         "▲",
		Down:       "▼",
	}
	lightPalette = Palette{
		Background: "#FFFFFF",
		Foreground: "#111827",
		Muted:      "#6B7280",
		Gain:       "#059669",
		Loss:       "#DC2626",
		Up:         "△",
		Down:       "▽",
	}
)

func (t *Theme) Palette() Palette {
	if t.Dark() {
		return darkPalette
	}
	return lightPalette
}
