package watchlist

import (
	"context"
	"errors"
	"sync"

	"crypto_tracker/internal/storage"

	"go.uber.org/zap"
)

// Watchlist is the set of starred coin ids, kept in the order they were added.
type Watchlist struct {
	mu    sync.RWMutex
	store storage.Store
	ids   []string
}

func New(store storage.Store) *Watchlist {
	return &Watchlist{store: store, ids: []string{}}
}

// Load restores the saved list. Unreadable records are ignored.
func (w *Watchlist) Load(ctx context.Context) {
	var ids []string
	err := storage.LoadJSON(ctx, w.store, storage.KeyWatchlist, &ids)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			zap.L().Warn("Watchlist record unreadable, starting empty", zap.Error(err))
		}
		w.ids = []string{}
		return
	}
	w.ids = dedupe(ids)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Save writes the full list.
func (w *Watchlist) Save(ctx context.Context) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return storage.SaveJSON(ctx, w.store, storage.KeyWatchlist, w.ids)
}

// Toggle adds id if absent, removes it if present, and persists.
// Returns whether id is watched afterwards.
func (w *Watchlist) Toggle(ctx context.Context, id string) bool {
	w.mu.Lock()
	watched := true
	if i := w.index(id); i >= 0 {
		w.ids = append(w.ids[:i], w.ids[i+1:]...)
		watched = false
	} else {
		w.ids = append(w.ids, id)
	}
	w.mu.Unlock()

	if err := w.Save(ctx); err != nil {
		zap.L().Error("Failed to persist watchlist", zap.Error(err))
	}
	return watched
}

func (w *Watchlist) index(id string) int {
	for i, x := range w.ids {
		if x == id {
			return i
		}
	}
	return -1
}

func (w *Watchlist) IsWatched(id string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.index(id) >= 0
}

// IDs returns a copy of the watched ids.
func (w *Watchlist) IDs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.ids...)
}

func (w *Watchlist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.ids)
}
