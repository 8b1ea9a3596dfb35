// Package feed holds the latest result of a keyed fetch and discards
// results from requests that were superseded while in flight.
package feed

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Result is what a view renders: the last good data plus load state.
type Result[T any] struct {
	Key       string
	Data      T
	HasData   bool
	Loading   bool
	Err       string
	UpdatedAt time.Time
}

// Feed tracks one logical data source, e.g. "the coin being viewed".
// Each Load supersedes the previous one: the earlier request's context is
// cancelled and its result, if it still arrives, is dropped.
type Feed[T any] struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	closed bool
	cur    Result[T]
	now    func() time.Time
}

func New[T any]() *Feed[T] {
	return &Feed[T]{now: time.Now}
}

// Load runs fetch for key and applies its outcome unless another Load or
// Close happened meanwhile. It returns the current result and whether this
// call's outcome was applied. A result is only ever returned for key: when
// the feed has moved on to another key, the caller gets an empty Result.
//
// Switching to a different key clears the previous key's data. A failed
// fetch keeps the data of the same key and records the error message.
func (f *Feed[T]) Load(ctx context.Context, key string, fetch func(ctx context.Context) (T, error)) (Result[T], bool) {
	f.mu.Lock()
	if f.closed {
		res := f.resultFor(key)
		f.mu.Unlock()
		return res, false
	}
	if f.cancel != nil {
		f.cancel()
	}
	f.gen++
	gen := f.gen
	fctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel

	if f.cur.Key != key {
		var zero T
		f.cur = Result[T]{Key: key, Data: zero}
	}
	f.cur.Loading = true
	f.mu.Unlock()

	data, err := fetch(fctx)
	cancel()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || gen != f.gen {
		return f.resultFor(key), false
	}
	f.cancel = nil
	f.cur.Loading = false
	if err != nil {
		f.cur.Err = errorMessage(err)
		return f.cur, true
	}
	f.cur.Data = data
	f.cur.HasData = true
	f.cur.Err = ""
	f.cur.UpdatedAt = f.now()
	return f.cur, true
}

// resultFor returns the current result if it belongs to key. Caller holds mu.
func (f *Feed[T]) resultFor(key string) Result[T] {
	if f.cur.Key == key {
		return f.cur
	}
	return Result[T]{Key: key}
}

func errorMessage(err error) string {
	if errors.Is(err, context.Canceled) {
		return "Request cancelled"
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Failed to fetch"
}

// Snapshot returns the current result without fetching.
func (f *Feed[T]) Snapshot() Result[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cur
}

// Close cancels any in-flight load; later results and loads are ignored.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}
