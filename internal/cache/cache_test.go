package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func TestCache_FreshWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(60*time.Second, clock)

	c.Set("https://example.test/a", []byte(`{"a":1}`))

	clock.Advance(59 * time.Second)
	got, ok := c.Get("https://example.test/a")
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(got))
}

func TestCache_StaleAtTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(60*time.Second, clock)

	c.Set("k", []byte("v"))
	clock.Advance(60 * time.Second)

	_, ok := c.Get("k")
	assert.False(t, ok, "entry aged exactly TTL must be stale")

	// Stale entries are not evicted, only superseded.
	assert.Equal(t, 1, c.Len())

	c.Set("k", []byte("v2"))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v2", string(got))
	assert.Equal(t, 1, c.Len())
}

func TestCache_KeysAreExact(t *testing.T) {
	c := New(time.Minute, nil)
	c.Set("https://example.test/coins?page=1", []byte("p1"))

	_, ok := c.Get("https://example.test/coins?page=2")
	assert.False(t, ok)
	_, ok = c.Get("https://example.test/coins?page=1 ")
	assert.False(t, ok)
}

func TestCache_DefaultTTL(t *testing.T) {
	c := New(0, nil)
	assert.Equal(t, DefaultTTL, c.TTL())
}
