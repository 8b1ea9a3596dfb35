package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"crypto_tracker/internal/cache"
	"crypto_tracker/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

const marketsBody = `[{
	"id": "bitcoin",
	"symbol": "btc",
	"name": "Bitcoin",
	"image": "https://example.test/btc.png",
	"current_price": 50000,
	"market_cap": 1000000000000,
	"market_cap_rank": 1,
	"total_volume": 30000000000,
	"price_change_percentage_24h": 2.5,
	"price_change_percentage_7d_in_currency": -1.25,
	"sparkline_in_7d": {"price": [49000, 49500, 50000]}
}]`

func newTestProvider(t *testing.T, handler http.HandlerFunc, clock cache.Clock) (*Provider, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	p := NewProvider(Options{
		BaseURL: srv.URL,
		Cache:   cache.New(cache.DefaultTTL, clock),
	})
	return p, &hits
}

func TestGetCoins_DecodesAndCaches(t *testing.T) {
	var gotQuery string
	p, hits := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(marketsBody))
	}, nil)

	ctx := context.Background()
	coins, err := p.GetCoins(ctx, 1, 100)
	require.NoError(t, err)
	require.Len(t, coins, 1)

	btc := coins[0]
	assert.Equal(t, "bitcoin", btc.ID)
	assert.Equal(t, 50000.0, btc.CurrentPrice)
	assert.Equal(t, -1.25, btc.Change7d())
	require.NotNil(t, btc.SparklineIn7d)
	assert.Len(t, btc.SparklineIn7d.Price, 3)
	assert.Equal(t, "vs_currency=usd&order=market_cap_desc&per_page=100&page=1&sparkline=true&price_change_percentage=7d", gotQuery)

	_, err = p.GetCoins(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits), "second call within TTL should be served from cache")

	// A different page is a different key.
	_, err = p.GetCoins(ctx, 2, 100)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestGetCoins_RefetchesAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	p, hits := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(marketsBody))
	}, clock)

	ctx := context.Background()
	_, err := p.GetCoins(ctx, 1, 100)
	require.NoError(t, err)

	clock.now = clock.now.Add(61 * time.Second)
	_, err = p.GetCoins(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestFetch_RateLimited(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, nil)

	_, err := p.GetCoins(context.Background(), 1, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, market.ErrRateLimited))
	assert.Equal(t, "Rate limited. Please wait a moment and try again.", err.Error())
}

func TestFetch_APIErrorNotCached(t *testing.T) {
	p, hits := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, nil)

	ctx := context.Background()
	_, err := p.GetCoinDetail(ctx, "bitcoin")
	require.Error(t, err)

	var apiErr *market.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Equal(t, "API error: 500", err.Error())

	_, _ = p.GetCoinDetail(ctx, "bitcoin")
	assert.Equal(t, int32(2), atomic.LoadInt32(hits), "failures must not be cached")
}

func TestGetCoinChart_And_Search(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/coins/bitcoin/market_chart":
			assert.Equal(t, "7", r.URL.Query().Get("days"))
			w.Write([]byte(`{"prices": [[1700000000000, 100.5], [1700003600000, 101.25]]}`))
		case "/search":
			assert.Equal(t, "bit coin", r.URL.Query().Get("query"))
			w.Write([]byte(`{"coins": [{"id": "bitcoin", "name": "Bitcoin", "symbol": "BTC", "thumb": "t.png", "market_cap_rank": 1}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, nil)

	ctx := context.Background()
	chart, err := p.GetCoinChart(ctx, "bitcoin", "7")
	require.NoError(t, err)
	assert.Equal(t, []float64{100.5, 101.25}, chart.Closes())

	results, err := p.SearchCoins(ctx, "bit coin")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "bitcoin", results[0].ID)
}

func TestFetch_SendsAPIKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-cg-demo-api-key")
		w.Write([]byte(`{"coins": []}`))
	}))
	defer srv.Close()

	p := NewProvider(Options{BaseURL: srv.URL, APIKey: "demo-key"})
	_, err := p.SearchCoins(context.Background(), "eth")
	require.NoError(t, err)
	assert.Equal(t, "demo-key", gotKey)
}
