package watcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crypto_tracker/internal/feed"
	"crypto_tracker/internal/models"
)

// coinQuote is the metadata and live price needed to trade or alert on a coin.
type coinQuote struct {
	ID     string
	Symbol string
	Name   string
	Image  string
	Price  float64
}

func (w *Watcher) refreshCoins(ctx context.Context) (feed.Result[[]models.Coin], bool) {
	return w.coins.Load(ctx, "top", func(ctx context.Context) ([]models.Coin, error) {
		return w.provider.GetCoins(ctx, 1, listingPerPage)
	})
}

// listing returns the coin listing, loading it if no poll has filled it yet.
func (w *Watcher) listing(ctx context.Context) feed.Result[[]models.Coin] {
	res := w.coins.Snapshot()
	if res.HasData {
		return res
	}
	res, _ = w.refreshCoins(ctx)
	return res
}

func (w *Watcher) priceMap(coins []models.Coin) map[string]float64 {
	prices := make(map[string]float64, len(coins))
	for _, c := range coins {
		prices[c.ID] = c.CurrentPrice
	}
	return prices
}

// loadDetail loads the coin detail feed for id. Commands from chat and the
// terminal run concurrently, so another command may supersede this load; the
// coin is then fetched directly (usually a cache hit) instead of returning
// nothing.
func (w *Watcher) loadDetail(ctx context.Context, id string) feed.Result[*models.CoinDetail] {
	fetch := func(ctx context.Context) (*models.CoinDetail, error) {
		return w.provider.GetCoinDetail(ctx, id)
	}
	res, applied := w.detail.Load(ctx, id, fetch)
	if applied && res.Key == id {
		return res
	}
	return fetchDirect(ctx, id, fetch)
}

func (w *Watcher) loadChart(ctx context.Context, id, days string) feed.Result[*models.ChartData] {
	key := id + "/" + days
	fetch := func(ctx context.Context) (*models.ChartData, error) {
		return w.provider.GetCoinChart(ctx, id, days)
	}
	res, applied := w.chart.Load(ctx, key, fetch)
	if applied && res.Key == key {
		return res
	}
	return fetchDirect(ctx, key, fetch)
}

// fetchDirect runs fetch outside any feed.
func fetchDirect[T any](ctx context.Context, key string, fetch func(ctx context.Context) (T, error)) feed.Result[T] {
	data, err := fetch(ctx)
	if err != nil {
		return feed.Result[T]{Key: key, Err: err.Error()}
	}
	return feed.Result[T]{Key: key, Data: data, HasData: true, UpdatedAt: time.Now()}
}

// quote resolves id to metadata and a live price, preferring the coin detail
// endpoint like the detail view does.
func (w *Watcher) quote(ctx context.Context, id string) (coinQuote, error) {
	id = strings.ToLower(id)
	res := w.loadDetail(ctx, id)
	if res.Key == id && res.HasData && res.Data != nil {
		d := res.Data
		return coinQuote{
			ID:     d.ID,
			Symbol: d.Symbol,
			Name:   d.Name,
			Image:  d.Image.Small,
			Price:  d.MarketData.CurrentPrice.USD,
		}, nil
	}

	// Fall back to the listing, which is usually fresh in the cache
	list := w.listing(ctx)
	for _, c := range list.Data {
		if c.ID == id {
			return coinQuote{ID: c.ID, Symbol: c.Symbol, Name: c.Name, Image: c.Image, Price: c.CurrentPrice}, nil
		}
	}
	if res.Err != "" {
		return coinQuote{}, errors.New(res.Err)
	}
	return coinQuote{}, fmt.Errorf("coin %q not found", id)
}
