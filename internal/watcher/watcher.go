package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"crypto_tracker/internal/alerts"
	"crypto_tracker/internal/config"
	"crypto_tracker/internal/feed"
	"crypto_tracker/internal/market"
	"crypto_tracker/internal/metrics"
	"crypto_tracker/internal/models"
	"crypto_tracker/internal/portfolio"
	"crypto_tracker/internal/theme"
	"crypto_tracker/internal/watchlist"

	"go.uber.org/zap"
)

var startTime = time.Now()

// listingPerPage is the size of the dashboard listing; alert checks share the same page.
const listingPerPage = 100

// Deps are the stores and data source the views read and mutate.
type Deps struct {
	Provider  market.MarketProvider
	Ledger    *portfolio.Ledger
	Watchlist *watchlist.Watchlist
	Alerts    *alerts.Engine
	Theme     *theme.Theme
}

type Watcher struct {
	config    *config.Config
	provider  market.MarketProvider
	ledger    *portfolio.Ledger
	watchlist *watchlist.Watchlist
	alerts    *alerts.Engine
	theme     *theme.Theme

	coins  *feed.Feed[[]models.Coin]
	detail *feed.Feed[*models.CoinDetail]
	chart  *feed.Feed[*models.ChartData]

	mu       sync.RWMutex
	sort     SortState
	lastPoll time.Time
	commands []CommandDoc
}

func New(cfg *config.Config, d Deps) *Watcher {
	return &Watcher{
		config:    cfg,
		provider:  d.Provider,
		ledger:    d.Ledger,
		watchlist: d.Watchlist,
		alerts:    d.Alerts,
		theme:     d.Theme,
		coins:     feed.New[[]models.Coin](),
		detail:    feed.New[*models.CoinDetail](),
		chart:     feed.New[*models.ChartData](),
		sort:      SortState{Field: SortRank, Desc: false},
		commands: []CommandDoc{
			{"/coins", "Top 100 by market cap, sortable and filterable", "/coins [rank|price|24h|7d|mcap|volume] [asc|desc] [filter]"},
			{"/coin", "Coin detail with price chart", "/coin <id> [1|7|30|365]"},
			{"/search", "Find a coin id by name or symbol", "/search <query>"},
			{"/buy", "Simulated buy at the live price", "/buy <id> <qty>"},
			{"/sell", "Simulated sell at the live price", "/sell <id> <qty>"},
			{"/portfolio", "Holdings, P&L and recent transactions", "/portfolio"},
			{"/watch", "Star or unstar a coin", "/watch <id>"},
			{"/watchlist", "Starred coins", "/watchlist"},
			{"/heatmap", "Top 50 by market cap, coloured by 24h change", "/heatmap"},
			{"/alert", "Notify when a price crosses a target", "/alert <id> <above|below> <price>"},
			{"/alerts", "Active and triggered alerts", "/alerts"},
			{"/unalert", "Delete an alert", "/unalert <id>"},
			{"/cleartriggered", "Delete all triggered alerts", "/cleartriggered"},
			{"/theme", "Toggle dark/light theme", "/theme"},
			{"/ping", "Connectivity check", "/ping"},
			{"/help", "This list", "/help"},
		},
	}
}

// Poll refreshes the coin listing and evaluates price alerts.
// The caller runs it once at startup and then on every tick.
func (w *Watcher) Poll(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.PollDuration.Observe(time.Since(start).Seconds())
	}()

	if res, _ := w.refreshCoins(ctx); res.Err != "" {
		zap.L().Warn("Coin listing refresh failed", zap.String("error", res.Err))
	}

	fired, err := w.alerts.Check(ctx)
	if err != nil {
		// Next tick retries
		if errors.Is(err, market.ErrRateLimited) {
			zap.L().Warn("Alert check rate limited")
		} else {
			zap.L().Error("Alert check failed", zap.Error(err))
		}
	} else if len(fired) > 0 {
		zap.L().Info("Alerts fired", zap.Int("count", len(fired)))
	}

	w.mu.Lock()
	w.lastPoll = time.Now()
	w.mu.Unlock()
}

// Startup is the greeting sent to chat when the process starts.
func (w *Watcher) Startup() string {
	snap := w.ledger.Snapshot()
	return fmt.Sprintf("🚀 *Crypto Tracker %s online*\nCash: %s | Holdings: %d | Watching: %d | Active alerts: %d",
		w.config.Version,
		formatPrice(snap.Balance.InexactFloat64()),
		len(snap.Holdings),
		w.watchlist.Len(),
		w.alerts.ActiveCount())
}

// Shutdown stops in-flight loads and saves every store.
func (w *Watcher) Shutdown(ctx context.Context) error {
	w.coins.Close()
	w.detail.Close()
	w.chart.Close()

	return errors.Join(
		w.ledger.Save(ctx),
		w.watchlist.Save(ctx),
		w.alerts.Save(ctx),
		w.theme.Save(ctx),
	)
}
