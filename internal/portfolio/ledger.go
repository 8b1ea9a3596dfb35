package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"crypto_tracker/internal/metrics"
	"crypto_tracker/internal/models"
	"crypto_tracker/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StateVersion is stamped on every saved portfolio record.
const StateVersion = "1.1"

// DefaultInitialBalance is the starting cash of a fresh portfolio.
var DefaultInitialBalance = decimal.NewFromInt(10000)

// BuyOrder describes a simulated purchase. Coin metadata is copied onto the holding.
type BuyOrder struct {
	CoinID   string
	Symbol   string
	Name     string
	Image    string
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// Ledger is the simulated portfolio: cash, holdings and the transaction log.
// All mutators serialize on mu and persist the full state before returning.
type Ledger struct {
	mu      sync.Mutex
	store   storage.Store
	initial decimal.Decimal
	state   models.PortfolioState

	now   func() time.Time
	newID func() string
}

// New returns a ledger holding the default state. Call Load to restore a saved one.
func New(store storage.Store, initialBalance decimal.Decimal) *Ledger {
	if initialBalance.IsNegative() {
		initialBalance = DefaultInitialBalance
	}
	l := &Ledger{
		store:   store,
		initial: initialBalance,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	l.state = l.defaultState()
	return l
}

func (l *Ledger) defaultState() models.PortfolioState {
	return models.PortfolioState{
		Version:      StateVersion,
		Balance:      l.initial,
		Holdings:     []models.Holding{},
		Transactions: []models.Transaction{},
	}
}

// Load restores the saved portfolio. A missing or corrupt record leaves the
// default state in place and is only logged.
func (l *Ledger) Load(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Fields absent from the record keep their defaults.
	s := l.defaultState()
	s.Version = ""
	if err := storage.LoadJSON(ctx, l.store, storage.KeyPortfolio, &s); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			zap.L().Info("No saved portfolio, starting fresh", zap.String("balance", l.initial.StringFixed(2)))
		} else {
			zap.L().Warn("Portfolio record unreadable, starting fresh", zap.Error(err))
		}
		l.state = l.defaultState()
		return
	}

	if migrateState(&s) {
		zap.L().Info("Portfolio state migrated", zap.String("version", s.Version))
		l.state = s
		l.saveLocked(ctx)
		return
	}
	l.state = s
}

// migrateState handles schema evolution.
// Returns true if changes were made and the state needs to be saved.
func migrateState(s *models.PortfolioState) bool {
	updated := false

	// Migration: unversioned -> 1.0 (records written before the version stamp)
	if s.Version == "" {
		s.Version = "1.0"
		updated = true
	}

	// Migration: 1.0 -> 1.1 (normalise nil slices, drop empty holdings, backfill totals)
	if s.Version < "1.1" {
		if s.Holdings == nil {
			s.Holdings = []models.Holding{}
		}
		if s.Transactions == nil {
			s.Transactions = []models.Transaction{}
		}
		kept := s.Holdings[:0]
		for _, h := range s.Holdings {
			if h.TotalQuantity.IsPositive() {
				kept = append(kept, h)
			}
		}
		s.Holdings = kept
		for i := range s.Transactions {
			if s.Transactions[i].Total.IsZero() {
				s.Transactions[i].Total = s.Transactions[i].Quantity.Mul(s.Transactions[i].Price)
			}
		}
		s.Version = "1.1"
		updated = true
	}

	return updated
}

// Save writes the full state.
func (l *Ledger) Save(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persist(ctx)
}

func (l *Ledger) persist(ctx context.Context) error {
	l.state.Version = StateVersion
	if err := storage.SaveJSON(ctx, l.store, storage.KeyPortfolio, l.state); err != nil {
		return fmt.Errorf("save portfolio: %w", err)
	}
	return nil
}

// saveLocked persists after a mutation. Failures are logged, the in-memory
// state stays authoritative until the next successful save.
func (l *Ledger) saveLocked(ctx context.Context) {
	if err := l.persist(ctx); err != nil {
		zap.L().Error("Failed to persist portfolio", zap.Error(err))
	}
}

// Buy debits quantity*price from cash and adds to the holding.
// Returns false without mutating when the input is invalid or cash is short.
func (l *Ledger) Buy(ctx context.Context, o BuyOrder) bool {
	if o.CoinID == "" || !o.Quantity.IsPositive() || !o.Price.IsPositive() {
		metrics.Trades.WithLabelValues("buy", "rejected").Inc()
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	total := o.Quantity.Mul(o.Price)
	if total.GreaterThan(l.state.Balance) {
		metrics.Trades.WithLabelValues("buy", "rejected").Inc()
		zap.L().Info("Buy rejected: insufficient balance",
			zap.String("coin", o.CoinID),
			zap.String("total", total.String()),
			zap.String("balance", l.state.Balance.String()))
		return false
	}

	if idx := l.indexOf(o.CoinID); idx >= 0 {
		h := &l.state.Holdings[idx]
		newQty := h.TotalQuantity.Add(o.Quantity)
		h.AvgBuyPrice = h.AvgBuyPrice.Mul(h.TotalQuantity).Add(total).Div(newQty)
		h.TotalQuantity = newQty
	} else {
		l.state.Holdings = append(l.state.Holdings, models.Holding{
			CoinID:        o.CoinID,
			Symbol:        o.Symbol,
			Name:          o.Name,
			Image:         o.Image,
			TotalQuantity: o.Quantity,
			AvgBuyPrice:   o.Price,
		})
	}

	l.prepend(models.Transaction{
		ID:       l.newID(),
		CoinID:   o.CoinID,
		Symbol:   o.Symbol,
		Name:     o.Name,
		Type:     models.TxBuy,
		Quantity: o.Quantity,
		Price:    o.Price,
		Total:    total,
		Date:     l.now(),
	})
	l.state.Balance = l.state.Balance.Sub(total)

	metrics.Trades.WithLabelValues("buy", "filled").Inc()
	zap.L().Info("Bought",
		zap.String("coin", o.CoinID),
		zap.String("qty", o.Quantity.String()),
		zap.String("price", o.Price.String()))

	l.saveLocked(ctx)
	return true
}

// Sell credits quantity*price to cash and reduces the holding, removing it at zero.
// Returns false when no holding exists or it is smaller than quantity.
func (l *Ledger) Sell(ctx context.Context, coinID string, quantity, price decimal.Decimal) bool {
	if !quantity.IsPositive() || !price.IsPositive() {
		metrics.Trades.WithLabelValues("sell", "rejected").Inc()
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(coinID)
	if idx < 0 || l.state.Holdings[idx].TotalQuantity.LessThan(quantity) {
		metrics.Trades.WithLabelValues("sell", "rejected").Inc()
		zap.L().Info("Sell rejected: insufficient quantity",
			zap.String("coin", coinID),
			zap.String("qty", quantity.String()))
		return false
	}

	h := l.state.Holdings[idx]
	total := quantity.Mul(price)

	remaining := h.TotalQuantity.Sub(quantity)
	if remaining.IsZero() {
		l.state.Holdings = append(l.state.Holdings[:idx], l.state.Holdings[idx+1:]...)
	} else {
		l.state.Holdings[idx].TotalQuantity = remaining
	}

	l.prepend(models.Transaction{
		ID:       l.newID(),
		CoinID:   coinID,
		Symbol:   h.Symbol,
		Name:     h.Name,
		Type:     models.TxSell,
		Quantity: quantity,
		Price:    price,
		Total:    total,
		Date:     l.now(),
	})
	l.state.Balance = l.state.Balance.Add(total)

	metrics.Trades.WithLabelValues("sell", "filled").Inc()
	zap.L().Info("Sold",
		zap.String("coin", coinID),
		zap.String("qty", quantity.String()),
		zap.String("price", price.String()))

	l.saveLocked(ctx)
	return true
}

func (l *Ledger) indexOf(coinID string) int {
	for i, h := range l.state.Holdings {
		if h.CoinID == coinID {
			return i
		}
	}
	return -1
}

func (l *Ledger) prepend(tx models.Transaction) {
	l.state.Transactions = append([]models.Transaction{tx}, l.state.Transactions...)
}

// Snapshot returns a copy of the state that callers may keep.
func (l *Ledger) Snapshot() models.PortfolioState {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.state
	s.Holdings = append([]models.Holding(nil), l.state.Holdings...)
	s.Transactions = append([]models.Transaction(nil), l.state.Transactions...)
	return s
}

// Balance is the current cash.
func (l *Ledger) Balance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Balance
}

// Holding returns the position in coinID, if any.
func (l *Ledger) Holding(coinID string) (models.Holding, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx := l.indexOf(coinID); idx >= 0 {
		return l.state.Holdings[idx], true
	}
	return models.Holding{}, false
}

// Reconcile replays the transaction log from the initial balance and checks
// that cash and holdings match the stored state.
func (l *Ledger) Reconcile() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return reconcile(l.initial, l.state)
}

func reconcile(initial decimal.Decimal, s models.PortfolioState) error {
	balance := initial
	qty := make(map[string]decimal.Decimal)
	avg := make(map[string]decimal.Decimal)

	// Log is newest first
	for i := len(s.Transactions) - 1; i >= 0; i-- {
		tx := s.Transactions[i]
		switch tx.Type {
		case models.TxBuy:
			newQty := qty[tx.CoinID].Add(tx.Quantity)
			avg[tx.CoinID] = avg[tx.CoinID].Mul(qty[tx.CoinID]).Add(tx.Total).Div(newQty)
			qty[tx.CoinID] = newQty
			balance = balance.Sub(tx.Total)
		case models.TxSell:
			qty[tx.CoinID] = qty[tx.CoinID].Sub(tx.Quantity)
			if qty[tx.CoinID].IsNegative() {
				return fmt.Errorf("transaction %s sells more %s than held", tx.ID, tx.CoinID)
			}
			balance = balance.Add(tx.Total)
		default:
			return fmt.Errorf("transaction %s has unknown type %q", tx.ID, tx.Type)
		}
		if balance.IsNegative() {
			return fmt.Errorf("transaction %s drives balance negative", tx.ID)
		}
	}

	if !balance.Equal(s.Balance) {
		return fmt.Errorf("balance mismatch: log gives %s, state has %s", balance, s.Balance)
	}

	seen := make(map[string]bool)
	for _, h := range s.Holdings {
		seen[h.CoinID] = true
		if !qty[h.CoinID].Equal(h.TotalQuantity) {
			return fmt.Errorf("%s quantity mismatch: log gives %s, state has %s", h.CoinID, qty[h.CoinID], h.TotalQuantity)
		}
		if !avg[h.CoinID].Equal(h.AvgBuyPrice) {
			return fmt.Errorf("%s average price mismatch: log gives %s, state has %s", h.CoinID, avg[h.CoinID], h.AvgBuyPrice)
		}
	}
	for coin, q := range qty {
		if q.IsPositive() && !seen[coin] {
			return fmt.Errorf("%s missing from holdings with quantity %s", coin, q)
		}
	}
	return nil
}
