package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"crypto_tracker/internal/market"
	"crypto_tracker/internal/metrics"
	"crypto_tracker/internal/models"
	"crypto_tracker/internal/notify"
	"crypto_tracker/internal/storage"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// checkPerPage is the size of the listing page alerts are evaluated against.
const checkPerPage = 100

var (
	ErrInvalidCondition = errors.New("condition must be above or below")
	ErrInvalidTarget    = errors.New("target price must be positive")
	ErrMissingCoin      = errors.New("coin id is required")
)

// NewAlert is the user-supplied part of a PriceAlert.
type NewAlert struct {
	CoinID      string
	Symbol      string
	Name        string
	TargetPrice decimal.Decimal
	Condition   models.Condition
}

// Engine owns the alert list and evaluates it against live prices.
type Engine struct {
	mu       sync.Mutex
	store    storage.Store
	provider market.MarketProvider
	notifier notify.Interface
	alerts   []models.PriceAlert

	now   func() time.Time
	newID func() string
}

func NewEngine(store storage.Store, provider market.MarketProvider, notifier notify.Interface) *Engine {
	return &Engine{
		store:    store,
		provider: provider,
		notifier: notifier,
		alerts:   []models.PriceAlert{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Load restores saved alerts. Unreadable records are ignored.
func (e *Engine) Load(ctx context.Context) {
	var saved []models.PriceAlert
	err := storage.LoadJSON(ctx, e.store, storage.KeyAlerts, &saved)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			zap.L().Warn("Alerts record unreadable, starting empty", zap.Error(err))
		}
		e.alerts = []models.PriceAlert{}
	} else {
		e.alerts = saved
		if e.alerts == nil {
			e.alerts = []models.PriceAlert{}
		}
	}
	metrics.ActiveAlerts.Set(float64(e.activeLocked()))
}

func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.persist(ctx)
}

func (e *Engine) persist(ctx context.Context) error {
	metrics.ActiveAlerts.Set(float64(e.activeLocked()))
	if err := storage.SaveJSON(ctx, e.store, storage.KeyAlerts, e.alerts); err != nil {
		return fmt.Errorf("save alerts: %w", err)
	}
	return nil
}

func (e *Engine) saveLocked(ctx context.Context) {
	if err := e.persist(ctx); err != nil {
		zap.L().Error("Failed to persist alerts", zap.Error(err))
	}
}

// Add validates and stores a new active alert.
func (e *Engine) Add(ctx context.Context, in NewAlert) (models.PriceAlert, error) {
	if in.CoinID == "" {
		return models.PriceAlert{}, ErrMissingCoin
	}
	if !in.Condition.Valid() {
		return models.PriceAlert{}, ErrInvalidCondition
	}
	if !in.TargetPrice.IsPositive() {
		return models.PriceAlert{}, ErrInvalidTarget
	}

	a := models.PriceAlert{
		ID:          e.newID(),
		CoinID:      in.CoinID,
		Symbol:      in.Symbol,
		Name:        in.Name,
		TargetPrice: in.TargetPrice,
		Condition:   in.Condition,
		CreatedAt:   e.now(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.alerts = append(e.alerts, a)
	e.saveLocked(ctx)

	zap.L().Info("Alert added",
		zap.String("id", a.ID),
		zap.String("coin", a.CoinID),
		zap.String("condition", string(a.Condition)),
		zap.String("target", a.TargetPrice.String()))
	return a, nil
}

// Remove deletes the alert with the given id, or the single alert whose id
// starts with it. Ambiguous prefixes remove nothing.
func (e *Engine) Remove(ctx context.Context, idOrPrefix string) bool {
	if idOrPrefix == "" {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idx := -1
	for i, a := range e.alerts {
		if a.ID == idOrPrefix {
			idx = i
			break
		}
		if strings.HasPrefix(a.ID, idOrPrefix) {
			if idx >= 0 {
				return false
			}
			idx = i
		}
	}
	if idx < 0 {
		return false
	}

	e.alerts = append(e.alerts[:idx], e.alerts[idx+1:]...)
	e.saveLocked(ctx)
	return true
}

// ClearTriggered drops every fired alert and returns how many were removed.
func (e *Engine) ClearTriggered(ctx context.Context) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := make([]models.PriceAlert, 0, len(e.alerts))
	for _, a := range e.alerts {
		if !a.Triggered {
			kept = append(kept, a)
		}
	}
	removed := len(e.alerts) - len(kept)
	if removed > 0 {
		e.alerts = kept
		e.saveLocked(ctx)
	}
	return removed
}

// List returns a copy of all alerts in creation order.
func (e *Engine) List() []models.PriceAlert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.PriceAlert(nil), e.alerts...)
}

func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeLocked()
}

func (e *Engine) activeLocked() int {
	n := 0
	for _, a := range e.alerts {
		if !a.Triggered {
			n++
		}
	}
	return n
}

// Check fetches live prices and fires every active alert whose condition holds.
// Each fired alert is notified individually; one cue plays if any fired.
// It returns the alerts fired in this pass.
func (e *Engine) Check(ctx context.Context) ([]models.PriceAlert, error) {
	if e.ActiveCount() == 0 {
		return nil, nil
	}

	coins, err := e.provider.GetCoins(ctx, 1, checkPerPage)
	if err != nil {
		return nil, fmt.Errorf("alert check: %w", err)
	}
	prices := make(map[string]float64, len(coins))
	for _, c := range coins {
		prices[c.ID] = c.CurrentPrice
	}

	e.mu.Lock()
	var fired []models.PriceAlert
	now := e.now()
	for i := range e.alerts {
		a := &e.alerts[i]
		if a.Triggered {
			continue
		}
		// Coins outside the page, or without a price, are skipped this round.
		price, ok := prices[a.CoinID]
		if !ok || price == 0 {
			continue
		}
		if !a.Met(decimal.NewFromFloat(price)) {
			continue
		}
		triggeredAt := now
		a.Triggered = true
		a.TriggeredAt = &triggeredAt
		fired = append(fired, *a)
	}
	if len(fired) > 0 {
		e.saveLocked(ctx)
	}
	e.mu.Unlock()

	if len(fired) == 0 {
		return nil, nil
	}

	metrics.AlertsTriggered.Add(float64(len(fired)))
	for _, a := range fired {
		title, body := Message(a, prices[a.CoinID])
		zap.L().Info("Alert triggered", zap.String("id", a.ID), zap.String("coin", a.CoinID), zap.Float64("price", prices[a.CoinID]))
		if e.notifier == nil {
			continue
		}
		if err := e.notifier.Notify(title, body); err != nil {
			zap.L().Debug("Notification not delivered", zap.Error(err))
		}
	}
	if e.notifier != nil {
		if err := e.notifier.Cue(); err != nil {
			zap.L().Debug("Audio cue not played", zap.Error(err))
		}
	}
	return fired, nil
}

// Message renders the notification for a fired alert.
func Message(a models.PriceAlert, price float64) (title, body string) {
	title = "Price Alert: " + a.Name
	body = fmt.Sprintf("%s is %s $%s (now $%s)",
		strings.ToUpper(a.Symbol), a.Condition, a.TargetPrice.String(), humanize.CommafWithDigits(price, 2))
	return title, body
}
