package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxType is the side of a ledger transaction.
type TxType string

const (
	TxBuy  TxType = "buy"
	TxSell TxType = "sell"
)

// Holding is the current position in one coin.
// Quantity and average price are kept as decimals so repeated buys do not drift.
type Holding struct {
	CoinID        string          `json:"coinId"`
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Image         string          `json:"image"`
	TotalQuantity decimal.Decimal `json:"totalQuantity"`
	AvgBuyPrice   decimal.Decimal `json:"avgBuyPrice"` // Weighted average cost basis
}

// CostBasis is quantity times average price.
func (h Holding) CostBasis() decimal.Decimal {
	return h.TotalQuantity.Mul(h.AvgBuyPrice)
}

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID       string          `json:"id"`
	CoinID   string          `json:"coinId"`
	Symbol   string          `json:"symbol"`
	Name     string          `json:"name"`
	Type     TxType          `json:"type"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
	Date     time.Time       `json:"date"`
}

// PortfolioState is the persisted shape of the simulated portfolio.
// Transactions are ordered newest first.
type PortfolioState struct {
	Version      string          `json:"version,omitempty"`
	Balance      decimal.Decimal `json:"balance"`
	Holdings     []Holding       `json:"holdings"`
	Transactions []Transaction   `json:"transactions"`
}

// Condition is the direction of a price alert.
type Condition string

const (
	Above Condition = "above"
	Below Condition = "below"
)

// Valid reports whether c is one of the known conditions.
func (c Condition) Valid() bool {
	return c == Above || c == Below
}

// PriceAlert fires once when the live price crosses TargetPrice.
type PriceAlert struct {
	ID          string          `json:"id"`
	CoinID      string          `json:"coinId"`
	Symbol      string          `json:"symbol"`
	Name        string          `json:"name"`
	TargetPrice decimal.Decimal `json:"targetPrice"`
	Condition   Condition       `json:"condition"`
	CreatedAt   time.Time       `json:"createdAt"`
	Triggered   bool            `json:"triggered"`
	TriggeredAt *time.Time      `json:"triggeredAt,omitempty"`
}

// Met reports whether price satisfies the alert condition.
func (a PriceAlert) Met(price decimal.Decimal) bool {
	switch a.Condition {
	case Above:
		return price.GreaterThanOrEqual(a.TargetPrice)
	case Below:
		return price.LessThanOrEqual(a.TargetPrice)
	default:
		return false
	}
}
