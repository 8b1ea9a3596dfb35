package portfolio

import (
	"sort"

	"crypto_tracker/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Position is a holding marked to the latest price.
type Position struct {
	models.Holding
	CurrentPrice decimal.Decimal
	Priced       bool // false when no live price was available and AvgBuyPrice was used
	Value        decimal.Decimal
	Cost         decimal.Decimal
	PnL          decimal.Decimal
	PnLPct       decimal.Decimal
	Allocation   decimal.Decimal // share of HoldingsValue, in percent
}

// Summary is the portfolio page: cash, marked positions and totals.
type Summary struct {
	Cash          decimal.Decimal
	HoldingsValue decimal.Decimal
	TotalCost     decimal.Decimal
	PnL           decimal.Decimal
	PnLPct        decimal.Decimal
	NetWorth      decimal.Decimal
	Positions     []Position
}

// Valuate marks every holding to prices (keyed by coin id) and sorts by value, largest first.
func Valuate(state models.PortfolioState, prices map[string]float64) Summary {
	sum := Summary{Cash: state.Balance}

	for _, h := range state.Holdings {
		p := Position{Holding: h, CurrentPrice: h.AvgBuyPrice}
		if live, ok := prices[h.CoinID]; ok && live > 0 {
			p.CurrentPrice = decimal.NewFromFloat(live)
			p.Priced = true
		}
		p.Value = h.TotalQuantity.Mul(p.CurrentPrice)
		p.Cost = h.CostBasis()
		p.PnL = p.Value.Sub(p.Cost)
		p.PnLPct = percentOf(p.PnL, p.Cost)

		sum.HoldingsValue = sum.HoldingsValue.Add(p.Value)
		sum.TotalCost = sum.TotalCost.Add(p.Cost)
		sum.Positions = append(sum.Positions, p)
	}

	sort.SliceStable(sum.Positions, func(i, j int) bool {
		return sum.Positions[i].Value.GreaterThan(sum.Positions[j].Value)
	})
	for i := range sum.Positions {
		sum.Positions[i].Allocation = percentOf(sum.Positions[i].Value, sum.HoldingsValue)
	}

	sum.PnL = sum.HoldingsValue.Sub(sum.TotalCost)
	sum.PnLPct = percentOf(sum.PnL, sum.TotalCost)
	sum.NetWorth = sum.Cash.Add(sum.HoldingsValue)
	return sum
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
