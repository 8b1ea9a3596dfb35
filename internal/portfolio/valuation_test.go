package portfolio

import (
	"testing"

	"crypto_tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuate(t *testing.T) {
	state := models.PortfolioState{
		Balance: d("1000"),
		Holdings: []models.Holding{
			{CoinID: "ethereum", Symbol: "eth", TotalQuantity: d("2"), AvgBuyPrice: d("2000")},
			{CoinID: "bitcoin", Symbol: "btc", TotalQuantity: d("0.1"), AvgBuyPrice: d("50000")},
			{CoinID: "obscure", Symbol: "obs", TotalQuantity: d("100"), AvgBuyPrice: d("1")},
		},
	}
	prices := map[string]float64{
		"bitcoin":  60000,
		"ethereum": 1500,
	}

	sum := Valuate(state, prices)
	require.Len(t, sum.Positions, 3)

	// Sorted by value: btc 6000, eth 3000, obscure 100 (priced at cost)
	assert.Equal(t, "bitcoin", sum.Positions[0].CoinID)
	assert.Equal(t, "ethereum", sum.Positions[1].CoinID)
	assert.Equal(t, "obscure", sum.Positions[2].CoinID)

	assert.True(t, sum.Positions[0].Priced)
	assert.False(t, sum.Positions[2].Priced)
	assert.True(t, sum.Positions[2].PnL.IsZero())

	assert.Equal(t, "1000.00", sum.Positions[0].PnL.StringFixed(2))
	assert.Equal(t, "20.00", sum.Positions[0].PnLPct.StringFixed(2))
	assert.Equal(t, "-1000.00", sum.Positions[1].PnL.StringFixed(2))
	assert.Equal(t, "-25.00", sum.Positions[1].PnLPct.StringFixed(2))

	assert.Equal(t, "9100.00", sum.HoldingsValue.StringFixed(2))
	assert.Equal(t, "9100.00", sum.TotalCost.StringFixed(2))
	assert.True(t, sum.PnL.IsZero())
	assert.Equal(t, "10100.00", sum.NetWorth.StringFixed(2))
	assert.Equal(t, "65.93", sum.Positions[0].Allocation.StringFixed(2))
}

func TestValuate_Empty(t *testing.T) {
	sum := Valuate(models.PortfolioState{Balance: d("10000")}, nil)
	assert.Empty(t, sum.Positions)
	assert.True(t, sum.PnLPct.IsZero())
	assert.Equal(t, "10000.00", sum.NetWorth.StringFixed(2))
}
