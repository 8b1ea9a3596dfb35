package watcher

import (
	"sort"
	"strings"

	"crypto_tracker/internal/models"
)

type SortField string

const (
	SortRank   SortField = "rank"
	SortPrice  SortField = "price"
	Sort24h    SortField = "24h"
	Sort7d     SortField = "7d"
	SortMcap   SortField = "mcap"
	SortVolume SortField = "volume"
)

var sortFields = map[string]SortField{
	"rank":   SortRank,
	"#":      SortRank,
	"price":  SortPrice,
	"24h":    Sort24h,
	"7d":     Sort7d,
	"mcap":   SortMcap,
	"cap":    SortMcap,
	"volume": SortVolume,
	"vol":    SortVolume,
}

// SortState is the dashboard ordering.
type SortState struct {
	Field SortField
	Desc  bool
}

// Select mirrors clicking a column header: the same field flips direction,
// a new field starts ascending for rank and descending for everything else.
func (s SortState) Select(field SortField) SortState {
	if field == s.Field {
		return SortState{Field: field, Desc: !s.Desc}
	}
	return SortState{Field: field, Desc: field != SortRank}
}

func (s SortState) String() string {
	if s.Desc {
		return string(s.Field) + " ↓"
	}
	return string(s.Field) + " ↑"
}

func sortValue(c models.Coin, f SortField) float64 {
	switch f {
	case SortPrice:
		return c.CurrentPrice
	case Sort24h:
		return c.PriceChangePercentage24h
	case Sort7d:
		return c.Change7d()
	case SortMcap:
		return c.MarketCap
	case SortVolume:
		return c.TotalVolume
	default:
		return float64(c.MarketCapRank)
	}
}

// SortCoins returns a sorted copy of coins.
func SortCoins(coins []models.Coin, s SortState) []models.Coin {
	out := append([]models.Coin(nil), coins...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := sortValue(out[i], s.Field), sortValue(out[j], s.Field)
		if s.Desc {
			return a > b
		}
		return a < b
	})
	return out
}

// FilterCoins keeps coins whose name or symbol contains q, case-insensitively.
func FilterCoins(coins []models.Coin, q string) []models.Coin {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return coins
	}
	var out []models.Coin
	for _, c := range coins {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Symbol), q) {
			out = append(out, c)
		}
	}
	return out
}
