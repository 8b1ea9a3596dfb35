package market

import (
	"context"
	"errors"
	"fmt"

	"crypto_tracker/internal/models"
)

// MarketProvider is the read side of a market data API.
// Views and the alert engine depend on this interface so tests can swap in a mock.
type MarketProvider interface {
	GetCoins(ctx context.Context, page, perPage int) ([]models.Coin, error)
	GetCoinDetail(ctx context.Context, id string) (*models.CoinDetail, error)
	GetCoinChart(ctx context.Context, id string, days string) (*models.ChartData, error)
	SearchCoins(ctx context.Context, query string) ([]models.SearchCoin, error)
}

// ErrRateLimited is returned when the API answers 429.
var ErrRateLimited = errors.New("Rate limited. Please wait a moment and try again.")

// APIError is any other non-success HTTP status.
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d", e.StatusCode)
}

// ChartRanges are the day ranges offered on the coin detail view.
var ChartRanges = []string{"1", "7", "30", "365"}

// ValidRange reports whether days is one of ChartRanges.
func ValidRange(days string) bool {
	for _, r := range ChartRanges {
		if r == days {
			return true
		}
	}
	return false
}
