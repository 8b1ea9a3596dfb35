package models

// Coin is one row of the market listing endpoint.
// Field names follow the upstream JSON so payloads decode without adapters.
type Coin struct {
	ID                         string     `json:"id"`
	Symbol                     string     `json:"symbol"`
	Name                       string     `json:"name"`
	Image                      string     `json:"image"`
	CurrentPrice               float64    `json:"current_price"`
	MarketCap                  float64    `json:"market_cap"`
	MarketCapRank              int        `json:"market_cap_rank"`
	FullyDilutedValuation      *float64   `json:"fully_diluted_valuation"`
	TotalVolume                float64    `json:"total_volume"`
	High24h                    float64    `json:"high_24h"`
	Low24h                     float64    `json:"low_24h"`
	PriceChange24h             float64    `json:"price_change_24h"`
	PriceChangePercentage24h   float64    `json:"price_change_percentage_24h"`
	PriceChangePercentage7d    *float64   `json:"price_change_percentage_7d_in_currency,omitempty"`
	MarketCapChange24h         float64    `json:"market_cap_change_24h"`
	MarketCapChangePercent24h  float64    `json:"market_cap_change_percentage_24h"`
	CirculatingSupply          float64    `json:"circulating_supply"`
	TotalSupply                *float64   `json:"total_supply"`
	MaxSupply                  *float64   `json:"max_supply"`
	ATH                        float64    `json:"ath"`
	ATHChangePercentage        float64    `json:"ath_change_percentage"`
	ATHDate                    string     `json:"ath_date"`
	ATL                        float64    `json:"atl"`
	ATLChangePercentage        float64    `json:"atl_change_percentage"`
	ATLDate                    string     `json:"atl_date"`
	LastUpdated                string     `json:"last_updated"`
	SparklineIn7d              *Sparkline `json:"sparkline_in_7d,omitempty"`
}

// Sparkline holds the 7 day price trace attached to listing rows.
type Sparkline struct {
	Price []float64 `json:"price"`
}

// Change7d returns the 7 day change, treating a missing value as zero.
func (c Coin) Change7d() float64 {
	if c.PriceChangePercentage7d == nil {
		return 0
	}
	return *c.PriceChangePercentage7d
}

// USDValue wraps the `{ "usd": n }` objects used by the detail endpoint.
type USDValue struct {
	USD float64 `json:"usd"`
}

// USDNullable is a USDValue whose amount may be null upstream.
type USDNullable struct {
	USD *float64 `json:"usd"`
}

// USDDate wraps `{ "usd": "2021-11-10T14:24:11.849Z" }`.
type USDDate struct {
	USD string `json:"usd"`
}

// CoinImage lists the image sizes returned by the detail endpoint.
type CoinImage struct {
	Thumb string `json:"thumb"`
	Small string `json:"small"`
	Large string `json:"large"`
}

// MarketData is the market section of a coin detail payload.
type MarketData struct {
	CurrentPrice              USDValue    `json:"current_price"`
	MarketCap                 USDValue    `json:"market_cap"`
	TotalVolume               USDValue    `json:"total_volume"`
	High24h                   USDValue    `json:"high_24h"`
	Low24h                    USDValue    `json:"low_24h"`
	PriceChangePercentage24h  float64     `json:"price_change_percentage_24h"`
	PriceChangePercentage7d   float64     `json:"price_change_percentage_7d"`
	PriceChangePercentage30d  float64     `json:"price_change_percentage_30d"`
	PriceChangePercentage1y   float64     `json:"price_change_percentage_1y"`
	ATH                       USDValue    `json:"ath"`
	ATHDate                   USDDate     `json:"ath_date"`
	ATHChangePercentage       USDValue    `json:"ath_change_percentage"`
	ATL                       USDValue    `json:"atl"`
	ATLDate                   USDDate     `json:"atl_date"`
	ATLChangePercentage       USDValue    `json:"atl_change_percentage"`
	CirculatingSupply         float64     `json:"circulating_supply"`
	TotalSupply               *float64    `json:"total_supply"`
	MaxSupply                 *float64    `json:"max_supply"`
	FullyDilutedValuation     USDNullable `json:"fully_diluted_valuation"`
}

// CoinDetail is the payload of the single-coin endpoint.
type CoinDetail struct {
	ID            string     `json:"id"`
	Symbol        string     `json:"symbol"`
	Name          string     `json:"name"`
	Image         CoinImage  `json:"image"`
	MarketCapRank int        `json:"market_cap_rank"`
	MarketData    MarketData `json:"market_data"`
	Description   struct {
		EN string `json:"en"`
	} `json:"description"`
}

// ChartData is a historical price series: pairs of [unix millis, price].
type ChartData struct {
	Prices [][2]float64 `json:"prices"`
}

// Closes returns just the price column of the series.
func (c ChartData) Closes() []float64 {
	out := make([]float64, len(c.Prices))
	for i, p := range c.Prices {
		out[i] = p[1]
	}
	return out
}

// SearchCoin is one hit from the text search endpoint.
type SearchCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Thumb         string `json:"thumb"`
	MarketCapRank int    `json:"market_cap_rank"`
}

// SearchResult is the search endpoint envelope.
type SearchResult struct {
	Coins []SearchCoin `json:"coins"`
}
