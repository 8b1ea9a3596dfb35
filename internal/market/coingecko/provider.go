package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"crypto_tracker/internal/cache"
	"crypto_tracker/internal/market"
	"crypto_tracker/internal/metrics"
	"crypto_tracker/internal/models"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public CoinGecko v3 API.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Provider implements the generic MarketProvider interface for CoinGecko.
type Provider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *cache.Cache
	limiter    *rate.Limiter
}

// Ensure Provider implements the interface
var _ market.MarketProvider = (*Provider)(nil)

// Options configures a Provider. Zero values fall back to defaults.
type Options struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerMinute int
	Cache             *cache.Cache
	HTTPClient        *http.Client
}

// NewProvider returns a new CoinGecko provider.
func NewProvider(opts Options) *Provider {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Cache == nil {
		opts.Cache = cache.New(cache.DefaultTTL, nil)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	// Free tier allows roughly 30 calls a minute. Burst of 10% like the exchange limiters.
	limit := rate.Inf
	burst := 1
	if opts.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(opts.RequestsPerMinute) / 60.0)
		burst = opts.RequestsPerMinute / 10
		if burst < 1 {
			burst = 1
		}
	}

	return &Provider{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		httpClient: opts.HTTPClient,
		cache:      opts.Cache,
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// --- Market Data ---

func (p *Provider) GetCoins(ctx context.Context, page, perPage int) ([]models.Coin, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 100
	}
	u := fmt.Sprintf("%s/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=%d&page=%d&sparkline=true&price_change_percentage=7d",
		p.baseURL, perPage, page)

	var coins []models.Coin
	if err := p.fetchWithCache(ctx, "markets", u, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

func (p *Provider) GetCoinDetail(ctx context.Context, id string) (*models.CoinDetail, error) {
	u := fmt.Sprintf("%s/coins/%s?localization=false&tickers=false&community_data=false&developer_data=false",
		p.baseURL, url.PathEscape(id))

	var detail models.CoinDetail
	if err := p.fetchWithCache(ctx, "coin", u, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (p *Provider) GetCoinChart(ctx context.Context, id string, days string) (*models.ChartData, error) {
	u := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%s",
		p.baseURL, url.PathEscape(id), url.QueryEscape(days))

	var chart models.ChartData
	if err := p.fetchWithCache(ctx, "market_chart", u, &chart); err != nil {
		return nil, err
	}
	return &chart, nil
}

func (p *Provider) SearchCoins(ctx context.Context, query string) ([]models.SearchCoin, error) {
	u := fmt.Sprintf("%s/search?query=%s", p.baseURL, url.QueryEscape(query))

	var result models.SearchResult
	if err := p.fetchWithCache(ctx, "search", u, &result); err != nil {
		return nil, err
	}
	return result.Coins, nil
}

// --- Transport ---

// fetchWithCache serves u from the cache when fresh, otherwise performs the
// request and caches the body under the exact URL string.
func (p *Provider) fetchWithCache(ctx context.Context, endpoint, u string, dest any) error {
	if payload, ok := p.cache.Get(u); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return json.Unmarshal(payload, dest)
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", p.apiKey)
	}

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APICalls.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		metrics.APICalls.WithLabelValues(endpoint, "rate_limited").Inc()
		zap.L().Warn("Market API rate limited", zap.String("endpoint", endpoint))
		return market.ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.APICalls.WithLabelValues(endpoint, "error").Inc()
		return &market.APIError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.APICalls.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		metrics.APICalls.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	metrics.APICalls.WithLabelValues(endpoint, "success").Inc()
	p.cache.Set(u, body)
	zap.L().Debug("Market API fetched", zap.String("endpoint", endpoint), zap.Int("bytes", len(body)))
	return nil
}
