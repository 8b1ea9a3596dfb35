package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	// Fetch cache metrics
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_cache_lookups_total",
			Help: "Fetch cache lookups",
		},
		[]string{"result"}, // result: hit|miss
	)

	// Market API metrics
	APICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_market_api_calls_total",
			Help: "Outbound market data API calls",
		},
		[]string{"endpoint", "status"}, // status: success|error|rate_limited
	)

	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracker_market_api_latency_seconds",
			Help:    "Market data API latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"endpoint"},
	)

	// Ledger metrics
	Trades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_trades_total",
			Help: "Simulated trades by side and result",
		},
		[]string{"side", "result"}, // result: filled|rejected
	)

	// Alert metrics
	AlertsTriggered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_alerts_triggered_total",
			Help: "Price alerts that fired",
		},
	)

	ActiveAlerts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_alerts_active",
			Help: "Price alerts still waiting to fire",
		},
	)

	// Poll loop metrics
	PollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracker_poll_duration_seconds",
			Help:    "Duration of one poll cycle",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(
		CacheLookups,
		APICalls,
		APILatency,
		Trades,
		AlertsTriggered,
		ActiveAlerts,
		PollDuration,
	)
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("Metrics endpoint listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.L().Error("Metrics endpoint stopped", zap.Error(err))
	}
}
