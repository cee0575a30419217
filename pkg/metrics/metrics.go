package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensei_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sensei_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Business metrics
	TradesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensei_trades_total",
			Help: "Total number of executed trades",
		},
		[]string{"type", "status"},
	)

	TradeValue = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sensei_trade_value_usd",
			Help:    "Trade values in virtual USD",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000, 100000},
		},
		[]string{"type"},
	)

	XPAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensei_xp_awarded_total",
			Help: "Total experience points awarded",
		},
		[]string{"source"}, // trade, achievement
	)

	AchievementUnlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensei_achievement_unlocks_total",
			Help: "Total achievement unlocks",
		},
		[]string{"tier"},
	)

	// External service metrics
	ExternalAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensei_external_api_calls_total",
			Help: "Total calls to external APIs",
		},
		[]string{"service", "endpoint", "status"},
	)

	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensei_cache_operations_total",
			Help: "Cache operations by result",
		},
		[]string{"operation", "result"}, // get/set, hit/miss/error
	)
)

// RecordTrade records metrics for an executed trade
func RecordTrade(tradeType, status string, valueUSD float64) {
	TradesTotal.WithLabelValues(tradeType, status).Inc()
	if status == "success" {
		TradeValue.WithLabelValues(tradeType).Observe(valueUSD)
	}
}

// RecordXP records awarded experience points
func RecordXP(source string, amount int64) {
	XPAwardedTotal.WithLabelValues(source).Add(float64(amount))
}

// RecordUnlock records an achievement unlock
func RecordUnlock(tier string) {
	AchievementUnlocksTotal.WithLabelValues(tier).Inc()
}
