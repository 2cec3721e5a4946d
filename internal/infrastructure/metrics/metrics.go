package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/walletledger/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction engine metrics
	Transactions        *prometheus.CounterVec
	TransactionDuration *prometheus.HistogramVec
	IdempotencyReplays  prometheus.Counter
	CacheErrors         *prometheus.CounterVec

	// Wallet metrics
	WalletsCreated prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates all Prometheus metrics and registers them with reg.
// A nil reg registers with the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_transactions_total",
				Help: "Credit and debit attempts by outcome",
			},
			[]string{"direction", "outcome"},
		),
		TransactionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletledger_transaction_duration_seconds",
				Help:    "Duration of credit and debit executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"direction"},
		),
		IdempotencyReplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_idempotency_replays_total",
			Help: "Executions answered from the idempotency cache",
		}),
		CacheErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_idempotency_cache_errors_total",
				Help: "Idempotency cache failures by operation",
			},
			[]string{"operation"},
		),

		WalletsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_wallets_created_total",
			Help: "Total number of wallets created",
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}
}

// ObserveTransaction implements usecase.Metrics.
func (m *Metrics) ObserveTransaction(direction domain.Direction, outcome string, elapsed time.Duration) {
	m.Transactions.WithLabelValues(string(direction), outcome).Inc()
	if elapsed > 0 {
		m.TransactionDuration.WithLabelValues(string(direction)).Observe(elapsed.Seconds())
	}
}

// IncIdempotencyReplay implements usecase.Metrics.
func (m *Metrics) IncIdempotencyReplay() {
	m.IdempotencyReplays.Inc()
}

// IncCacheError implements usecase.Metrics.
func (m *Metrics) IncCacheError(operation string) {
	m.CacheErrors.WithLabelValues(operation).Inc()
}

// IncWalletsCreated implements usecase.Metrics.
func (m *Metrics) IncWalletsCreated() {
	m.WalletsCreated.Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// IncRateLimitHit records one rejected request.
func (m *Metrics) IncRateLimitHit() {
	m.RateLimitHits.Inc()
}
