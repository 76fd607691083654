package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/infrastructure/postgres"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	gatherer prometheus.Gatherer

	// Ledger metrics
	TransactionsPosted   *prometheus.CounterVec
	TransactionsRejected *prometheus.CounterVec
	PostingDuration      prometheus.Histogram
	PostingAmount        *prometheus.HistogramVec

	// Cascade metrics
	AccountNosRewrittenTotal *prometheus.CounterVec

	// Store metrics
	StoreState            *prometheus.GaugeVec
	StoreStateTransitions *prometheus.CounterVec

	// API metrics
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New registers all metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewWithRegistry registers all metrics with reg. Tests pass a fresh
// prometheus.NewRegistry as both arguments.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: gatherer,

		TransactionsPosted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashbook_transactions_posted_total",
				Help: "Total number of committed ledger postings",
			},
			[]string{"direction"},
		),
		TransactionsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashbook_transactions_rejected_total",
				Help: "Total number of rejected ledger postings",
			},
			[]string{"reason"},
		),
		PostingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cashbook_posting_duration_seconds",
			Help:    "Duration of ledger postings including retries",
			Buckets: prometheus.DefBuckets,
		}),
		PostingAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cashbook_posting_amount",
				Help:    "Posted amounts",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"direction"},
		),

		AccountNosRewrittenTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashbook_account_numbers_rewritten_total",
				Help: "Account numbers rewritten by bank and branch renames",
			},
			[]string{"trigger"},
		),

		StoreState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cashbook_store_state",
				Help: "Current store connection state, 1 for the active state",
			},
			[]string{"state"},
		),
		StoreStateTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashbook_store_state_transitions_total",
				Help: "Store connection state transitions",
			},
			[]string{"state"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashbook_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cashbook_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cashbook_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashbook_rate_limit_hits_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"path"},
		),
	}
}

// TransactionPosted records a committed posting.
func (m *Metrics) TransactionPosted(direction domain.Direction, amount decimal.Decimal, duration time.Duration) {
	m.TransactionsPosted.WithLabelValues(string(direction)).Inc()
	m.PostingDuration.Observe(duration.Seconds())
	m.PostingAmount.WithLabelValues(string(direction)).Observe(amount.InexactFloat64())
}

// TransactionRejected records a rejected posting.
func (m *Metrics) TransactionRejected(reason string) {
	m.TransactionsRejected.WithLabelValues(reason).Inc()
}

// AccountNosRewritten records account numbers rewritten by a cascade.
func (m *Metrics) AccountNosRewritten(trigger string, count int) {
	m.AccountNosRewrittenTotal.WithLabelValues(trigger).Add(float64(count))
}

var storeStates = []postgres.State{
	postgres.StateDisconnected,
	postgres.StateConnecting,
	postgres.StateReady,
	postgres.StateFailed,
}

// SetStoreState marks state as the active store state. It matches
// postgres.ProviderOptions.OnStateChange.
func (m *Metrics) SetStoreState(state postgres.State) {
	for _, s := range storeStates {
		value := 0.0
		if s == state {
			value = 1
		}
		m.StoreState.WithLabelValues(s.String()).Set(value)
	}
	m.StoreStateTransitions.WithLabelValues(state.String()).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RateLimited records a request rejected by the limiter.
func (m *Metrics) RateLimited(path string) {
	m.RateLimitHits.WithLabelValues(path).Inc()
}

// Handler exposes the registry the metrics were registered with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
