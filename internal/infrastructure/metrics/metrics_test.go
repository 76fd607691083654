package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/infrastructure/postgres"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	registry := prometheus.NewRegistry()
	return NewWithRegistry(registry, registry)
}

func TestNewWithRegistryRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry, registry)

	if m.TransactionsPosted == nil || m.HTTPRequests == nil || m.StoreState == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.TransactionRejected("validation")

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestTransactionPosted(t *testing.T) {
	m := newTestMetrics(t)

	m.TransactionPosted(domain.DirectionCredit, decimal.NewFromInt(150), 20*time.Millisecond)
	m.TransactionPosted(domain.DirectionCredit, decimal.NewFromInt(50), 10*time.Millisecond)
	m.TransactionPosted(domain.DirectionDebit, decimal.NewFromInt(80), 10*time.Millisecond)

	if got := testutil.ToFloat64(m.TransactionsPosted.WithLabelValues(string(domain.DirectionCredit))); got != 2 {
		t.Fatalf("expected 2 credits, got %v", got)
	}
	if got := testutil.ToFloat64(m.TransactionsPosted.WithLabelValues(string(domain.DirectionDebit))); got != 1 {
		t.Fatalf("expected 1 debit, got %v", got)
	}
	if got := testutil.CollectAndCount(m.PostingDuration); got != 1 {
		t.Fatalf("expected one duration series, got %d", got)
	}
}

func TestAccountNosRewritten(t *testing.T) {
	m := newTestMetrics(t)

	m.AccountNosRewritten("bank_rename", 3)
	m.AccountNosRewritten("bank_rename", 2)

	if got := testutil.ToFloat64(m.AccountNosRewrittenTotal.WithLabelValues("bank_rename")); got != 5 {
		t.Fatalf("expected 5 rewrites, got %v", got)
	}
}

func TestSetStoreState(t *testing.T) {
	m := newTestMetrics(t)

	m.SetStoreState(postgres.StateConnecting)
	m.SetStoreState(postgres.StateReady)

	if got := testutil.ToFloat64(m.StoreState.WithLabelValues("ready")); got != 1 {
		t.Fatalf("expected ready gauge to be 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.StoreState.WithLabelValues("connecting")); got != 0 {
		t.Fatalf("expected connecting gauge to be 0, got %v", got)
	}
	if got := testutil.ToFloat64(m.StoreStateTransitions.WithLabelValues("ready")); got != 1 {
		t.Fatalf("expected one transition to ready, got %v", got)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	m := newTestMetrics(t)
	m.ObserveHTTP(http.MethodGet, "/api/banks", http.StatusOK, time.Millisecond)
	m.RateLimited("/api/banks")

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{"cashbook_http_requests_total", "cashbook_rate_limit_hits_total"} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s in exposition", name)
		}
	}
}
