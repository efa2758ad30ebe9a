package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.RequestSubmitted("deposit")
	m.RequestSubmitted("deposit")
	m.RequestResolved("withdrawal", "approved")
	m.LedgerEntry("referral")
	m.ReconcileChecked(4)
	m.ReconcileMismatches(1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsSubmitted.WithLabelValues("deposit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsResolved.WithLabelValues("withdrawal", "approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ledgerEntries.WithLabelValues("referral")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.reconcileChecked))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconcileMismatch))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), "playcash_money_requests_submitted_total")
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RequestSubmitted("deposit")
		m.RequestResolved("deposit", "rejected")
		m.LedgerEntry("bonus")
		m.ReconcileChecked(1)
		m.ReconcileMismatches(0)
	})
}
