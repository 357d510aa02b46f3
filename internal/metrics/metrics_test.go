package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.CodeIssued()
	m.CodeIssued()
	m.CodeRedeemed()
	m.CodeRejected("expired")
	m.MailSent("contact", nil)
	m.MailSent("report", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authCodes.WithLabelValues("issued", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authCodes.WithLabelValues("redeemed", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authCodes.WithLabelValues("rejected", "expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mails.WithLabelValues("report", "error")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, "/healthz", http.StatusOK, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `topick_http_request_duration_seconds_count{method="GET",route="/healthz",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
