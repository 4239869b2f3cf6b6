package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ReviewSubmitted(application.SubmitResultOK)
	m.ReviewSubmitted(application.SubmitResultOK)
	m.ReviewSubmitted(application.SubmitResultConflict)
	m.TransactionConflict()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reviewsSubmitted.WithLabelValues(application.SubmitResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reviewsSubmitted.WithLabelValues(application.SubmitResultConflict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactionConflict))
}

func TestSubscriptionGauge(t *testing.T) {
	m := New()

	m.SubscriptionOpened(application.SubscriptionRestaurants)
	m.SubscriptionOpened(application.SubscriptionRestaurants)
	m.SubscriptionClosed(application.SubscriptionRestaurants)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeSubscriptions.WithLabelValues(application.SubscriptionRestaurants)))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.HTTPRequest("/restaurants", "2xx")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `friendlyeats_http_requests_total{code="2xx",route="/restaurants"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
