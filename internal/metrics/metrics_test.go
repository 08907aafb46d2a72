package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.OrderCreated("completed", 12.5, true)
	m.OrderCreated("pending", 3, false)
	m.RefundProcessed("partial-refunded", 2.25)
	m.StockAdjusted("count")
	m.ImportRows("products", "skipped", 2)
	m.ImportRows("products", "added", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersCreated.WithLabelValues("completed")))
	assert.Equal(t, 12.5, testutil.ToFloat64(m.orderRevenue))
	assert.Equal(t, 2.25, testutil.ToFloat64(m.refundAmount))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stockAdjustments.WithLabelValues("count")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.importRows.WithLabelValues("products", "skipped")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.OrderCreated("completed", 1, true)
	m.ObserveHTTP("/x", "GET", "200", time.Millisecond)
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveHTTP("/api/v1/orders", "POST", "201", 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `posadmin_http_requests_total{code="201",method="POST",route="/api/v1/orders"} 1`))
}
