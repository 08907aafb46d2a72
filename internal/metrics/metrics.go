package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry. All recording methods are safe on a nil
// receiver so callers can run without metrics.
type Metrics struct {
	registry         *prometheus.Registry
	ordersCreated    *prometheus.CounterVec
	orderRevenue     prometheus.Counter
	refunds          *prometheus.CounterVec
	refundAmount     prometheus.Counter
	stockAdjustments *prometheus.CounterVec
	importRows       *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "posadmin_orders_created_total",
			Help: "Orders saved at checkout, by initial status.",
		}, []string{"status"}),
		orderRevenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "posadmin_order_revenue_total",
			Help: "Sum of completed order totals.",
		}),
		refunds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "posadmin_refunds_total",
			Help: "Refunds processed, by resulting order status.",
		}, []string{"status"}),
		refundAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "posadmin_refund_amount_total",
			Help: "Sum of refunded amounts.",
		}),
		stockAdjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "posadmin_stock_adjustments_total",
			Help: "Inventory ledger entries appended, by reason.",
		}, []string{"reason"}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "posadmin_import_rows_total",
			Help: "Rows read by imports, by entity and result.",
		}, []string{"entity", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "posadmin_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "posadmin_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ordersCreated, m.orderRevenue, m.refunds, m.refundAmount,
		m.stockAdjustments, m.importRows, m.httpRequests, m.httpDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) OrderCreated(status string, total float64, completed bool) {
	if m == nil {
		return
	}
	m.ordersCreated.WithLabelValues(status).Inc()
	if completed && total > 0 {
		m.orderRevenue.Add(total)
	}
}

func (m *Metrics) RefundProcessed(status string, amount float64) {
	if m == nil {
		return
	}
	m.refunds.WithLabelValues(status).Inc()
	if amount > 0 {
		m.refundAmount.Add(amount)
	}
}

func (m *Metrics) StockAdjusted(reason string) {
	if m == nil {
		return
	}
	m.stockAdjustments.WithLabelValues(reason).Inc()
}

func (m *Metrics) ImportRows(entity string, result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importRows.WithLabelValues(entity, result).Add(float64(n))
}

func (m *Metrics) ObserveHTTP(route string, method string, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, code).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
