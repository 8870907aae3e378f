package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry             *prometheus.Registry
	transfersProcessed   prometheus.Counter
	transfersFailed      *prometheus.CounterVec
	transferDuration     prometheus.Histogram
	transferAmount       prometheus.Histogram
	notificationsEmitted prometheus.Counter
	httpRequests         *prometheus.CounterVec
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		transfersProcessed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "transfers_processed_total",
			Help: "Total number of committed transfers",
		}),
		transfersFailed: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "transfers_failed_total",
			Help: "Total number of failed transfers by reason",
		}, []string{"reason"}),
		transferDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "transfer_duration_seconds",
			Help:    "Time taken to execute a transfer",
			Buckets: prometheus.DefBuckets,
		}),
		transferAmount: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "transfer_amount_minor_units",
			Help:    "Distribution of transfer amounts in minor units",
			Buckets: prometheus.ExponentialBuckets(100, 10, 7),
		}),
		notificationsEmitted: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "notifications_emitted_total",
			Help: "Total number of notification records written",
		}),
		httpRequests: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method and status",
		}, []string{"method", "status"}),
	}
}

func (c *Collector) TransferProcessed(amountMinor int64, durationSeconds float64) {
	c.transfersProcessed.Inc()
	c.transferAmount.Observe(float64(amountMinor))
	c.transferDuration.Observe(durationSeconds)
}

func (c *Collector) TransferFailed(reason string) {
	c.transfersFailed.WithLabelValues(reason).Inc()
}

func (c *Collector) NotificationEmitted() {
	c.notificationsEmitted.Inc()
}

func (c *Collector) HTTPRequest(method, status string) {
	c.httpRequests.WithLabelValues(method, status).Inc()
}

// Handler serves the registry for scraping.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
