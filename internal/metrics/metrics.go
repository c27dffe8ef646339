// Package metrics exposes the service's Prometheus collectors
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ayudasocial"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// SolicitudTransiciones counts committed state changes of requests
	SolicitudTransiciones = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solicitud_transiciones_total",
			Help:      "Committed solicitud state transitions",
		},
		[]string{"desde", "hacia"},
	)

	// StockMovimientos counts committed stock movements by type
	StockMovimientos = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movimientos_total",
			Help:      "Committed product stock movements",
		},
		[]string{"tipo"},
	)

	registerOnce sync.Once
)

// Register adds the collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal, HTTPRequestDuration, SolicitudTransiciones, StockMovimientos)
	})
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency per route template
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

func RecordTransicion(desde, hacia string) {
	SolicitudTransiciones.WithLabelValues(desde, hacia).Inc()
}

func RecordMovimiento(tipo string) {
	StockMovimientos.WithLabelValues(tipo).Inc()
}
