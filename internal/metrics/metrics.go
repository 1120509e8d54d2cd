package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyhub",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "studyhub",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	ChatMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyhub",
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Chat messages by outcome.",
		},
		[]string{"outcome"},
	)

	ChatConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "studyhub",
			Subsystem: "chat",
			Name:      "connections",
			Help:      "Websocket connections currently joined to a room.",
		},
	)

	ChatRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "studyhub",
			Subsystem: "chat",
			Name:      "rooms",
			Help:      "Rooms with at least one connection.",
		},
	)
)

const (
	OutcomeDelivered     = "delivered"
	OutcomePersistFailed = "persist_failed"
	OutcomeEmpty         = "empty"
	OutcomeDropped       = "dropped"
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		ChatMessages,
		ChatConnections,
		ChatRooms,
		prometheus.NewGoCollector(),
	)
}

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
