// Package metrics holds the Prometheus collectors for the tides service.
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
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tides_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tides_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.2, 0.4, 0.8, 1.0, 2.0, 4.0},
		},
		[]string{"path", "method"},
	)

	unresolvedConstituentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tides_unresolved_constituents_total",
			Help: "Constituents supplied by a station that the registry could not resolve.",
		},
		[]string{"constituent"},
	)

	stationLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tides_station_loads_total",
			Help: "Station harmonic loads by query kind and result.",
		},
		[]string{"kind", "result"},
	)

	predictionPoints = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tides_prediction_points",
			Help:    "Number of samples per prediction series.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 6),
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		unresolvedConstituentsTotal,
		stationLoadsTotal,
		predictionPoints,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and duration. Routes are labelled by
// their registered pattern to keep label cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		code := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(path, c.Request.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// ObserveUnresolved counts constituent names that contributed nothing.
func ObserveUnresolved(names []string) {
	for _, name := range names {
		unresolvedConstituentsTotal.WithLabelValues(name).Inc()
	}
}

// ObserveStationLoad counts a station lookup. kind is "station" or "location".
func ObserveStationLoad(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	stationLoadsTotal.WithLabelValues(kind, result).Inc()
}

// ObservePredictionPoints records the size of a generated series.
func ObservePredictionPoints(n int) {
	predictionPoints.Observe(float64(n))
}
