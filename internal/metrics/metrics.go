// Package metrics holds the Prometheus collectors of the marketplace and
// the echo middleware that feeds the HTTP ones.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds every collector exposed on /metrics.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nft_bank",
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nft_bank",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nft_bank",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "route"})

	mints = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nft_bank",
		Subsystem: "catalog",
		Name:      "mints_total",
		Help:      "NFTs minted, by collection kind and whether a fee was charged.",
	}, []string{"kind", "paid"})

	transfers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nft_bank",
		Subsystem: "catalog",
		Name:      "transfers_total",
		Help:      "Ownership changes, by transfer type.",
	}, []string{"type"})

	events = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nft_bank",
		Subsystem: "queue",
		Name:      "events_total",
		Help:      "Transfer events by direction and outcome.",
	}, []string{"direction", "result"})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		mints,
		transfers,
		events,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes Registry in the Prometheus text format.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}

// Middleware records request counts and latency labelled by the matched
// route template, so /api/nft/:id/history stays a single series.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}
			httpInFlight.Inc()
			start := time.Now()
			err := next(c)
			httpInFlight.Dec()

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// RecordMint counts a minted NFT.
func RecordMint(kind string, paid bool) {
	if kind == "" {
		kind = "none"
	}
	mints.WithLabelValues(kind, strconv.FormatBool(paid)).Inc()
}

// RecordTransfer counts a committed sale or gift.
func RecordTransfer(transferType string) {
	transfers.WithLabelValues(transferType).Inc()
}

// RecordEvent counts a published or consumed transfer event.
func RecordEvent(direction string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	events.WithLabelValues(direction, result).Inc()
}
