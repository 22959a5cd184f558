// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RedemptionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fuelanchor_redemptions_total",
		Help: "Total number of committed redemptions",
	})
	RedemptionRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fuelanchor_redemption_rejections_total",
		Help: "Rejected redemptions by error code",
	}, []string{"code"})
	RedemptionAmount = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fuelanchor_redemption_amount",
		Help:    "Redeemed credit amount (fixed-point, 7 decimals)",
		Buckets: prometheus.ExponentialBuckets(1_000_000, 4, 10),
	})
	QuotaTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fuelanchor_quota_transitions_total",
		Help: "Driver quota state transitions observed during redemptions",
	}, []string{"state"})
	ZoneValidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fuelanchor_zone_validations_total",
		Help: "Zone and corridor validations by kind and result",
	}, []string{"kind", "result"})
	StationCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fuelanchor_station_cache_hits_total",
		Help: "Station reads served from Redis",
	})
	StationCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fuelanchor_station_cache_misses_total",
		Help: "Station reads that fell through to the store",
	})
	EventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fuelanchor_events_published_total",
		Help: "Events published to the stream by type and status",
	}, []string{"type", "status"})
	HTTPRequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fuelanchor_http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(RedemptionsTotal)
	prometheus.MustRegister(RedemptionRejectionsTotal)
	prometheus.MustRegister(RedemptionAmount)
	prometheus.MustRegister(QuotaTransitionsTotal)
	prometheus.MustRegister(ZoneValidationsTotal)
	prometheus.MustRegister(StationCacheHitsTotal)
	prometheus.MustRegister(StationCacheMissesTotal)
	prometheus.MustRegister(EventsPublishedTotal)
	prometheus.MustRegister(HTTPRequestDurationMs)
}

// Handler exposes the registered collectors for scraping.
func Handler() http.Handler { return promhttp.Handler() }
