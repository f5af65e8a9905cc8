package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keepfit",
		Subsystem: "repository",
		Name:      "cache_hits_total",
		Help:      "Number of repository reads served from the in-memory cache.",
	}, []string{"entity"})
	cacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keepfit",
		Subsystem: "repository",
		Name:      "cache_misses_total",
		Help:      "Number of repository reads that fell through to the store.",
	}, []string{"entity"})
	checkinPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "keepfit",
		Subsystem: "persistence",
		Name:      "last_checkin_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent check-in persisted to the store.",
	})
)

func init() {
	prometheus.MustRegister(cacheHits, cacheMisses, checkinPersistGauge)
}

// RecordCacheHit counts a repository read answered by the cache.
func RecordCacheHit(entity string) {
	cacheHits.WithLabelValues(entity).Inc()
}

// RecordCacheMiss counts a repository read that reached the store.
func RecordCacheMiss(entity string) {
	cacheMisses.WithLabelValues(entity).Inc()
}

// RecordCheckinPersisted updates the persistence watermark gauge.
func RecordCheckinPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	checkinPersistGauge.Set(float64(ts.Unix()))
}
