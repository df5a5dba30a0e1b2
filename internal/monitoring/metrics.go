package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

// metricsSubsystem prefixes the advisory-specific collectors so they stay
// distinguishable from the generic HTTP counters.
const metricsSubsystem = "advisor"

// DomainMetrics holds the advisory-specific Prometheus collectors. All
// methods are nil-receiver safe, so instrumented code paths need no
// guards when metrics are disabled.
type DomainMetrics struct {
	queriesTotal       prometheus.Counter
	locationSeverities *prometheus.CounterVec
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	breakerTransitions *prometheus.CounterVec
}

// NewDomainMetrics creates the collectors without registering them.
// Register them through Collectors on whichever registry serves /metrics.
func NewDomainMetrics() *DomainMetrics {
	return &DomainMetrics{
		queriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: metricsSubsystem,
			Name:      "queries_total",
			Help:      "Advisory queries answered",
		}),
		locationSeverities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: metricsSubsystem,
			Name:      "location_assessments_total",
			Help:      "Assessed locations by overall risk severity",
		}, []string{"severity"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: metricsSubsystem,
			Name:      "snapshot_cache_hits_total",
			Help:      "Snapshot cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: metricsSubsystem,
			Name:      "snapshot_cache_misses_total",
			Help:      "Snapshot cache misses",
		}),
		breakerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: metricsSubsystem,
			Name:      "breaker_transitions_total",
			Help:      "Condition source circuit breaker state changes",
		}, []string{"from", "to"}),
	}
}

// Collectors returns every collector for registration.
func (m *DomainMetrics) Collectors() []prometheus.Collector {
	if m == nil {
		return nil
	}
	return []prometheus.Collector{
		m.queriesTotal,
		m.locationSeverities,
		m.cacheHits,
		m.cacheMisses,
		m.breakerTransitions,
	}
}

// QueryAnswered counts one completed advisory query.
func (m *DomainMetrics) QueryAnswered() {
	if m == nil {
		return
	}
	m.queriesTotal.Inc()
}

// LocationAssessed counts one assessed location under its overall
// severity.
func (m *DomainMetrics) LocationAssessed(severity string) {
	if m == nil {
		return
	}
	m.locationSeverities.WithLabelValues(severity).Inc()
}

// CacheHit counts a snapshot cache hit.
func (m *DomainMetrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// CacheMiss counts a snapshot cache miss.
func (m *DomainMetrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// BreakerStateChange records a circuit breaker transition. The signature
// matches the Open-Meteo client's OnBreakerChange hook.
func (m *DomainMetrics) BreakerStateChange(name string, from, to gobreaker.State) {
	if m == nil {
		return
	}
	m.breakerTransitions.WithLabelValues(from.String(), to.String()).Inc()
}
