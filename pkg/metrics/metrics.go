// Package metrics exposes Prometheus instrumentation for the service's
// HTTP and gRPC surfaces together with a standalone scrape endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/enviweather/envi-advisor/pkg/logger"
)

// subsystem prefixes every collector created by this package. Domain
// collectors registered through AddCustomMetric carry their own prefix.
const subsystem = "service"

var latencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metrics owns a private Prometheus registry and the request instruments
// registered on it. Response-code counters are created lazily on first
// use, so only codes the service actually returned show up in scrapes.
type Metrics struct {
	reg *prometheus.Registry
	log logger.Logger

	httpRequests prometheus.Counter
	httpLatency  prometheus.Histogram
	grpcRequests prometheus.Counter
	grpcLatency  prometheus.Histogram

	mu         sync.Mutex
	httpByCode map[int]prometheus.Counter
	grpcByCode map[int]prometheus.Counter

	stop chan struct{}
	done chan error
}

// NewMetrics builds a Metrics instance backed by its own registry. The
// booleans select which request instruments get created; instruments for
// a disabled surface stay nil, so its middleware must not be installed.
func NewMetrics(httpCounters, grpcCounters bool, l logger.Logger) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		log: l,
	}
	if httpCounters {
		m.httpRequests = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "http_requests_total",
			Help:      "HTTP requests received",
		})
		m.httpLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   latencyBuckets,
		})
		m.httpByCode = make(map[int]prometheus.Counter)
		m.reg.MustRegister(m.httpRequests, m.httpLatency)
	}
	if grpcCounters {
		m.grpcRequests = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "grpc_requests_total",
			Help:      "gRPC requests received",
		})
		m.grpcLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "grpc_request_duration_seconds",
			Help:      "gRPC request latency in seconds",
			Buckets:   latencyBuckets,
		})
		m.grpcByCode = make(map[int]prometheus.Counter)
		m.reg.MustRegister(m.grpcRequests, m.grpcLatency)
	}
	return m
}

// AddCustomMetric registers an additional collector on the scrape
// registry. Panics on duplicate registration, same as MustRegister.
func (m *Metrics) AddCustomMetric(c prometheus.Collector) {
	m.reg.MustRegister(c)
}

// Listen serves the /metrics scrape endpoint on its own port. The
// returned channel receives listener failures and is closed once the
// listener has stopped; a clean Stop closes it without an error.
func (m *Metrics) Listen(port int) chan error {
	m.log.Info("Starting metrics listener", logger.IntField("port", port))

	mux := http.NewServeMux()
	mux.Handle("/", http.NotFoundHandler())
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	m.stop = make(chan struct{})
	m.done = make(chan error, 1)
	go func() {
		defer close(m.done)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.done <- err
		}
	}()
	go func() {
		<-m.stop
		m.log.Info("Stopping metrics listener")
		_ = server.Shutdown(context.Background())
	}()
	return m.done
}

// Stop shuts the scrape endpoint down. Calling Stop without a prior
// Listen is a no-op.
func (m *Metrics) Stop() {
	if m.stop != nil {
		close(m.stop)
	}
}
