package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMiddleware returns a chi compatible middleware that counts
// requests, observes their latency and tracks response codes.
func (m *Metrics) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.httpRequests.Inc()

			sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(sw, r)

			m.httpLatency.Observe(time.Since(start).Seconds())
			m.recordHTTPStatus(sw.code)
		})
	}
}

// recordHTTPStatus bumps the counter for the status code, creating and
// registering it on first sight.
func (m *Metrics) recordHTTPStatus(code int) {
	m.mu.Lock()
	c, ok := m.httpByCode[code]
	if !ok {
		c = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      fmt.Sprintf("http_responses_%d_total", code),
			Help:      fmt.Sprintf("HTTP %s responses returned", http.StatusText(code)),
		})
		m.reg.MustRegister(c)
		m.httpByCode[code] = c
	}
	m.mu.Unlock()
	c.Inc()
}

// statusWriter captures the response code written by the handler chain.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
