package metrics

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/enviweather/envi-advisor/pkg/logger"
)

func testLogger() logger.Logger {
	return logger.NewLogger(logger.Config{Level: logger.DebugLevel, Output: io.Discard})
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

// scrape fetches a path from the listener, retrying until it comes up.
func scrape(t *testing.T, port int, path string) (int, string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(fmt.Sprintf("http://localhost:%d%s", port, path))
		if err != nil {
			if time.Now().After(deadline) {
				t.Fatalf("metrics listener never came up: %v", err)
			}
			time.Sleep(20 * time.Millisecond)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		return resp.StatusCode, string(body)
	}
}

func TestListenServesScrapes(t *testing.T) {
	expected := `# HELP service_grpc_request_duration_seconds gRPC request latency in seconds
# TYPE service_grpc_request_duration_seconds histogram
service_grpc_request_duration_seconds_bucket{le="0.05"} 0
service_grpc_request_duration_seconds_bucket{le="0.1"} 0
service_grpc_request_duration_seconds_bucket{le="0.25"} 0
service_grpc_request_duration_seconds_bucket{le="0.5"} 0
service_grpc_request_duration_seconds_bucket{le="1"} 0
service_grpc_request_duration_seconds_bucket{le="2.5"} 0
service_grpc_request_duration_seconds_bucket{le="5"} 0
service_grpc_request_duration_seconds_bucket{le="10"} 0
service_grpc_request_duration_seconds_bucket{le="+Inf"} 0
service_grpc_request_duration_seconds_sum 0
service_grpc_request_duration_seconds_count 0
# HELP service_grpc_requests_total gRPC requests received
# TYPE service_grpc_requests_total counter
service_grpc_requests_total 0
# HELP service_grpc_responses_0_total gRPC OK responses returned
# TYPE service_grpc_responses_0_total counter
service_grpc_responses_0_total 3
# HELP service_grpc_responses_14_total gRPC Unavailable responses returned
# TYPE service_grpc_responses_14_total counter
service_grpc_responses_14_total 2
# HELP service_http_request_duration_seconds HTTP request latency in seconds
# TYPE service_http_request_duration_seconds histogram
service_http_request_duration_seconds_bucket{le="0.05"} 0
service_http_request_duration_seconds_bucket{le="0.1"} 0
service_http_request_duration_seconds_bucket{le="0.25"} 0
service_http_request_duration_seconds_bucket{le="0.5"} 0
service_http_request_duration_seconds_bucket{le="1"} 0
service_http_request_duration_seconds_bucket{le="2.5"} 0
service_http_request_duration_seconds_bucket{le="5"} 0
service_http_request_duration_seconds_bucket{le="10"} 0
service_http_request_duration_seconds_bucket{le="+Inf"} 0
service_http_request_duration_seconds_sum 0
service_http_request_duration_seconds_count 0
# HELP service_http_requests_total HTTP requests received
# TYPE service_http_requests_total counter
service_http_requests_total 0
# HELP service_http_responses_200_total HTTP OK responses returned
# TYPE service_http_responses_200_total counter
service_http_responses_200_total 3
# HELP service_http_responses_503_total HTTP Service Unavailable responses returned
# TYPE service_http_responses_503_total counter
service_http_responses_503_total 2
`

	port := freePort(t)
	m := NewMetrics(true, true, testLogger())
	done := m.Listen(port)

	for i := 0; i < 3; i++ {
		m.recordHTTPStatus(http.StatusOK)
		m.recordGrpcStatus(codes.OK)
	}
	for i := 0; i < 2; i++ {
		m.recordHTTPStatus(http.StatusServiceUnavailable)
		m.recordGrpcStatus(codes.Unavailable)
	}

	code, body := scrape(t, port, "/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, expected, body)

	code, _ = scrape(t, port, "/")
	assert.Equal(t, http.StatusNotFound, code)

	m.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestListenReportsBindFailure(t *testing.T) {
	port := freePort(t)

	first := NewMetrics(false, false, testLogger())
	first.Listen(port)
	defer first.Stop()
	code, _ := scrape(t, port, "/metrics")
	require.Equal(t, http.StatusOK, code)

	second := NewMetrics(false, false, testLogger())
	done := second.Listen(port)
	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a bind failure")
	}
}

func TestAddCustomMetric(t *testing.T) {
	before := `# HELP advisor_reports_archived_total Reports written to the archive
# TYPE advisor_reports_archived_total counter
advisor_reports_archived_total 0
# HELP advisor_sessions_active Sessions holding recorded history
# TYPE advisor_sessions_active gauge
advisor_sessions_active 0
`
	after := `# HELP advisor_reports_archived_total Reports written to the archive
# TYPE advisor_reports_archived_total counter
advisor_reports_archived_total 1
# HELP advisor_sessions_active Sessions holding recorded history
# TYPE advisor_sessions_active gauge
advisor_sessions_active 12
`

	archived := prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: "advisor",
		Name:      "reports_archived_total",
		Help:      "Reports written to the archive",
	})
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Subsystem: "advisor",
		Name:      "sessions_active",
		Help:      "Sessions holding recorded history",
	})

	port := freePort(t)
	m := NewMetrics(false, false, testLogger())
	m.AddCustomMetric(archived)
	m.AddCustomMetric(active)
	m.Listen(port)
	defer m.Stop()

	code, body := scrape(t, port, "/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, before, body)

	archived.Inc()
	active.Set(12)

	code, body = scrape(t, port, "/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, after, body)
}

func TestHTTPMiddleware(t *testing.T) {
	m := NewMetrics(true, false, testLogger())
	handler := m.HTTPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/advice" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"locations":[]}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))

	t.Run("tracks success codes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/advice", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, m.httpByCode, http.StatusOK)
	})

	t.Run("tracks failure codes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/broken", nil))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, m.httpByCode, http.StatusBadGateway)
	})

	t.Run("defaults to 200 when the handler never sets a status", func(t *testing.T) {
		quiet := m.HTTPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
		rec := httptest.NewRecorder()
		quiet.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quiet", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, m.httpByCode, http.StatusOK)
	})
}

func TestGrpcRequestsInterceptor(t *testing.T) {
	m := NewMetrics(false, true, testLogger())
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	t.Run("passes responses through", func(t *testing.T) {
		resp, err := m.GrpcRequestsInterceptor(context.Background(), struct{}{}, info,
			func(ctx context.Context, req interface{}) (interface{}, error) {
				return "serving", nil
			})

		require.NoError(t, err)
		assert.Equal(t, "serving", resp)
		assert.Contains(t, m.grpcByCode, int(codes.OK))
	})

	t.Run("maps handler errors to status codes", func(t *testing.T) {
		resp, err := m.GrpcRequestsInterceptor(context.Background(), struct{}{}, info,
			func(ctx context.Context, req interface{}) (interface{}, error) {
				return nil, status.Error(codes.NotFound, "no such session")
			})

		require.Error(t, err)
		assert.Nil(t, resp)
		assert.Contains(t, m.grpcByCode, int(codes.NotFound))
	})
}

func TestStatusWriter(t *testing.T) {
	t.Run("captures an explicit status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		w := &statusWriter{ResponseWriter: rec, code: http.StatusOK}

		w.WriteHeader(http.StatusTooManyRequests)

		assert.Equal(t, http.StatusTooManyRequests, w.code)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("keeps the default when only the body is written", func(t *testing.T) {
		rec := httptest.NewRecorder()
		w := &statusWriter{ResponseWriter: rec, code: http.StatusOK}

		_, err := w.Write([]byte("body"))

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, w.code)
	})
}

func TestStopWithoutListen(t *testing.T) {
	m := NewMetrics(false, false, testLogger())
	m.Stop()
}
