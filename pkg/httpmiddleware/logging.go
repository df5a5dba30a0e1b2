package httpmiddleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/enviweather/envi-advisor/pkg/logger"
)

// HTTPLogger logs one entry per request and one per response, both
// carrying the correlation ID the CorrelationID middleware assigned.
type HTTPLogger struct {
	log logger.Logger
}

// NewHTTPLogger wraps the logger for use as request middleware.
func NewHTTPLogger(log logger.Logger) *HTTPLogger {
	return &HTTPLogger{log: log}
}

// Middleware is the chi middleware entry point.
func (h *HTTPLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestLog := h.RequestLogger(r)
		requestLog.Info("HTTP request received")

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		requestLog.WithFields(
			logger.HTTPStatusField(ww.Status()),
			logger.IntField("response_bytes", ww.BytesWritten()),
			logger.DurationField("duration", time.Since(start)),
		).Info("HTTP response sent")
	})
}

// RequestLogger returns a logger tagged with the request's method, path,
// client address and correlation ID, for use inside handlers.
func (h *HTTPLogger) RequestLogger(r *http.Request) logger.Logger {
	return h.log.WithFields(
		logger.ClientIPField(r.RemoteAddr),
		logger.HTTPMethodField(r.Method),
		logger.HTTPPathField(r.URL.Path),
		logger.CorrelationIDField(r.Header.Get("X-Correlation-ID")),
	)
}
