package logger

import (
	"context"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// statusRecorder captures the status code and byte count of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// HTTPMiddleware logs one entry when a request arrives and one when the
// response is written, both tagged with the request's correlation ID.
func (l *logrusLogger) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		r, correlationID := EnsureHTTPCorrelationID(r)

		requestLog := l.WithFields(
			ClientIPField(r.RemoteAddr),
			HTTPMethodField(r.Method),
			HTTPPathField(r.URL.Path),
			CorrelationIDField(correlationID),
		)

		requestLog.Info("HTTP request received")

		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		requestLog.WithFields(
			HTTPStatusField(rec.status),
			IntField("response_bytes", rec.bytes),
			DurationField("duration", time.Since(start)),
		).Info("HTTP response sent")
	})
}

// GrpcRequestsInterceptor is a unary server interceptor that logs request
// start and completion with the gRPC status code. The interface{} parameters
// match the signature grpc.UnaryServerInterceptor requires.
func (l *logrusLogger) GrpcRequestsInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()

	ctx, correlationID := EnsureCorrelationID(ctx)

	requestLog := l.WithFields(
		StringField("grpc_method", info.FullMethod),
		CorrelationIDField(correlationID),
	)

	requestLog.Info("gRPC request started")

	resp, err := handler(ctx, req)

	code := status.Code(err)
	fields := []LogField{
		DurationField("duration", time.Since(start)),
		StringField("grpc_code", code.String()),
		IntField("grpc_code_int", int(code)),
	}

	if err != nil {
		requestLog.Error("gRPC request completed with error", fields...)
	} else {
		requestLog.Info("gRPC request completed successfully", fields...)
	}

	return resp, err
}
