package logger

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"
)

const (
	// CorrelationIDMetadataKey carries the correlation ID in gRPC metadata.
	CorrelationIDMetadataKey = "x-correlation-id"
	// CorrelationIDFieldKey is the log field key for correlation IDs.
	CorrelationIDFieldKey = "correlation_id"
)

type contextKey string

const correlationIDContextKey contextKey = "correlation_id"

// WithCorrelationIDContext stores the correlation ID in the context.
func WithCorrelationIDContext(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDContextKey, correlationID)
}

// GetCorrelationIDFromContext returns the correlation ID stored in the
// context, or "" when none is present.
func GetCorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDContextKey).(string)
	return id
}

// ExtractCorrelationIDFromMetadata reads the correlation ID from incoming
// gRPC metadata, or "" when absent.
func ExtractCorrelationIDFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(CorrelationIDMetadataKey)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// InjectCorrelationIDIntoMetadata sets the correlation ID on outgoing gRPC
// metadata, copying any metadata already attached to the context.
func InjectCorrelationIDIntoMetadata(ctx context.Context, correlationID string) context.Context {
	md, ok := metadata.FromOutgoingContext(ctx)
	if ok {
		md = md.Copy()
	} else {
		md = metadata.New(nil)
	}
	md.Set(CorrelationIDMetadataKey, correlationID)
	return metadata.NewOutgoingContext(ctx, md)
}

// EnsureCorrelationID returns a context guaranteed to carry a correlation
// ID. It reuses an ID already in the context, then a valid UUID from gRPC
// metadata, and mints a fresh UUID otherwise.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if id := GetCorrelationIDFromContext(ctx); id != "" {
		return ctx, id
	}

	if id := ExtractCorrelationIDFromMetadata(ctx); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return WithCorrelationIDContext(ctx, id), id
		}
	}

	id := uuid.New().String()
	return WithCorrelationIDContext(ctx, id), id
}

// EnsureHTTPCorrelationID guarantees the request has a valid X-Correlation-ID
// header and that the ID is available from the request context. Invalid or
// missing header values are replaced with a fresh UUID.
func EnsureHTTPCorrelationID(r *http.Request) (*http.Request, string) {
	id := r.Header.Get("X-Correlation-ID")
	if _, err := uuid.Parse(id); id == "" || err != nil {
		id = uuid.New().String()
		r.Header.Set("X-Correlation-ID", id)
	}

	ctx := WithCorrelationIDContext(r.Context(), id)
	return r.WithContext(ctx), id
}

// GetLoggerFromContext returns the base logger tagged with the context's
// correlation ID when one is set.
func GetLoggerFromContext(ctx context.Context, baseLogger Logger) Logger {
	if id := GetCorrelationIDFromContext(ctx); id != "" {
		return baseLogger.WithCorrelationID(id)
	}
	return baseLogger
}
