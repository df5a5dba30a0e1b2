package httpmiddleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/enviweather/envi-advisor/pkg/logger"
)

// CorrelationID assigns every request a freshly generated correlation ID,
// overwriting whatever the client sent. The ID is written to the
// X-Correlation-ID request header and stored in the request context.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.New().String()

			r.Header.Set("X-Correlation-ID", id)
			r = r.WithContext(logger.WithCorrelationIDContext(r.Context(), id))

			next.ServeHTTP(w, r)
		})
	}
}
