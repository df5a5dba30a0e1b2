package httpmiddleware

import (
	"net/http"
	"strings"
)

// StripPrefix removes the prefix from request paths before routing. The
// prefix only matches on segment boundaries, so "/api" strips "/api/x"
// and "/api" but leaves "/apiary" alone. An empty prefix is a no-op.
func StripPrefix(prefix string) func(http.Handler) http.Handler {
	if prefix == "" {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if strings.HasPrefix(path, prefix) &&
				(len(path) == len(prefix) || path[len(prefix)] == '/') {
				r.URL.Path = path[len(prefix):]
			}
			next.ServeHTTP(w, r)
		})
	}
}
