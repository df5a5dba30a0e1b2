// Package httpmiddleware assembles the standard middleware stack for chi
// routers: correlation IDs, security headers, request logging, CORS,
// timeouts and the other plumbing every HTTP surface carries.
package httpmiddleware

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/secure"

	"github.com/enviweather/envi-advisor/pkg/logger"
)

// Config selects which middleware ApplyToRouter installs and how the
// individual layers behave.
type Config struct {
	Logger      logger.Logger   // needed when EnableLogging is set
	StripPrefix string          // path prefix removed before routing, e.g. "/api"
	CORS        *CORSConfig     // cross-origin policy, nil disables even with EnableCORS
	Security    *secure.Options // nil uses the secure package defaults
	Timeout     time.Duration   // per-request budget when EnableTimeout is set

	EnableCorrelationID bool
	EnableLogging       bool
	EnableRecovery      bool
	EnableCORS          bool
	EnableSecurity      bool
	EnableCompression   bool
	EnableHeartbeat     bool
	EnableRealIP        bool
	EnableTimeout       bool
	EnableStripPrefix   bool
}

// DefaultConfig enables the production stack. Logging stays off until a
// Logger is supplied and EnableLogging is set explicitly.
func DefaultConfig() Config {
	cors := DefaultCORSConfig()
	return Config{
		CORS:    &cors,
		Timeout: 60 * time.Second,

		EnableCorrelationID: true,
		EnableRecovery:      true,
		EnableCORS:          true,
		EnableSecurity:      true,
		EnableCompression:   true,
		EnableHeartbeat:     true,
		EnableRealIP:        true,
		EnableTimeout:       true,
	}
}

// ApplyToRouter installs the selected middleware on the router. Order
// matters: correlation IDs are assigned before anything logs, recovery
// wraps the handlers, and the heartbeat endpoint sits innermost so /ping
// answers even under compression and timeouts.
func ApplyToRouter(router chi.Router, config Config) {
	if config.EnableCorrelationID {
		router.Use(CorrelationID())
	}
	if config.EnableSecurity {
		router.Use(Security(config.Security))
	}
	if config.EnableRealIP {
		router.Use(middleware.RealIP)
	}
	if config.EnableLogging && config.Logger != nil {
		router.Use(NewHTTPLogger(config.Logger).Middleware)
	}
	if config.EnableRecovery {
		router.Use(middleware.Recoverer)
	}
	if config.EnableStripPrefix && config.StripPrefix != "" {
		router.Use(StripPrefix(config.StripPrefix))
	}
	if config.EnableCORS && config.CORS != nil {
		router.Use(CORS(*config.CORS))
	}
	if config.EnableTimeout {
		router.Use(middleware.Timeout(config.Timeout))
	}
	if config.EnableCompression {
		router.Use(middleware.Compress(5))
	}
	if config.EnableHeartbeat {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

// WithLogger applies DefaultConfig with request logging switched on.
func WithLogger(router chi.Router, log logger.Logger) {
	config := DefaultConfig()
	config.Logger = log
	config.EnableLogging = true
	ApplyToRouter(router, config)
}
