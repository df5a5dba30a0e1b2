// Package server wires the advisory components together and runs the
// HTTP API alongside the operational endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof is intentionally enabled for debugging
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/enviweather/envi-advisor/internal/advisor"
	"github.com/enviweather/envi-advisor/internal/cache"
	appconfig "github.com/enviweather/envi-advisor/internal/config"
	"github.com/enviweather/envi-advisor/internal/memorybank"
	"github.com/enviweather/envi-advisor/internal/models/anthropic"
	"github.com/enviweather/envi-advisor/internal/models/gemini"
	"github.com/enviweather/envi-advisor/internal/models/openai"
	"github.com/enviweather/envi-advisor/internal/monitoring"
	"github.com/enviweather/envi-advisor/internal/provider"
	"github.com/enviweather/envi-advisor/internal/provider/openmeteo"
	"github.com/enviweather/envi-advisor/internal/risk"
	"github.com/enviweather/envi-advisor/internal/storage"
	"github.com/enviweather/envi-advisor/internal/weather"
	"github.com/enviweather/envi-advisor/internal/writer"
	"github.com/enviweather/envi-advisor/pkg/logger"
	"github.com/enviweather/envi-advisor/pkg/metrics"
	"github.com/enviweather/envi-advisor/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// Server encapsulates the advisory service components and their
// lifecycle.
type Server struct {
	cfg     *appconfig.AppConfig
	log     logger.Logger
	advisor *advisor.Service
	memory  memorybank.Store
	monitor *monitoring.HealthMonitor
	metrics *metrics.Metrics
	domain  *monitoring.DomainMetrics
	router  chi.Router
	cancel  context.CancelFunc

	redisClient *redis.Client
	pgPool      *pgxpool.Pool
}

// New creates a Server with all components initialized. Configuration is
// assumed to be validated already.
//
//nolint:revive // cognitive-complexity: Server initialization requires sequential component setup
func New(ctx context.Context, cfg *appconfig.AppConfig, log logger.Logger) (*Server, error) {
	s := &Server{
		cfg: cfg,
		log: log,
	}

	if cfg.Monitoring.MetricsEnabled {
		s.domain = monitoring.NewDomainMetrics()
		s.metrics = metrics.NewMetrics(true, cfg.Monitoring.GrpcHealthPort > 0, log)
		for _, collector := range s.domain.Collectors() {
			s.metrics.AddCustomMetric(collector)
		}
	}

	classifier, err := risk.NewClassifier(cfg.Risk.Overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to build risk classifier: %w", err)
	}

	// Create storage manager (report archive plus the file memory backend)
	storageManager, err := s.createStorageManager(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	// Create session memory store based on the configured backend
	s.memory, err = s.createMemoryStore(ctx, storageManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory store: %w", err)
	}

	// Create the condition source client
	source, err := s.createConditionSource()
	if err != nil {
		return nil, fmt.Errorf("failed to create condition source: %w", err)
	}

	// Create snapshot cache (optional, Redis-backed)
	snapshotCache, err := s.createSnapshotCache()
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot cache: %w", err)
	}

	// Create prose writer (optional, LLM-backed)
	reportWriter, err := s.createReportWriter(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create report writer: %w", err)
	}

	s.advisor, err = advisor.New(advisor.Config{
		Source:     source,
		Classifier: classifier,
		Memory:     s.memory,
		Logger:     log,
		Cache:      snapshotCache,
		Writer:     reportWriter,
		Reports:    storageManager.Namespace("reports"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create advisor: %w", err)
	}

	s.monitor = monitoring.NewHealthMonitor(monitoring.Config{
		Logger:             log,
		Version:            cfg.Version,
		ConditionSourceURL: cfg.Provider.ForecastURL,
		RedisClient:        s.redisClient,
		PostgresPool:       s.pgPool,
		Timeout:            cfg.Monitoring.HealthCheckTimeout,
		FailureThreshold:   cfg.Monitoring.FailureThreshold,
	})

	s.router = s.buildRouter()

	return s, nil
}

// Advisor exposes the advisory engine for callers that bypass HTTP,
// such as the one-shot CLI command.
func (s *Server) Advisor() *advisor.Service {
	return s.advisor
}

// Run starts the servers and blocks until shutdown.
func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	defer cancel()

	s.setupGracefulShutdown()

	// Start pprof server for profiling (localhost only for security)
	go func() {
		s.log.Info("Starting pprof server on :6060")
		pprofServer := &http.Server{
			Addr:              "localhost:6060",
			Handler:           nil, // Uses DefaultServeMux with pprof handlers
			ReadHeaderTimeout: 10 * time.Second,
		}
		if err := pprofServer.ListenAndServe(); err != nil {
			s.log.Error("pprof server failed", logger.ErrorField(err))
		}
	}()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.startOpsServer(ctx); err != nil {
			s.log.Error("Ops server failed", logger.ErrorField(err))
		}
	}()

	serverErrs := make([]chan error, 0, 2)
	if s.metrics != nil {
		serverErrs = append(serverErrs, s.metrics.Listen(s.cfg.Monitoring.MetricsPort))
	}

	if s.cfg.Monitoring.GrpcHealthPort > 0 {
		if err := s.startGrpcHealth(ctx, &wg); err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("failed to start gRPC health listener: %w", err)
		}
	}

	// Write timeout stays above the middleware timeout so handlers time
	// out first and return a clean response.
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.RequestTimeout,
		WriteTimeout:      2 * s.cfg.RequestTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}

	apiErrs := make(chan error, 1)
	go func() {
		s.log.Info("Advisory API listening", logger.IntField("port", s.cfg.Port))
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			apiErrs <- err
		}
	}()
	serverErrs = append(serverErrs, apiErrs)

	// Any listener failing takes the whole process down; the metrics
	// channel only ever carries bind errors since clean stops are
	// filtered at the source.
	var runErr error
	select {
	case err := <-utils.MergeErrorChans(serverErrs...):
		cancel()
		runErr = fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.monitor.MarkNotReady()
	s.log.Info("Shutting down API server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("API server shutdown error", logger.ErrorField(err))
	}

	if s.metrics != nil {
		s.metrics.Stop()
	}

	wg.Wait()
	s.closeClients()
	s.log.Info("Server stopped")

	return runErr
}

// startOpsServer runs the health probe endpoints on their own port and
// shuts them down when the context is cancelled.
func (s *Server) startOpsServer(ctx context.Context) error {
	mux := http.NewServeMux()
	s.monitor.RegisterHandlers(mux)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Monitoring.OpsPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.log.Info("Ops server listening", logger.IntField("port", s.cfg.Monitoring.OpsPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Ops server failed", logger.ErrorField(err))
		}
	}()

	<-ctx.Done()
	s.log.Info("Shutting down ops server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second) //nolint:contextcheck // New context needed for shutdown
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil { //nolint:contextcheck // Using new context for graceful shutdown
		s.log.Error("Ops server shutdown error", logger.ErrorField(err))
		return err
	}

	s.log.Info("Ops server stopped")
	return nil
}

// startGrpcHealth serves the standard grpc.health.v1 service so gRPC
// load balancers can probe the instance.
func (s *Server) startGrpcHealth(ctx context.Context, wg *sync.WaitGroup) error {
	var opts []grpc.ServerOption
	if s.metrics != nil {
		opts = append(opts, grpc.UnaryInterceptor(s.metrics.GrpcRequestsInterceptor))
	}
	grpcServer := grpc.NewServer(opts...)
	updater := s.monitor.Checker().RegisterWithGRPC(grpcServer)

	errChan, _, gracefulStop, err := utils.Listen(grpcServer, s.cfg.Monitoring.GrpcHealthPort, s.log)
	if err != nil {
		return err
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case err := <-errChan:
			if err != nil {
				s.log.Error("gRPC health listener failed", logger.ErrorField(err))
			}
		case <-ctx.Done():
		}
		updater.Shutdown()
		gracefulStop()
	}()

	return nil
}

// createStorageManager creates the file storage backend from
// configuration.
func (s *Server) createStorageManager(ctx context.Context) (*storage.Manager, error) {
	cfg := &s.cfg.Storage

	switch storage.BackendType(cfg.Backend) {
	case storage.BackendLocal:
		s.log.Info("Using local file-based storage", logger.StringField("directory", cfg.LocalDir))

		// Ensure directory exists (0750 needed for directory traversal)
		if err := os.MkdirAll(cfg.LocalDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}

		return storage.NewManager(storage.Config{
			Backend: storage.BackendLocal,
			Local: &storage.LocalConfig{
				BaseDir: cfg.LocalDir,
			},
		})

	case storage.BackendS3:
		s.log.Info("Using S3-based storage",
			logger.StringField("bucket", cfg.S3Bucket),
			logger.StringField("prefix", cfg.S3Prefix),
			logger.StringField("region", cfg.S3Region))

		configOptions := []func(*awsconfig.LoadOptions) error{}

		if cfg.S3Profile != "" {
			configOptions = append(configOptions, awsconfig.WithSharedConfigProfile(cfg.S3Profile))
		}

		if cfg.S3Region != "" {
			configOptions = append(configOptions, awsconfig.WithRegion(cfg.S3Region))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		return storage.NewManager(storage.Config{
			Backend: storage.BackendS3,
			S3: &storage.S3Config{
				Bucket: cfg.S3Bucket,
				Prefix: cfg.S3Prefix,
				Client: s3.NewFromConfig(awsCfg),
			},
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s (must be 'local' or 's3')", cfg.Backend)
	}
}

// createMemoryStore creates the session memory backend from
// configuration.
func (s *Server) createMemoryStore(ctx context.Context, manager *storage.Manager) (memorybank.Store, error) {
	switch s.cfg.Memory.Backend {
	case appconfig.MemoryBackendInProcess:
		s.log.Info("Using in-process session memory")
		return memorybank.NewInMemoryStore(), nil

	case appconfig.MemoryBackendFile:
		s.log.Info("Using file-backed session memory")
		return memorybank.NewFileStore(memorybank.FileStoreConfig{
			Provider: manager.Namespace("memory"),
			Logger:   s.log,
		})

	case appconfig.MemoryBackendPostgres:
		s.log.Info("Using Postgres session memory")
		pool, err := pgxpool.New(ctx, s.cfg.Postgres.ConnString())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := memorybank.Migrate(pool, s.log); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		s.pgPool = pool
		return memorybank.NewPostgresStore(pool, s.log)

	default:
		return nil, fmt.Errorf("unsupported memory backend: %s (must be 'memory', 'file' or 'postgres')", s.cfg.Memory.Backend)
	}
}

// createConditionSource creates the Open-Meteo client.
func (s *Server) createConditionSource() (provider.Source, error) {
	return openmeteo.New(openmeteo.Config{
		Logger:       s.log,
		HTTPClient:   &http.Client{Timeout: s.cfg.Provider.Timeout},
		ForecastURL:  s.cfg.Provider.ForecastURL,
		GeocodingURL: s.cfg.Provider.GeocodingURL,
		Backoff: openmeteo.BackoffConfig{
			MaxRetries:      s.cfg.Provider.MaxRetries,
			InitialInterval: s.cfg.Provider.InitialBackoff,
			MaxInterval:     s.cfg.Provider.MaxBackoff,
		},
		OnBreakerChange: s.domain.BreakerStateChange,
	})
}

// createSnapshotCache creates the Redis-backed snapshot cache. Returns
// nil when no Redis address is configured, which disables caching.
func (s *Server) createSnapshotCache() (cache.SnapshotCache, error) {
	if !s.cfg.Redis.Enabled() {
		s.log.Info("Snapshot cache disabled (no REDIS_ADDRESS configured)")
		return nil, nil
	}

	s.log.Info("Using Redis snapshot cache",
		logger.StringField("address", s.cfg.Redis.Address),
		logger.DurationField("ttl", s.cfg.Redis.TTL))

	client := redis.NewClient(&redis.Options{
		Addr:     s.cfg.Redis.Address,
		Password: s.cfg.Redis.Password,
		DB:       s.cfg.Redis.Database,
	})
	s.redisClient = client

	snapshotCache, err := cache.NewRedisCache(cache.RedisConfig{
		Client: client,
		TTL:    s.cfg.Redis.TTL,
		Logger: s.log,
	})
	if err != nil {
		return nil, err
	}

	if s.domain == nil {
		return snapshotCache, nil
	}
	return &instrumentedCache{inner: snapshotCache, metrics: s.domain}, nil
}

// createReportWriter creates the prose writer for the configured LLM
// provider. Returns nil when no provider is configured, which leaves
// reports structured-only.
func (s *Server) createReportWriter(ctx context.Context) (*writer.Writer, error) {
	if !s.cfg.LLM.Enabled() {
		s.log.Info("Prose rendering disabled (no LLM_PROVIDER configured)")
		return nil, nil
	}

	var model writer.Model
	var err error

	switch strings.ToLower(s.cfg.LLM.Provider) {
	case appconfig.ProviderClaude:
		s.log.Info("Initializing Claude model",
			logger.StringField("model", s.cfg.Anthropic.Model))
		model, err = anthropic.New(s.cfg.Anthropic.APIKey, s.cfg.Anthropic.Model, s.log)

	case appconfig.ProviderGemini:
		s.log.Info("Initializing Gemini model",
			logger.StringField("model", s.cfg.Gemini.Model))
		model, err = gemini.New(ctx, s.cfg.Gemini.APIKey, s.cfg.Gemini.Model, s.log)

	case appconfig.ProviderOpenAI:
		s.log.Info("Initializing OpenAI model",
			logger.StringField("model", s.cfg.OpenAI.Model))
		model, err = openai.New(s.cfg.OpenAI.APIKey, s.cfg.OpenAI.Model, s.log)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.cfg.LLM.Provider)
	}
	if err != nil {
		return nil, err
	}

	return writer.New(writer.Config{
		Model:   model,
		Logger:  s.log,
		Timeout: s.cfg.LLM.Timeout,
	})
}

// setupGracefulShutdown sets up signal handling for graceful shutdown.
func (s *Server) setupGracefulShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		s.log.Info("Received shutdown signal", logger.StringField("signal", sig.String()))

		if s.cancel != nil {
			s.cancel()
		}

		// Give processes time to shutdown gracefully, then force exit
		time.AfterFunc(30*time.Second, func() {
			s.log.Warn("Force exiting due to timeout")
			os.Exit(1)
		})
	}()
}

// closeClients releases backend connections after the servers stopped.
func (s *Server) closeClients() {
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.log.Warn("Failed to close Redis client", logger.ErrorField(err))
		}
	}
	if s.pgPool != nil {
		s.pgPool.Close()
	}
}

// instrumentedCache counts hits and misses around the real cache.
type instrumentedCache struct {
	inner   cache.SnapshotCache
	metrics *monitoring.DomainMetrics
}

func (c *instrumentedCache) Get(ctx context.Context, lat, lon float64) (weather.Snapshot, bool) {
	snap, ok := c.inner.Get(ctx, lat, lon)
	if ok {
		c.metrics.CacheHit()
	} else {
		c.metrics.CacheMiss()
	}
	return snap, ok
}

func (c *instrumentedCache) Put(ctx context.Context, snap weather.Snapshot) {
	c.inner.Put(ctx, snap)
}
