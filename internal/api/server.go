// Package api provides the HTTP API server for the Mnemosyne checkpoint store.
package api

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/janovincze/mnemosyne/internal/api/handlers"
	"github.com/janovincze/mnemosyne/internal/api/middleware"
	"github.com/janovincze/mnemosyne/internal/api/services"
	"github.com/janovincze/mnemosyne/internal/config"
	"github.com/janovincze/mnemosyne/internal/metrics"
)

// Server is the HTTP API server.
type Server struct {
	cfg             *config.Config
	logger          *slog.Logger
	db              *sql.DB
	progressService *services.ProgressService
	httpServer      *http.Server
	router          *gin.Engine
}

// ServerConfig holds server configuration options.
type ServerConfig struct {
	// Config is the application configuration.
	Config *config.Config

	// Logger is the structured logger.
	Logger *slog.Logger

	// DB is the checkpoint database, used for readiness checks. May be nil.
	DB *sql.DB

	// ProgressService is the service backing the checkpoint endpoints.
	ProgressService *services.ProgressService

	// CORSConfig is the CORS configuration.
	CORSConfig middleware.CORSConfig

	// RateLimitConfig is the rate limiting configuration.
	RateLimitConfig middleware.RateLimitConfig
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig(cfg *config.Config, logger *slog.Logger) ServerConfig {
	return ServerConfig{
		Config:          cfg,
		Logger:          logger,
		CORSConfig:      middleware.DefaultCORSConfig(),
		RateLimitConfig: middleware.DefaultRateLimitConfig(),
	}
}

// NewServer creates a new API server.
func NewServer(serverCfg ServerConfig) *Server {
	logger := serverCfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if serverCfg.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	if serverCfg.Config.Metrics.Enabled {
		metrics.Register()
	}

	// Apply middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))
	if serverCfg.Config.Metrics.Enabled {
		router.Use(middleware.Metrics())
	}
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(serverCfg.CORSConfig))
	router.Use(middleware.RateLimiter(serverCfg.RateLimitConfig))

	s := &Server{
		cfg:             serverCfg.Config,
		logger:          logger.With("component", "api-server"),
		db:              serverCfg.DB,
		progressService: serverCfg.ProgressService,
		router:          router,
	}

	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:         serverCfg.Config.API.ListenAddr,
		Handler:      router,
		ReadTimeout:  serverCfg.Config.API.ReadTimeout,
		WriteTimeout: serverCfg.Config.API.WriteTimeout,
		IdleTimeout:  serverCfg.Config.API.ReadTimeout * 4,
	}

	return s
}

// registerRoutes registers all API routes.
func (s *Server) registerRoutes() {
	var pinger handlers.Pinger
	if s.db != nil {
		pinger = s.db
	}
	healthHandler := handlers.NewHealthHandler(pinger)
	versionHandler := handlers.NewVersionHandler(s.cfg.Version)

	// Health endpoints (no versioning)
	s.router.GET("/health", healthHandler.GetHealth)
	s.router.GET("/health/live", healthHandler.GetLiveness)
	s.router.GET("/health/ready", healthHandler.GetReadiness)

	// Metrics endpoint (no versioning)
	if s.cfg.Metrics.Enabled {
		s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	authCfg := middleware.AuthConfig{
		Enabled:   s.cfg.Auth.Enabled,
		JWTSecret: []byte(s.cfg.Auth.JWTSecret),
		Issuer:    s.cfg.Auth.Issuer,
	}

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	v1.Use(middleware.Authenticate(authCfg))
	{
		v1.GET("/version", versionHandler.GetVersion)

		// Checkpoint endpoints
		if s.progressService != nil {
			checkpointHandler := handlers.NewCheckpointHandler(s.progressService)

			me := v1.Group("/viewers/me", middleware.RequireViewer(authCfg))
			me.GET("/checkpoints", checkpointHandler.List)
			me.GET("/checkpoints/:content", checkpointHandler.Get)
			me.PUT("/checkpoints/:content", checkpointHandler.Save)
			me.GET("/continue-watching", checkpointHandler.ContinueWatching)
		}
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.cfg.API.ListenAddr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping API server")

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the underlying Gin router for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}
