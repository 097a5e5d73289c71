// Package server assembles the router process: storage, ledger client,
// providers, and the HTTP/WebSocket surfaces.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/spendguard/spendguard/internal/api/http"
	"github.com/spendguard/spendguard/internal/api/middleware"
	"github.com/spendguard/spendguard/internal/api/ws"
	"github.com/spendguard/spendguard/internal/authbridge"
	"github.com/spendguard/spendguard/internal/infrastructure/config"
	"github.com/spendguard/spendguard/internal/infrastructure/logging"
	"github.com/spendguard/spendguard/internal/infrastructure/monitoring"
	"github.com/spendguard/spendguard/internal/infrastructure/tracing"
	"github.com/spendguard/spendguard/internal/ledger"
	"github.com/spendguard/spendguard/internal/queue"
	"github.com/spendguard/spendguard/internal/router"
	"github.com/spendguard/spendguard/internal/storage"
	"github.com/spendguard/spendguard/internal/visits"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	engine  *gin.Engine
	httpSrv *http.Server
	store   *storage.Store
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// New wires the whole router from configuration.
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("initializing router",
		zap.String("port", cfg.Server.Port),
		zap.String("ledger_url", cfg.Ledger.BaseURL),
		zap.String("data_dir", cfg.Store.DataDir),
	)

	metrics := monitoring.NewMetrics()

	store, err := storage.Open(cfg.Store.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	var ledgerClient *ledger.Client
	if cfg.Ledger.BaseURL != "" {
		ledgerClient = ledger.New(cfg.Ledger)
		logger.Info("ledger client configured", zap.String("base_url", cfg.Ledger.BaseURL))
	} else {
		logger.Warn("no ledger configured, running offline")
	}

	bridge := authbridge.New(store, goalInitializer(ledgerClient), logger)
	if ledgerClient != nil {
		ledgerClient.SetIdentity(bridge.UserID)
	}
	q := queue.New(store, submitter(ledgerClient), bridge.Authenticated, logger)
	tracker := visits.New(store)

	registry := router.NewRegistry()
	providers := []router.Provider{
		router.NewPurchasesProvider(q, checker(ledgerClient)),
		router.NewAuthProvider(bridge),
		router.NewVisitsProvider(tracker),
		router.NewProductsProvider(store),
		router.NewSitesProvider(store),
	}
	for _, p := range providers {
		if err := registry.Register(p); err != nil {
			store.Close()
			return nil, fmt.Errorf("registering provider: %w", err)
		}
		logger.Info("provider registered", zap.String("service", p.Definition().ID))
	}

	handlers := apihttp.NewHandlers(registry, q, prober(ledgerClient), metrics)
	wsBridge := ws.NewBridge(registry, logger)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	engine.Use(middleware.RequestID())
	if cfg.RateLimit.Enabled {
		engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	engine.Use(monitoring.Middleware(metrics))
	engine.Use(tracing.HTTPMiddleware(tracing.New("router", logger.Logger)))

	engine.GET("/", handlers.Root)
	engine.GET("/health", handlers.Health)
	engine.GET("/services", handlers.ListServices)
	engine.POST("/execute", handlers.Execute)

	engine.GET("/purchases", handlers.ListPurchases)
	engine.POST("/purchases/sync", handlers.SyncPurchases)
	engine.DELETE("/purchases", handlers.ClearPurchases)

	engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	engine.GET("/metrics/summary", handlers.MetricsSummary)

	engine.GET("/stream", wsBridge.HandleConnection)

	return &Server{
		engine:  engine,
		store:   store,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.httpSrv = &http.Server{
		Addr:         s.config.Server.Host + ":" + s.config.Server.Port,
		Handler:      s.engine,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}
	s.logger.Info("router listening", zap.String("addr", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv != nil {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Warn("shutdown did not drain cleanly", zap.Error(err))
		}
	}
	return s.store.Close()
}

// Engine exposes the gin engine for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Nil interface values must stay nil, not typed nils, so downstream
// nil checks work.

func submitter(c *ledger.Client) queue.Submitter {
	if c == nil {
		return nil
	}
	return c
}

func checker(c *ledger.Client) router.SpendingChecker {
	if c == nil {
		return nil
	}
	return c
}

func goalInitializer(c *ledger.Client) authbridge.GoalInitializer {
	if c == nil {
		return nil
	}
	return c
}

func prober(c *ledger.Client) apihttp.LedgerProber {
	if c == nil {
		return nil
	}
	return c
}
