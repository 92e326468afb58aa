package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/replbridge/internal/api/http"
	"github.com/GriffinCanCode/replbridge/internal/api/middleware"
	"github.com/GriffinCanCode/replbridge/internal/api/ws"
	"github.com/GriffinCanCode/replbridge/internal/console"
	"github.com/GriffinCanCode/replbridge/internal/domain/service"
	"github.com/GriffinCanCode/replbridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/replbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/replbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/replbridge/internal/infrastructure/tracing"
	consoleprovider "github.com/GriffinCanCode/replbridge/internal/providers/console"
	"github.com/GriffinCanCode/replbridge/internal/providers/system"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	console  *console.Manager
	provider *consoleprovider.Provider
	registry *service.Registry
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
}

type options struct {
	logger     *logging.Logger
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	consoleOps []console.Option
}

// Option customises server assembly
type Option func(*options)

// WithLogger uses logger instead of building one from the config
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRegistry registers metrics with reg and serves them from /metrics
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registerer = reg
		o.gatherer = reg
	}
}

// WithConsoleOptions passes extra options to the console manager
func WithConsoleOptions(opts ...console.Option) Option {
	return func(o *options) { o.consoleOps = append(o.consoleOps, opts...) }
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	o := options{
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
			File:        cfg.Logging.File,
			MaxSizeMB:   cfg.Logging.MaxSizeMB,
			MaxBackups:  cfg.Logging.MaxBackups,
			MaxAgeDays:  cfg.Logging.MaxAgeDays,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build logger: %w", err)
		}
	}

	logger.Info("Initializing replbridge server",
		zap.String("port", cfg.Server.Port),
		zap.String("command", cfg.Console.Command),
		zap.String("working_dir", cfg.Console.WorkingDir),
	)

	metrics := monitoring.NewMetrics(o.registerer)
	tracer := tracing.New("replbridge", logger.Named("trace").Logger)

	consoleOpts := []console.Option{
		console.WithLogger(logger.Named("console").Logger),
		console.WithObserver(metrics),
	}
	if cfg.Console.PatternsFile != "" {
		patterns, err := config.LoadPatterns(cfg.Console.PatternsFile)
		if err != nil {
			tracer.Close()
			return nil, err
		}
		extra, err := patterns.Options()
		if err != nil {
			tracer.Close()
			return nil, err
		}
		consoleOpts = append(consoleOpts, extra...)
		logger.Info("Loaded console patterns",
			zap.String("file", cfg.Console.PatternsFile),
			zap.Int("readiness", len(patterns.Readiness)),
			zap.Int("prompts", len(patterns.Prompts)),
			zap.Int("error_classes", len(patterns.ErrorClasses)))
	}
	consoleOpts = append(consoleOpts, o.consoleOps...)
	manager := console.New(cfg.Console.Session(), consoleOpts...)

	provider := consoleprovider.NewProvider(manager, int(cfg.Console.ConnectMaxFailures),
		consoleprovider.WithMetrics(metrics),
		consoleprovider.WithTracer(tracer),
		consoleprovider.WithLogger(logger.Named("tools").Logger))
	sys := system.NewProvider(apihttp.Version)

	serviceRegistry := service.NewRegistry()
	serviceRegistry.SetRecorder(sys.Recorder())
	for _, p := range []service.Provider{provider, sys} {
		if err := serviceRegistry.Register(p); err != nil {
			tracer.Close()
			return nil, fmt.Errorf("failed to register %s provider: %w", p.Definition().ID, err)
		}
	}
	stats := serviceRegistry.Stats()
	logger.Info("Registered services",
		zap.Any("services", stats["total_services"]),
		zap.Any("tools", stats["total_tools"]))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsCfg.Origins = cfg.Server.CORSOrigins
	}
	router.Use(middleware.CORS(corsCfg))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(serviceRegistry, manager, metrics)
	wsHandler := ws.NewHandler(serviceRegistry, manager, metrics, logger.Named("ws").Logger)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	router.GET("/services", handlers.ListServices)
	router.POST("/services/execute", handlers.ExecuteService)

	router.POST("/console/execute", handlers.ConsoleExecute)
	router.GET("/console/status", handlers.ConsoleStatus)

	router.GET("/stream", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{})))
	router.GET("/metrics/json", handlers.GetMetrics)

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		console:  manager,
		provider: provider,
		registry: serviceRegistry,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		tracer:   tracer,
	}, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Console returns the session manager
func (s *Server) Console() *console.Manager {
	return s.console
}

// Autostart boots the console through the connect tool so failures feed
// the connect circuit breaker. It blocks until the boot finishes.
func (s *Server) Autostart(ctx context.Context) error {
	res, err := s.provider.Execute(ctx, consoleprovider.ToolConnect, nil, nil)
	if err != nil {
		return err
	}
	if !res.Success {
		msg := "console failed to start"
		if res.Error != nil {
			msg = *res.Error
		}
		return errors.New(msg)
	}
	s.logger.Info("Console autostarted", zap.Any("pid", res.Data["pid"]))
	return nil
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the HTTP server and the console session
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	var errs []error
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP shutdown failed", zap.Error(err))
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	if err := s.console.Stop(); err != nil {
		s.logger.Error("Failed to stop console", zap.Error(err))
		errs = append(errs, fmt.Errorf("stop console: %w", err))
	}

	s.tracer.Close()
	_ = s.logger.Sync()

	return errors.Join(errs...)
}
