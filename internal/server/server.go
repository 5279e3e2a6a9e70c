package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Clementwa0/Job-tracker-sub001/internal/config"
	"github.com/Clementwa0/Job-tracker-sub001/internal/models"
	"github.com/Clementwa0/Job-tracker-sub001/internal/observability"
	"github.com/Clementwa0/Job-tracker-sub001/internal/relay"
)

const (
	shutdownGracePeriod = 10 * time.Second
	readTimeout         = 30 * time.Second
	writeTimeout        = 45 * time.Second
	idleTimeout         = 120 * time.Second
)

// Route paths served by the relay.
const (
	PathReviewCV   = "/api/ai/review-cv"
	PathAnalyzeJob = "/api/ai/analyze-job"
	PathTip        = "/api/ai/tip"
	PathModels     = "/api/ai/models"
	PathHealth     = "/health"
	PathMetrics    = "/metrics"
)

// ModelCatalog lists the models the relay can route to.
type ModelCatalog interface {
	Models() []models.Model
}

type routeRules struct {
	cvReview   relay.Rule
	jobExtract relay.Rule
	tip        relay.Rule
}

type Server struct {
	cfg     config.Config
	engine  *relay.Engine
	catalog ModelCatalog
	rules   routeRules
	logger  *slog.Logger
	app     *echo.Echo
	address string
}

// New constructs an HTTP server wired with routing and middleware.
func New(cfg config.Config, engine *relay.Engine, catalog ModelCatalog, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, errors.New("relay engine must not be nil")
	}
	if catalog == nil {
		return nil, errors.New("model catalog must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:     cfg,
		engine:  engine,
		catalog: catalog,
		rules: routeRules{
			cvReview:   relay.CVReviewRule.WithLimits(cfg.Routes.CVReview.MinLength, cfg.Routes.CVReview.MaxLength),
			jobExtract: relay.JobExtractRule.WithLimits(cfg.Routes.JobExtract.MinLength, cfg.Routes.JobExtract.MaxLength),
			tip:        relay.TipRule,
		},
		logger:  logger,
		address: fmt.Sprintf(":%d", cfg.Server.Port),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = srv.handleError

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				"request_id", v.RequestID,
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			)
			return nil
		},
	}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'; form-action 'none'",
	}))
	e.Use(middleware.CORSWithConfig(corsConfig(cfg.Server.CORSOrigins)))
	e.Use(observability.Middleware())

	srv.app = e
	srv.registerRoutes()

	return srv, nil
}

func corsConfig(origins []string) middleware.CORSConfig {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept},
		ExposeHeaders: []string{
			echo.HeaderXRequestID,
		},
	}
}

// Handler exposes the configured echo instance.
func (s *Server) Handler() http.Handler {
	return s.app
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	printStartupBanner(s.cfg.Server.Port)
	s.logger.Info("starting server", "addr", s.address)

	httpServer := &http.Server{
		Addr:         s.address,
		Handler:      s.app,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

// registerRoutes binds the AI routes for every method so that the relay's
// own method check answers with 405 instead of echo's router.
func (s *Server) registerRoutes() {
	s.app.Any(PathReviewCV, s.handleReviewCV)
	s.app.Any(PathAnalyzeJob, s.handleAnalyzeJob)
	s.app.Any(PathTip, s.handleTip)
	s.app.GET(PathModels, s.handleModels)
	s.app.GET(PathHealth, s.handleHealth)
	s.app.GET(PathMetrics, observability.Handler())
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type modelEntry struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

func (s *Server) handleModels(c echo.Context) error {
	list := s.catalog.Models()
	out := make([]modelEntry, 0, len(list))
	for _, m := range list {
		out = append(out, modelEntry{ID: m.ID, Provider: m.Provider})
	}
	return c.JSON(http.StatusOK, map[string]any{"models": out})
}

func printStartupBanner(port int) {
	host := "127.0.0.1"
	fmt.Println()
	fmt.Println("jobtracker-ai ready")
	fmt.Printf("Listening on http://%s:%d\n", host, port)
	fmt.Println("Endpoints:")
	fmt.Println("  POST " + PathReviewCV)
	fmt.Println("  POST " + PathAnalyzeJob)
	fmt.Println("  GET  " + PathTip)
	fmt.Println("  GET  " + PathModels)
	fmt.Println("  GET  " + PathHealth)
	fmt.Println("  GET  " + PathMetrics)
	fmt.Printf("Example:\n  curl -N http://%s:%d%s -H 'Content-Type: application/json' -d '{\"cvText\":\"...\"}'\n\n", host, port, PathReviewCV)
}
