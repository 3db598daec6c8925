package server

import (
	"time"

	"maildesk/internal/auth"
	"maildesk/internal/config"
	"maildesk/internal/handlers"
	"maildesk/internal/store"
	"maildesk/internal/triage"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Server represents the application server
type Server struct {
	echo   *echo.Echo
	config *config.Config
	store  store.Store
	triage *triage.Service
	auth   *auth.Manager
	logger zerolog.Logger
}

// New creates a new server instance
func New(cfg *config.Config, st store.Store, triageService *triage.Service, logger zerolog.Logger) *Server {
	return &Server{
		config: cfg,
		store:  st,
		triage: triageService,
		auth:   auth.NewManager(cfg.AdminUsername, cfg.AdminPassword),
		logger: logger,
	}
}

// zerologMiddleware creates a zerolog-based logging middleware for Echo
func (s *Server) zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			s.logger.Info().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("remote_ip", c.RealIP()).
				Int("status", res.Status).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Str("user_agent", req.UserAgent()).
				Msg("HTTP request")

			return err
		}
	}
}

// Initialize sets up the Echo framework with middleware and routes
func (s *Server) Initialize() {
	s.echo = echo.New()

	// Middleware
	s.echo.Use(s.zerologMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())

	// Hide Echo banner
	s.echo.HideBanner = true

	// Setup routes
	s.setupRoutes()
}

// setupRoutes configures all the application routes
func (s *Server) setupRoutes() {
	// API group with /api prefix
	api := s.echo.Group("/api")

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// Health endpoints (keep at root level for monitoring)
	s.echo.GET("/healthz", handlers.HealthHandler(s.config.Version))
	s.echo.GET("/healthz/db", handlers.StoreHealthHandler(s.store))

	// Dashboard endpoints
	api.GET("/", handlers.RootHandler(s.config.Version))
	api.GET("/emails", handlers.ListEmailsHandler(s.triage))
	api.POST("/emails/process", handlers.ProcessEmailHandler(s.triage))
	api.POST("/emails/:id/generate", handlers.GenerateResponseHandler(s.triage))
	api.POST("/emails/:id/send", handlers.SendResponseHandler(s.triage))
	api.GET("/stats", handlers.StatsHandler(s.triage))

	// Admin endpoints behind bearer auth
	api.POST("/admin/login", handlers.LoginHandler(s.auth))
	admin := api.Group("/admin", s.auth.Middleware())
	admin.POST("/import-emails", handlers.ImportEmailsHandler(s.triage))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("port", s.config.Port).Msg("Server starting")
	return s.echo.Start(":" + s.config.Port)
}
