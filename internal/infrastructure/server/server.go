package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/gameloans/core/docs" // registers the swagger spec
	httpHandlers "github.com/gameloans/core/internal/adapters/http"
	"github.com/gameloans/core/internal/application/services"
	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/infrastructure/config"
	"github.com/gameloans/core/internal/infrastructure/logger"
	"github.com/gameloans/core/internal/infrastructure/metrics"
	"github.com/gameloans/core/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo     *echo.Echo
	config   *config.Config
	logger   *logger.Logger
	store    ports.CollectionStore
	registry *prometheus.Registry
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance over an open collection store
func New(cfg *config.Config, store ports.CollectionStore, appLogger *logger.Logger, dsOpts ...services.DataStoreOption) (*Server, error) {
	e := echo.New()

	server := &Server{
		echo:     e,
		config:   cfg,
		logger:   appLogger,
		store:    store,
		registry: prometheus.NewRegistry(),
	}

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.NewRecorder(server.registry)
	}

	// Initialize data store
	ds := services.NewDataStore(store, appLogger, append([]services.DataStoreOption{services.WithMetrics(recorder)}, dsOpts...)...)
	v := services.NewValidator(ds.Now)

	// Set custom validator
	e.Validator = &CustomValidator{validator: v}

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Initialize services
	authService := services.NewAuthService(ds, v, cfg.JWT, cfg.Security.BcryptCost, appLogger)
	catalogService := services.NewCatalogService(ds, v, appLogger)
	loanService := services.NewLoanService(ds, recorder, appLogger)
	requestService := services.NewRequestService(ds, v, recorder, appLogger)
	reportService := services.NewReportService(ds)

	if cfg.Store.SeedOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := services.NewSeeder(ds, cfg.Security.BcryptCost, appLogger).Run(ctx); err != nil {
			return nil, fmt.Errorf("failed to seed store: %w", err)
		}
	}

	// Initialize handlers
	handlers := routeHandlers{
		auth:     httpHandlers.NewAuthHandler(authService, appLogger),
		games:    httpHandlers.NewGameHandler(catalogService, appLogger),
		loans:    httpHandlers.NewLoanHandler(loanService, requestService, appLogger),
		requests: httpHandlers.NewRequestHandler(requestService, appLogger),
		stats:    httpHandlers.NewStatsHandler(reportService),
	}

	// Setup metrics before routes so the middleware sees every request
	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes(handlers, authService)

	return server, nil
}

type routeHandlers struct {
	auth     *httpHandlers.AuthHandler
	games    *httpHandlers.GameHandler
	loans    *httpHandlers.LoanHandler
	requests *httpHandlers.RequestHandler
	stats    *httpHandlers.StatsHandler
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID middleware
	s.echo.Use(middleware.RequestID())

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
			}

			reqLogger := s.logger.WithRequestID(values.RequestID)
			if values.Error != nil {
				reqLogger.WithError(values.Error).Errorw("HTTP request failed", fields...)
			} else {
				reqLogger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPost, http.MethodDelete},
	}))

	// Rate limiting middleware
	if s.config.Security.RateLimitRequests > 0 {
		window := s.config.Security.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(float64(s.config.Security.RateLimitRequests) / window.Seconds()),
					Burst:     s.config.Security.RateLimitRequests,
					ExpiresIn: window,
				},
			),
			IdentifierExtractor: func(ctx echo.Context) (string, error) {
				return ctx.RealIP(), nil
			},
			ErrorHandler: func(context echo.Context, err error) error {
				return context.JSON(http.StatusForbidden, ports.ErrorResponse{Error: "rate limit exceeded"})
			},
			DenyHandler: func(context echo.Context, identifier string, err error) error {
				return context.JSON(http.StatusTooManyRequests, ports.ErrorResponse{Error: "rate limit exceeded"})
			},
		}))
	}

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	// Timeout middleware
	if s.config.Server.RequestTimeout > 0 {
		s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: s.config.Server.RequestTimeout,
		}))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(h routeHandlers, authService ports.AuthService) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")
	authenticated := s.authMiddleware(authService)
	adminOnly := s.requireRole(entities.UserRoleAdmin)

	// Auth routes (public)
	authGroup := v1.Group("/auth")
	authGroup.POST("/login", h.auth.Login)
	authGroup.POST("/register", h.auth.Register)
	authGroup.GET("/me", h.auth.Me, authenticated)

	// Game routes (authenticated)
	gameGroup := v1.Group("/games", authenticated)
	gameGroup.GET("", h.games.ListGames)
	gameGroup.GET("/:id", h.games.GetGame)
	gameGroup.POST("", h.games.CreateGame, adminOnly)
	gameGroup.PUT("/:id", h.games.UpdateGame, adminOnly)
	gameGroup.DELETE("/:id", h.games.DeleteGame, adminOnly)

	// Loan routes (admin)
	loanGroup := v1.Group("/loans", authenticated, adminOnly)
	loanGroup.GET("", h.loans.ListLoans)
	loanGroup.GET("/:id", h.loans.GetLoan)
	loanGroup.POST("", h.loans.CreateLoan)
	loanGroup.PUT("/:id", h.loans.ReturnLoan)

	// Loan request routes (authenticated)
	requestGroup := v1.Group("/loan-requests", authenticated)
	requestGroup.GET("", h.requests.ListRequests)
	requestGroup.POST("", h.requests.CreateRequest)
	requestGroup.PUT("/:id", h.requests.DecideRequest, adminOnly)

	// Stats (admin)
	v1.GET("/stats", h.stats.Summary, authenticated, adminOnly)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	s.registry.MustRegister(requestsTotal, requestDuration)

	// Custom metrics middleware
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			duration := time.Since(start)
			status := c.Response().Status

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return nil
		}
	})

	// Metrics endpoint
	metricsHandler := promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) readinessCheck(c echo.Context) error {
	if checker, ok := s.store.(ports.HealthChecker); ok {
		if err := checker.HealthCheck(c.Request().Context()); err != nil {
			s.logger.Warnw("Store not ready", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": "store_not_ready",
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"store":  s.config.Store.Driver,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler maps domain and transport errors to HTTP responses
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)

		var (
			he    *echo.HTTPError
			verrs validator.ValidationErrors
		)
		switch {
		case errors.As(err, &he):
			code = he.Code
			msg = fmt.Sprint(he.Message)
		case errors.As(err, &verrs):
			code = http.StatusBadRequest
			msg = verrs.Error()
		case errors.Is(err, entities.ErrValidation):
			code = http.StatusBadRequest
			msg = err.Error()
		case errors.Is(err, entities.ErrNotFound):
			code = http.StatusNotFound
			msg = err.Error()
		case errors.Is(err, entities.ErrConflict):
			code = http.StatusConflict
			msg = err.Error()
		case errors.Is(err, entities.ErrUnauthorized):
			code = http.StatusUnauthorized
			msg = "Invalid credentials"
		}

		if code == http.StatusInternalServerError {
			logger.WithError(err).Errorw("Internal server error", "path", c.Request().URL.Path)
		}

		var sendErr error
		if c.Request().Method == http.MethodHead {
			sendErr = c.NoContent(code)
		} else {
			sendErr = c.JSON(code, ports.ErrorResponse{Error: msg})
		}
		if sendErr != nil {
			logger.Errorw("Error sending response", "error", sendErr)
		}
	}
}
