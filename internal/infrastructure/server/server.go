package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/bekkerfineart/gallery/docs"
	httpHandlers "github.com/bekkerfineart/gallery/internal/adapters/http"
	"github.com/bekkerfineart/gallery/internal/adapters/repository"
	"github.com/bekkerfineart/gallery/internal/application/services"
	"github.com/bekkerfineart/gallery/internal/infrastructure/cloudinary"
	"github.com/bekkerfineart/gallery/internal/infrastructure/config"
	"github.com/bekkerfineart/gallery/internal/infrastructure/events"
	"github.com/bekkerfineart/gallery/internal/infrastructure/inquiry"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/infrastructure/metrics"
	"github.com/bekkerfineart/gallery/internal/ports"
)

const shutdownTimeout = 10 * time.Second

// Server represents the HTTP server
type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *logger.Logger
	store  *repository.Store
	hub    *events.Hub
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type handlers struct {
	auth      *httpHandlers.AuthHandler
	inventory *httpHandlers.InventoryHandler
	contacts  *httpHandlers.ContactHandler
	content   *httpHandlers.ContentHandler
	checkout  *httpHandlers.CheckoutHandler
	uploads   *httpHandlers.UploadHandler
	activity  *httpHandlers.ActivityHandler
	events    *httpHandlers.EventsHandler
}

// New creates a new server instance. The store should publish its changes to hub.
func New(cfg *config.Config, store *repository.Store, hub *events.Hub, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	// Set custom validator
	e.Validator = &CustomValidator{validator: validator.New()}
	e.JSONSerializer = goccySerializer{}

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Initialize services
	activityService := services.NewActivityService(store.Activities, appLogger)
	authService, err := services.NewAuthService(cfg.Admin, appLogger)
	if err != nil {
		return nil, err
	}
	inventoryService := services.NewInventoryService(store.Artworks, store.Sales, activityService, appLogger)
	contentService := services.NewContentService(store.Content, activityService, appLogger)
	settingsService := services.NewSettingsService(store.Settings, appLogger)

	var forwarder ports.InquiryForwarder
	if f := inquiry.New(cfg.Inquiry, appLogger); f != nil {
		forwarder = f
	}
	contactService := services.NewContactService(store.Contacts, activityService, appLogger).
		WithForwarder(forwarder, cfg.Inquiry.FormType)
	checkoutService := services.NewCheckoutService(store.Artworks, contactService, forwarder, cfg.Inquiry.FormType, appLogger)
	paymentService := services.NewPaymentService(cfg.PayFast, cfg.Server.PublicBaseURL, checkoutService, activityService, appLogger)

	var uploader ports.ImageUploader
	if cfg.Cloudinary.Enabled() {
		u, err := cloudinary.New(cfg.Cloudinary, appLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to configure cloudinary: %w", err)
		}
		uploader = u
	} else {
		appLogger.Warn("Cloudinary not configured, uploads are stored inline as data URLs")
	}
	uploadService := services.NewUploadService(uploader, cfg.Security.MaxUploadSize, appLogger)

	// Initialize handlers
	h := handlers{
		auth:      httpHandlers.NewAuthHandler(authService, appLogger),
		inventory: httpHandlers.NewInventoryHandler(inventoryService, appLogger),
		contacts:  httpHandlers.NewContactHandler(contactService, appLogger),
		content:   httpHandlers.NewContentHandler(contentService, settingsService, appLogger),
		checkout:  httpHandlers.NewCheckoutHandler(checkoutService, paymentService, appLogger),
		uploads:   httpHandlers.NewUploadHandler(uploadService, appLogger),
		activity:  httpHandlers.NewActivityHandler(activityService, appLogger),
		events:    httpHandlers.NewEventsHandler(hub, events.Upgrader(originChecker(cfg.Security.CORSAllowedOrigins)), appLogger),
	}

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
		store:  store,
		hub:    hub,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup metrics
	if cfg.Metrics.Enabled {
		if err := server.setupMetrics(); err != nil {
			return nil, err
		}
	}

	// Setup routes
	server.setupRoutes(h, authService)

	return server, nil
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
				"request_id", values.RequestID,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: splitOrigins(s.config.Security.CORSAllowedOrigins),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	// Rate limiting middleware
	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: isStreaming,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{Rate: rate.Limit(s.config.Security.RateLimitRequests), Burst: s.config.Security.RateLimitRequests, ExpiresIn: s.config.Security.RateLimitWindow},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			id := ctx.RealIP()
			return id, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(http.StatusForbidden, httpHandlers.ErrorResponse{Error: "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(http.StatusTooManyRequests, httpHandlers.ErrorResponse{Error: "rate limit exceeded"})
		},
	}))

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	// Upload bodies are the largest legitimate requests
	s.echo.Use(middleware.BodyLimit(fmt.Sprintf("%dK", s.config.Security.MaxUploadSize/1024+512)))

	// Timeout middleware
	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Skipper: isStreaming,
		Timeout: 30 * time.Second,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(h handlers, authService *services.AuthService) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// API documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	api := s.echo.Group("/api")
	admin := []echo.MiddlewareFunc{s.authMiddleware(authService), s.auditMiddleware()}

	// Public storefront routes
	api.GET("/artworks", h.inventory.ListArtworks)
	api.GET("/hero-slides", h.content.GetHeroSlides)
	api.GET("/content", h.content.GetContent)
	api.GET("/collage", h.content.GetCollage)
	api.GET("/settings", h.content.GetSettings)
	api.POST("/contacts", h.contacts.SubmitContact)
	api.POST("/cart/quote", h.checkout.Quote)
	api.POST("/checkout", h.checkout.Checkout)
	api.POST("/payment", h.checkout.CreatePayment)
	api.POST("/payment/notify", h.checkout.Notify)
	api.POST("/admin/login", h.auth.Login)
	api.GET("/events", h.events.Subscribe)

	// Artwork routes (admin)
	api.POST("/artworks", h.inventory.CreateArtwork, admin...)
	api.PUT("/artworks", h.inventory.UpdateArtwork, admin...)
	api.DELETE("/artworks", h.inventory.DeleteArtwork, admin...)
	api.POST("/artworks/reset", h.inventory.ResetArtworks, admin...)

	// Sales routes (admin)
	api.GET("/sales", h.inventory.ListSales, admin...)
	api.POST("/sales", h.inventory.CreateSale, admin...)
	api.PUT("/sales", h.inventory.UpdateSale, admin...)
	api.DELETE("/sales", h.inventory.DeleteSale, admin...)
	api.POST("/sales/reset", h.inventory.ResetSales, admin...)
	api.POST("/sales/record", h.inventory.RecordSale, admin...)

	// Inbox routes (admin)
	api.GET("/contacts", h.contacts.ListContacts, admin...)
	api.PUT("/contacts", h.contacts.UpdateContact, admin...)
	api.DELETE("/contacts", h.contacts.DeleteContact, admin...)
	api.PATCH("/contacts/:id", h.contacts.PatchContact, admin...)
	api.POST("/contacts/:id/read", h.contacts.MarkRead, admin...)

	// Content routes (admin)
	api.PUT("/content", h.content.SaveContent, admin...)
	api.PUT("/hero-slides", h.content.SaveHeroSlides, admin...)
	api.PUT("/collage", h.content.SaveCollage, admin...)
	api.PUT("/settings", h.content.SaveSettings, admin...)
	api.POST("/settings", h.content.ResetSettings, admin...)

	api.GET("/activities", h.activity.ListActivities, admin...)
	api.POST("/upload", h.uploads.Upload, admin...)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() error {
	registry := prometheus.NewRegistry()

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

	registry.MustRegister(requestsTotal, requestDuration)
	if err := metrics.Register(registry); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	// Custom metrics middleware
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

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

			return err
		}
	})

	// Metrics endpoint
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
	return nil
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	// Data directory must accept writes
	if err := checkWritable(s.store.Dir()); err != nil {
		status = "error"
		checks["storage"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["storage"] = map[string]interface{}{
			"status":   "ok",
			"data_dir": s.store.Dir(),
		}
	}

	checks["change_feed"] = map[string]interface{}{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	}
	checks["cloudinary"] = map[string]interface{}{
		"configured": s.config.Cloudinary.Enabled(),
	}
	checks["inquiry_webhook"] = map[string]interface{}{
		"configured": s.config.Inquiry.WebhookURL != "",
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if _, err := s.store.Artworks.List(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "storage_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".health-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
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
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// String names the server in supervisor logs
func (s *Server) String() string { return "http-server" }

// Serve implements suture.Service. It listens until ctx is cancelled and then drains
// in-flight requests.
func (s *Server) Serve(ctx context.Context) error {
	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout
	s.echo.Server.IdleTimeout = s.config.Server.IdleTimeout

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start(s.config.Server.Address())
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return ctx.Err()
	}
}

// customErrorHandler renders every error as {"error": message}
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  string
		)

		var he *echo.HTTPError
		var ve validator.ValidationErrors
		if errors.As(err, &he) {
			code = he.Code
			msg = fmt.Sprint(he.Message)
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else if errors.As(err, &ve) {
			code = http.StatusBadRequest
			msg = "validation failed: " + ve.Error()
		} else {
			msg = http.StatusText(code)
		}

		if code == http.StatusInternalServerError {
			logger.Errorw("Internal server error", "error", err.Error(), "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == echo.HEAD {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, httpHandlers.ErrorResponse{Error: msg})
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err.Error())
			}
		}
	}
}

func splitOrigins(list string) []string {
	var origins []string
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// originChecker applies the CORS origin list to websocket upgrades
func originChecker(list string) func(string) bool {
	origins := splitOrigins(list)
	return func(origin string) bool {
		for _, o := range origins {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
