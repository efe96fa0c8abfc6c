// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/garyjia/promoter-portal/internal/application/service"
	"github.com/garyjia/promoter-portal/internal/application/workflow"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// FileServer redeems signed download tokens. Only the local storage backend provides one.
type FileServer interface {
	Redeem(token string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// HealthChecker reports whether the backing components are reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	MaxUploadBytes int64
	// Location is used to read form dates; defaults to UTC
	Location *time.Location
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		AllowedOrigins: []string{"http://localhost:5173"},
		MaxUploadBytes: 5 << 20,
		Location:       time.UTC,
	}
}

// Services groups the application services the handlers call
type Services struct {
	Auth          service.AuthService
	Submission    service.SubmissionService
	Certificates  service.CertificateService
	Dashboard     service.DashboardService
	Roster        service.RosterService
	Profile       service.ProfileService
	Notifications service.NotificationService
	Workflow      workflow.WorkflowEngine
	Files         FileServer // nil when objects are served by the storage provider
	Health        HealthChecker
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	registerValidations()

	server := &Server{
		config:   config,
		router:   gin.New(),
		services: services,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	corsConfig := cors.DefaultConfig()
	if len(s.config.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.config.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	s.router.Use(cors.New(corsConfig))
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.services, s.config, s.logger)

	s.router.GET("/health", h.HealthCheck)
	if s.services.Files != nil {
		s.router.GET("/files", h.DownloadFile)
	}

	api := s.router.Group("/api")
	{
		api.POST("/auth/signup", h.SignUp)
		api.POST("/auth/login", h.Login)
	}

	authed := api.Group("", s.authMiddleware())
	{
		authed.GET("/me", h.GetProfile)
		authed.PUT("/me", h.UpdateProfile)
		authed.POST("/me/password", h.ChangePassword)

		authed.GET("/dashboard", h.PromoterDashboard)

		authed.POST("/requests/cash-advances", h.SubmitCashAdvance)
		authed.POST("/requests/mileage", h.SubmitMileage)
		authed.POST("/requests/meal-vouchers", h.SubmitMealVoucher)
		authed.POST("/requests/purchase-orders", h.SubmitPurchaseOrder)
		authed.POST("/requests/medical-certificates", h.SubmitMedicalCertificate)
		authed.GET("/requests", h.ListMyRequests)
		authed.GET("/requests/:id", h.GetRequest)
		authed.GET("/requests/:id/file", h.CertificateFileURL)

		authed.GET("/notifications", h.ListNotifications)
		authed.POST("/notifications/:id/read", h.MarkNotificationRead)
	}

	admin := authed.Group("/admin", requireAdmin())
	{
		admin.GET("/dashboard", h.AdminDashboard)
		admin.GET("/requests", h.AdminListRequests)
		admin.GET("/requests/export", h.ExportPending)
		admin.POST("/requests/:id/approve", h.Approve)
		admin.POST("/requests/:id/reject", h.Reject)
		admin.GET("/requests/:id/history", h.History)
		admin.GET("/promoters", h.ListPromoters)
		admin.POST("/promoters/:id/toggle", h.TogglePromoter)
		admin.PUT("/users/:id/role", h.SetRole)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
