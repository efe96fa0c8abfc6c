package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/garyjia/promoter-portal/internal/application/dispatcher"
	"github.com/garyjia/promoter-portal/internal/application/port"
	"github.com/garyjia/promoter-portal/internal/application/service"
	"github.com/garyjia/promoter-portal/internal/application/workflow"
	"github.com/garyjia/promoter-portal/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/promoter-portal/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components start in dependency order and close in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure
	database     *database.DB
	db           *sqlite.DB
	repositories *RepositoryBundle
	storage      *StorageBundle
	auth         *AuthBundle

	// Application
	dispatcher dispatcher.Dispatcher
	workflow   workflow.WorkflowEngine
	services   *ServiceBundle

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Request      port.RequestRepository
	Profile      port.ProfileRepository
	Credential   port.CredentialRepository
	History      port.HistoryRepository
	Notification port.NotificationRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Auth         service.AuthService
	Submission   service.SubmissionService
	Certificate  service.CertificateService
	Dashboard    service.DashboardService
	Roster       service.RosterService
	Profile      service.ProfileService
	Notification service.NotificationService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start brings the portal up: database and repositories, object storage,
// identity provider, dispatcher and approval engine, services, then the
// bootstrap admin. A failed step aborts the start and is reported by name.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"database", func(context.Context) error { return c.initDatabase() }},
		{"storage", c.initStorage},
		{"auth", func(context.Context) error { return c.initAuth() }},
		{"workflow", func(context.Context) error { return c.initDispatcherAndWorkflow() }},
		{"services", func(context.Context) error { return c.initServices() }},
		{"bootstrap admin", c.ensureAdmin},
	}
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			c.logger.Error("Container step failed", zap.String("step", step.name), zap.Error(err))
			return fmt.Errorf("start %s: %w", step.name, err)
		}
		c.logger.Debug("Container step done", zap.String("step", step.name))
	}

	c.ready.Store(true)
	c.logger.Info("Container started",
		zap.String("storage", c.config.Storage.Backend),
		zap.String("auth", c.config.Auth.Provider))
	return nil
}

func (c *Container) initStorage(ctx context.Context) error {
	bundle, err := ProvideStorage(ctx, &c.config.Storage, c.logger)
	if err != nil {
		return err
	}
	c.storage = bundle
	return nil
}

func (c *Container) initAuth() error {
	bundle, err := ProvideAuth(&c.config.Auth, c.repositories.Credential, c.logger)
	if err != nil {
		return err
	}
	c.auth = bundle
	return nil
}

func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Config:     c.config,
		Repos:      c.repositories,
		TxManager:  c.db,
		Storage:    c.storage,
		Auth:       c.auth,
		Dispatcher: c.dispatcher,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services
	return nil
}

func (c *Container) ensureAdmin(ctx context.Context) error {
	admin := c.config.Auth
	return c.services.Auth.EnsureAdmin(ctx, admin.AdminEmail, admin.AdminPassword, admin.AdminName)
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs error

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if c.database != nil {
		if err := c.database.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if errs != nil {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(multierr.Errors(errs))))
		return errs
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	check := func(name string, healthy bool, msg string) {
		status.Components[name] = ComponentHealth{Healthy: healthy, Message: msg}
		if !healthy {
			status.Overall = false
		}
	}

	switch {
	case c.database == nil:
		check("database", false, "not initialized")
	default:
		if err := c.database.PingContext(ctx); err != nil {
			check("database", false, fmt.Sprintf("ping failed: %v", err))
		} else {
			check("database", true, "")
		}
	}

	check("storage", c.storage != nil, statusMessage(c.storage != nil))
	check("dispatcher", c.dispatcher != nil, statusMessage(c.dispatcher != nil))
	check("services", c.services != nil, statusMessage(c.services != nil))

	return status
}

// Ping reports the first unhealthy component, if any
func (c *Container) Ping(ctx context.Context) error {
	health := c.Health(ctx)
	if health.Overall {
		return nil
	}
	for _, name := range []string{"database", "storage", "dispatcher", "services"} {
		if comp := health.Components[name]; !comp.Healthy {
			return fmt.Errorf("%s: %s", name, comp.Message)
		}
	}
	return fmt.Errorf("unhealthy")
}

func statusMessage(ok bool) string {
	if ok {
		return ""
	}
	return "not initialized"
}

// initDatabase initializes the database and all repositories using providers.
func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.database = dbBundle.DB
	c.db = dbBundle.TransactionMgr

	repos, err := ProvideRepositories(c.database.DB, c.logger)
	if err != nil {
		_ = c.database.Close()
		return err
	}

	c.repositories = repos
	return nil
}

// initDispatcherAndWorkflow initializes the event dispatcher and workflow engine using providers.
func (c *Container) initDispatcherAndWorkflow() error {
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp

	engine, err := ProvideWorkflowEngine(&WorkflowDeps{
		Repos:          c.repositories,
		TxManager:      c.db,
		Dispatcher:     c.dispatcher,
		StampRejection: c.config.StampRejection,
		Logger:         c.logger,
	})
	if err != nil {
		return err
	}
	c.workflow = engine
	return nil
}

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Storage returns the object storage bundle.
func (c *Container) Storage() *StorageBundle {
	return c.storage
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// WorkflowEngine returns the workflow engine.
func (c *Container) WorkflowEngine() workflow.WorkflowEngine {
	return c.workflow
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// ServiceLogger returns the key-value logger used by services and the HTTP adapter.
func (c *Container) ServiceLogger() service.Logger {
	return &zapLoggerAdapter{logger: c.logger}
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// zapLoggerAdapter turns key-value logging calls from services, the
// dispatcher and the workflow engine into zap fields.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
