package container

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/promoter-portal/internal/application/dispatcher"
	"github.com/garyjia/promoter-portal/internal/application/port"
	"github.com/garyjia/promoter-portal/internal/application/service"
	"github.com/garyjia/promoter-portal/internal/application/workflow"
	"github.com/garyjia/promoter-portal/internal/infrastructure/auth"
	"github.com/garyjia/promoter-portal/internal/infrastructure/document"
	"github.com/garyjia/promoter-portal/internal/infrastructure/export"
	"github.com/garyjia/promoter-portal/internal/infrastructure/persistence/repository"
	"github.com/garyjia/promoter-portal/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/promoter-portal/internal/infrastructure/storage"
	"github.com/garyjia/promoter-portal/migrations"
	"github.com/garyjia/promoter-portal/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// StorageBundle holds the object store and, for the local backend, the
// download endpoint that redeems its signed links.
type StorageBundle struct {
	Objects port.ObjectStorage
	Files   FileServer
}

// FileServer redeems local signed download tokens
type FileServer interface {
	Redeem(token string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// AuthBundle holds identity and token components.
type AuthBundle struct {
	Identity port.IdentityProvider
	Tokens   port.TokenIssuer
}

// ProvideDatabase opens the database and applies the embedded migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Run(migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Request:      repository.NewRequestRepository(sqlDB, logger),
		Profile:      repository.NewProfileRepository(sqlDB, logger),
		Credential:   repository.NewCredentialRepository(sqlDB, logger),
		History:      repository.NewHistoryRepository(sqlDB, logger),
		Notification: repository.NewNotificationRepository(sqlDB, logger),
	}, nil
}

// ProvideStorage creates the object store for the configured backend.
func ProvideStorage(ctx context.Context, cfg *StorageConfig, logger *zap.Logger) (*StorageBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Backend {
	case StorageS3:
		s3Store, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			KeyPrefix: cfg.S3Prefix,
			Endpoint:  cfg.S3Endpoint,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 storage: %w", err)
		}
		return &StorageBundle{Objects: s3Store}, nil

	case StorageLocal:
		local := storage.NewLocalStorage(cfg.LocalDir, cfg.PublicURL, storage.NewURLSigner(cfg.SigningKey), logger)
		return &StorageBundle{Objects: local, Files: local}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// ProvideAuth creates the identity provider and the session token issuer.
func ProvideAuth(cfg *AuthConfig, creds port.CredentialRepository, logger *zap.Logger) (*AuthBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("auth config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	var identity port.IdentityProvider
	switch cfg.Provider {
	case AuthSupabase:
		sp, err := auth.NewSupabaseProvider(cfg.SupabaseURL, cfg.SupabaseServiceKey, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create supabase provider: %w", err)
		}
		identity = sp
	case AuthLocal:
		identity = auth.NewLocalProvider(creds, logger)
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Provider)
	}

	return &AuthBundle{
		Identity: identity,
		Tokens:   auth.NewJWTIssuer(cfg.JWTSecret, cfg.TokenTTL),
	}, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return dispatcher.NewDispatcher(dispatcher.WithLogger(&zapLoggerAdapter{logger: logger})), nil
}

// ServiceDeps contains dependencies for creating services.
type ServiceDeps struct {
	Config     *Config
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Storage    *StorageBundle
	Auth       *AuthBundle
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideServices creates all application services and subscribes the
// notification handlers to the dispatcher.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil || deps.Storage == nil || deps.Auth == nil {
		return nil, fmt.Errorf("repositories, storage and auth are required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	cfg := deps.Config
	log := &zapLoggerAdapter{logger: deps.Logger}

	notifications := service.NewNotificationService(deps.Repos.Notification, deps.Repos.Profile, log)
	notifications.Register(deps.Dispatcher)

	return &ServiceBundle{
		Auth: service.NewAuthService(deps.Auth.Identity, deps.Auth.Tokens, deps.Repos.Profile, deps.TxManager, log),
		Submission: service.NewSubmissionService(
			deps.Repos.Request,
			deps.Storage.Objects,
			document.NewInspector(deps.Logger),
			deps.Dispatcher,
			cfg.Limits,
			cfg.Location,
			log,
		),
		Certificate: service.NewCertificateService(deps.Repos.Request, deps.Storage.Objects, cfg.Storage.SignedURLTTL, log),
		Dashboard: service.NewDashboardService(
			deps.Repos.Request,
			deps.Repos.Profile,
			export.NewXLSXExporter(cfg.Location, deps.Logger),
			cfg.Dashboard,
			log,
		),
		Roster:       service.NewRosterService(deps.Repos.Profile, deps.Dispatcher, log),
		Profile:      service.NewProfileService(deps.Repos.Profile, deps.Auth.Identity, log),
		Notification: notifications,
	}, nil
}

// WorkflowDeps contains dependencies for creating the workflow engine.
type WorkflowDeps struct {
	Repos          *RepositoryBundle
	TxManager      port.TransactionManager
	Dispatcher     dispatcher.Dispatcher
	StampRejection bool
	Logger         *zap.Logger
}

// ProvideWorkflowEngine creates the approval engine.
func ProvideWorkflowEngine(deps *WorkflowDeps) (workflow.WorkflowEngine, error) {
	if deps == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}
	if deps.Repos == nil || deps.TxManager == nil || deps.Dispatcher == nil {
		return nil, fmt.Errorf("repositories, transaction manager and dispatcher are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return workflow.NewEngine(
		deps.Repos.Request,
		deps.Repos.History,
		deps.TxManager,
		workflow.WithDispatcher(deps.Dispatcher),
		workflow.WithLogger(&zapLoggerAdapter{logger: deps.Logger}),
		workflow.WithRejectionStamp(deps.StampRejection),
	), nil
}
