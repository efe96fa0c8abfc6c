// Package container provides dependency injection and lifecycle management
// for the promoter portal following Clean Architecture principles.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/promoter-portal/internal/application/service"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
)

// Storage backends
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Identity providers
const (
	AuthLocal    = "local"
	AuthSupabase = "supabase"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Storage configuration
	Storage StorageConfig

	// Auth configuration
	Auth AuthConfig

	// Server configuration
	Server ServerConfig

	// Domain settings
	Limits         entity.Limits
	Dashboard      service.DashboardConfig
	StampRejection bool
	Location       *time.Location
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// StorageConfig holds certificate file storage settings.
type StorageConfig struct {
	// Backend is local or s3
	Backend string

	// LocalDir is the root directory of the local backend
	LocalDir string

	// PublicURL is where GET /files is reachable; local signed links point here
	PublicURL string

	// SigningKey signs local download tokens
	SigningKey string

	// SignedURLTTL is how long a certificate link stays valid
	SignedURLTTL time.Duration

	S3Bucket   string
	S3Region   string
	S3Prefix   string
	S3Endpoint string
}

// AuthConfig holds identity and session settings.
type AuthConfig struct {
	// Provider is local or supabase
	Provider string

	JWTSecret string
	TokenTTL  time.Duration

	SupabaseURL        string
	SupabaseServiceKey string

	// Bootstrap admin, created or promoted on start when AdminEmail is set
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:         "data/portal.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Storage: StorageConfig{
			Backend:      StorageLocal,
			LocalDir:     "data/atestados",
			PublicURL:    "http://localhost:8080/files",
			SignedURLTTL: 60 * time.Second,
		},
		Auth: AuthConfig{
			Provider:  AuthLocal,
			TokenTTL:  12 * time.Hour,
			AdminName: "Administrador",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Limits:         entity.DefaultLimits(),
		Dashboard:      service.DashboardConfig{RecentLimit: 5, MileageWindow: 3},
		StampRejection: true,
		Location:       time.UTC,
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Auth.Provider != AuthLocal && c.Auth.Provider != AuthSupabase {
		return fmt.Errorf("unknown auth provider %q", c.Auth.Provider)
	}

	switch c.Storage.Backend {
	case StorageLocal:
		if c.Storage.LocalDir == "" || c.Storage.SigningKey == "" {
			return fmt.Errorf("storage.local_dir and storage.signing_key are required")
		}
	case StorageS3:
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("storage.s3_bucket is required")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Location == nil {
		return fmt.Errorf("location is required")
	}
	return nil
}
