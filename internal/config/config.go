package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	Limits    LimitsConfig    `mapstructure:"limits"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// AppConfig holds process-wide settings
type AppConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StorageConfig selects and configures the certificate file store
type StorageConfig struct {
	Backend      string        `mapstructure:"backend"` // local or s3
	LocalDir     string        `mapstructure:"local_dir"`
	PublicURL    string        `mapstructure:"public_url"`
	SigningKey   string        `mapstructure:"signing_key"`
	SignedURLTTL time.Duration `mapstructure:"signed_url_ttl"`
	S3Bucket     string        `mapstructure:"s3_bucket"`
	S3Region     string        `mapstructure:"s3_region"`
	S3Prefix     string        `mapstructure:"s3_prefix"`
	S3Endpoint   string        `mapstructure:"s3_endpoint"`
}

// AuthConfig selects the identity provider and signs session tokens
type AuthConfig struct {
	Provider           string        `mapstructure:"provider"` // local or supabase
	JWTSecret          string        `mapstructure:"jwt_secret"`
	TokenTTL           time.Duration `mapstructure:"token_ttl"`
	SupabaseURL        string        `mapstructure:"supabase_url"`
	SupabaseServiceKey string        `mapstructure:"supabase_service_key"`
	AdminEmail         string        `mapstructure:"admin_email"`
	AdminPassword      string        `mapstructure:"admin_password"`
	AdminName          string        `mapstructure:"admin_name"`
}

// WorkflowConfig holds approval settings
type WorkflowConfig struct {
	StampRejection bool `mapstructure:"stamp_rejection"`
}

// LimitsConfig holds the submission ceilings. Money values are decimal strings.
type LimitsConfig struct {
	CashAdvanceMax    string `mapstructure:"cash_advance_max"`
	MileageMaxKm      string `mapstructure:"mileage_max_km"`
	MileageRate       string `mapstructure:"mileage_rate"`
	MileageMaxRate    string `mapstructure:"mileage_max_rate"`
	MealVoucherMax    string `mapstructure:"meal_voucher_max"`
	PurchaseOrderMax  string `mapstructure:"purchase_order_max"`
	CertificateMaxMiB int64  `mapstructure:"certificate_max_mib"`
}

// DashboardConfig holds dashboard windows
type DashboardConfig struct {
	RecentLimit   int `mapstructure:"recent_limit"`
	MileageWindow int `mapstructure:"mileage_window"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
// A .env file in the working directory is applied to the environment first.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := gotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Override with environment variables
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.timezone", "America/Sao_Paulo")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})

	// Database defaults
	v.SetDefault("database.path", "data/portal.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)

	// Storage defaults
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_dir", "data/atestados")
	v.SetDefault("storage.public_url", "http://localhost:8080/files")
	v.SetDefault("storage.signed_url_ttl", 60*time.Second)

	// Auth defaults
	v.SetDefault("auth.provider", "local")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("auth.admin_name", "Administrador")

	v.SetDefault("workflow.stamp_rejection", true)

	// Limits defaults
	v.SetDefault("limits.cash_advance_max", "5000.00")
	v.SetDefault("limits.mileage_max_km", "2000")
	v.SetDefault("limits.mileage_rate", "0.70")
	v.SetDefault("limits.mileage_max_rate", "10.00")
	v.SetDefault("limits.meal_voucher_max", "1000.00")
	v.SetDefault("limits.purchase_order_max", "50000.00")
	v.SetDefault("limits.certificate_max_mib", 5)

	v.SetDefault("dashboard.recent_limit", 5)
	v.SetDefault("dashboard.mileage_window", 3)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Sensitive credentials from environment
	_ = v.BindEnv("auth.jwt_secret", "PORTAL_JWT_SECRET")
	_ = v.BindEnv("auth.supabase_url", "SUPABASE_URL")
	_ = v.BindEnv("auth.supabase_service_key", "SUPABASE_SERVICE_KEY")
	_ = v.BindEnv("auth.admin_email", "PORTAL_ADMIN_EMAIL")
	_ = v.BindEnv("auth.admin_password", "PORTAL_ADMIN_PASSWORD")
	_ = v.BindEnv("storage.signing_key", "PORTAL_STORAGE_SIGNING_KEY")
	_ = v.BindEnv("storage.s3_bucket", "PORTAL_S3_BUCKET")
	_ = v.BindEnv("storage.s3_region", "AWS_REGION")
	_ = v.BindEnv("database.path", "PORTAL_DATABASE_PATH")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("app.timezone: %w", err)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	switch c.Auth.Provider {
	case "local":
	case "supabase":
		if c.Auth.SupabaseURL == "" || c.Auth.SupabaseServiceKey == "" {
			return fmt.Errorf("auth.supabase_url and auth.supabase_service_key are required for the supabase provider")
		}
	default:
		return fmt.Errorf("auth.provider must be local or supabase, got %q", c.Auth.Provider)
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir is required")
		}
		if c.Storage.SigningKey == "" {
			return fmt.Errorf("storage.signing_key is required for the local backend")
		}
	case "s3":
		if c.Storage.S3Bucket == "" || c.Storage.S3Region == "" {
			return fmt.Errorf("storage.s3_bucket and storage.s3_region are required for the s3 backend")
		}
	default:
		return fmt.Errorf("storage.backend must be local or s3, got %q", c.Storage.Backend)
	}
	if c.Storage.SignedURLTTL <= 0 {
		return fmt.Errorf("storage.signed_url_ttl must be positive")
	}

	if _, err := c.Limits.parse(); err != nil {
		return err
	}
	return nil
}

type parsedLimits struct {
	cashAdvanceMax, mileageMaxKm, mileageRate, mileageMaxRate, mealVoucherMax, purchaseOrderMax decimal.Decimal
}

func (l LimitsConfig) parse() (parsedLimits, error) {
	var p parsedLimits
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"limits.cash_advance_max", l.CashAdvanceMax, &p.cashAdvanceMax},
		{"limits.mileage_max_km", l.MileageMaxKm, &p.mileageMaxKm},
		{"limits.mileage_rate", l.MileageRate, &p.mileageRate},
		{"limits.mileage_max_rate", l.MileageMaxRate, &p.mileageMaxRate},
		{"limits.meal_voucher_max", l.MealVoucherMax, &p.mealVoucherMax},
		{"limits.purchase_order_max", l.PurchaseOrderMax, &p.purchaseOrderMax},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return p, fmt.Errorf("%s: %w", f.name, err)
		}
		if !d.IsPositive() {
			return p, fmt.Errorf("%s must be positive", f.name)
		}
		*f.dst = d
	}
	if p.mileageRate.GreaterThan(p.mileageMaxRate) {
		return p, fmt.Errorf("limits.mileage_rate exceeds limits.mileage_max_rate")
	}
	if l.CertificateMaxMiB <= 0 {
		return p, fmt.Errorf("limits.certificate_max_mib must be positive")
	}
	return p, nil
}
