package config

import (
	"time"

	"github.com/garyjia/promoter-portal/internal/application/service"
	"github.com/garyjia/promoter-portal/internal/container"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
)

// ToContainerConfig converts the application Config to a container.Config.
// Call it on a validated Config; unparsable limits fall back to the defaults.
func (c *Config) ToContainerConfig() *container.Config {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		loc = time.UTC
	}

	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Storage: container.StorageConfig{
			Backend:      c.Storage.Backend,
			LocalDir:     c.Storage.LocalDir,
			PublicURL:    c.Storage.PublicURL,
			SigningKey:   c.Storage.SigningKey,
			SignedURLTTL: c.Storage.SignedURLTTL,
			S3Bucket:     c.Storage.S3Bucket,
			S3Region:     c.Storage.S3Region,
			S3Prefix:     c.Storage.S3Prefix,
			S3Endpoint:   c.Storage.S3Endpoint,
		},
		Auth: container.AuthConfig{
			Provider:           c.Auth.Provider,
			JWTSecret:          c.Auth.JWTSecret,
			TokenTTL:           c.Auth.TokenTTL,
			SupabaseURL:        c.Auth.SupabaseURL,
			SupabaseServiceKey: c.Auth.SupabaseServiceKey,
			AdminEmail:         c.Auth.AdminEmail,
			AdminPassword:      c.Auth.AdminPassword,
			AdminName:          c.Auth.AdminName,
		},
		Server: container.ServerConfig{
			Host:           c.Server.Host,
			Port:           c.Server.Port,
			ReadTimeout:    c.Server.ReadTimeout,
			WriteTimeout:   c.Server.WriteTimeout,
			AllowedOrigins: c.Server.AllowedOrigins,
		},
		Limits: c.Limits.toEntity(),
		Dashboard: service.DashboardConfig{
			RecentLimit:   c.Dashboard.RecentLimit,
			MileageWindow: c.Dashboard.MileageWindow,
		},
		StampRejection: c.Workflow.StampRejection,
		Location:       loc,
	}
}

func (l LimitsConfig) toEntity() entity.Limits {
	limits := entity.DefaultLimits()
	p, err := l.parse()
	if err != nil {
		return limits
	}
	limits.CashAdvanceMax = p.cashAdvanceMax
	limits.MileageMaxKm = p.mileageMaxKm
	limits.MileageRate = p.mileageRate
	limits.MileageMaxRate = p.mileageMaxRate
	limits.MealVoucherMax = p.mealVoucherMax
	limits.PurchaseOrderMax = p.purchaseOrderMax
	limits.CertificateMaxMiB = l.CertificateMaxMiB
	return limits
}
