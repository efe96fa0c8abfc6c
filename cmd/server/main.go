package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/garyjia/promoter-portal/internal/config"
	"github.com/garyjia/promoter-portal/internal/container"
	httpserver "github.com/garyjia/promoter-portal/internal/interfaces/http"
	"github.com/garyjia/promoter-portal/pkg/utils"
)

func main() {
	configPath := os.Getenv("PORTAL_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Service:    "promoter-portal",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting Portal do Promotor",
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("auth", cfg.Auth.Provider))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	containerCfg := cfg.ToContainerConfig()
	c, err := container.NewContainer(containerCfg, logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}
	if err := c.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Container close failed", zap.Error(err))
		}
	}()

	services := c.Services()
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:           containerCfg.Server.Host,
		Port:           containerCfg.Server.Port,
		ReadTimeout:    containerCfg.Server.ReadTimeout,
		WriteTimeout:   containerCfg.Server.WriteTimeout,
		AllowedOrigins: containerCfg.Server.AllowedOrigins,
		MaxUploadBytes: containerCfg.Limits.CertificateMaxBytes(),
		Location:       containerCfg.Location,
	}, httpserver.Services{
		Auth:          services.Auth,
		Submission:    services.Submission,
		Certificates:  services.Certificate,
		Dashboard:     services.Dashboard,
		Roster:        services.Roster,
		Profile:       services.Profile,
		Notifications: services.Notification,
		Workflow:      c.WorkflowEngine(),
		Files:         c.Storage().Files,
		Health:        c,
	}, c.ServiceLogger())

	// Start blocks until the signal context is cancelled
	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server stopped with error", zap.Error(err))
	}

	logger.Info("Server exited")
}
