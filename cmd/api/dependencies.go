package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pocketledger/pocketledger/internal/domain/importer/handler"
	"github.com/pocketledger/pocketledger/internal/domain/importer/repository"
	"github.com/pocketledger/pocketledger/internal/domain/importer/service"
	"github.com/pocketledger/pocketledger/pkg/config"
	"github.com/pocketledger/pocketledger/pkg/cron"
	"github.com/pocketledger/pocketledger/pkg/db"
	"github.com/pocketledger/pocketledger/pkg/metrics"
	"github.com/pocketledger/pocketledger/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	ImportRepo repository.ImportRepository

	// Services
	ImportService *service.ImportService
	Uploads       storage.UploadStore
	Scheduler     *cron.Scheduler

	// Observability
	Registry      *prometheus.Registry
	ImportMetrics *metrics.ImportMetrics

	// Handlers
	ImportHandler *handler.Handler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	d.ImportRepo = repository.NewPostgresImportRepository(d.DB.Pool, d.Logger)

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	uploads, err := storage.NewLocalStore(d.Config.Uploads.Path)
	if err != nil {
		return fmt.Errorf("failed to init upload store: %w", err)
	}
	d.Uploads = uploads

	d.ImportService = service.NewImportService(d.ImportRepo, d.Uploads, d.Logger)

	if d.Config.Observability.MetricsEnabled {
		d.Registry = prometheus.NewRegistry()
		d.ImportMetrics = metrics.NewImportMetrics(d.Registry)
		d.ImportService = d.ImportService.WithMetrics(d.ImportMetrics)
	}

	// Stale uploads are pruned on a schedule rather than on access so a
	// user can step away between analyze and commit within the retention
	// window.
	d.Scheduler = cron.NewScheduler(d.Uploads, d.Config.Uploads.Retention, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.ImportHandler = handler.NewHandler(d.ImportService, d.Logger)

	d.Logger.Info("handlers initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		d.Scheduler.Stop()
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
