package config

import (
	"fmt"
	"os"

	"shelf-reader/internal/domain"
	"shelf-reader/internal/service"
	"shelf-reader/internal/store"
	"shelf-reader/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config domain.Config
	Logger domain.Logger
	Store  store.Store

	ImportService   *service.ImportService
	DocumentService *service.DocumentService
	StatsService    *service.StatsService

	// Settings is the single process-wide reading configuration, loaded
	// once here and injected into each reader view at construction.
	Settings *domain.ReadingSettings
}

// NewContainer creates a new dependency injection container
func NewContainer() (*Container, error) {
	cfg := NewConfig()
	appLogger := logger.NewLogger(cfg.GetLogLevel())

	if err := os.MkdirAll(cfg.GetDataDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := store.Open(cfg.GetDatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	appStore := store.NewGormStore(db, appLogger,
		store.WithThumbnailCap(cfg.GetThumbnailMaxBytes()),
		store.WithSessionFloor(cfg.GetSessionFloor()),
	)
	if err := appStore.Migrate(); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	settings, err := appStore.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	return &Container{
		Config:          cfg,
		Logger:          appLogger,
		Store:           appStore,
		ImportService:   service.NewImportService(appStore, appLogger),
		DocumentService: service.NewDocumentService(appStore, appStore, appLogger),
		StatsService:    service.NewStatsService(appStore, appLogger),
		Settings:        settings,
	}, nil
}

// Close releases the container's resources.
func (c *Container) Close() error {
	return c.Store.Close()
}
