// -----------------------------------------------------------------------
// Last Modified: Wednesday, 5th November 2025 8:17:54 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/proxyhive/proxyhive/internal/common"
	"github.com/proxyhive/proxyhive/internal/handlers"
	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/proxyhive/proxyhive/internal/services/coordinator"
	"github.com/proxyhive/proxyhive/internal/services/jobs"
	"github.com/proxyhive/proxyhive/internal/services/scheduler"
	"github.com/proxyhive/proxyhive/internal/services/sources"
	"github.com/proxyhive/proxyhive/internal/services/validator"
	"github.com/proxyhive/proxyhive/internal/services/webhooks"
	"github.com/proxyhive/proxyhive/internal/storage"
)

// App holds all application components and dependencies.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager

	Coordinator *coordinator.Coordinator
	Validator   *validator.Validator
	JobRegistry interfaces.JobRegistry
	Scheduler   *scheduler.Engine
	Fanout      *webhooks.Fanout

	ProxiesHandler   *handlers.ProxiesHandler
	JobsHandler      *handlers.JobsHandler
	SchedulerHandler *handlers.SchedulerHandler
	WebhooksHandler  *handlers.WebhooksHandler
}

// New initializes the application with all dependencies.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	ctx := context.Background()
	if err := app.Scheduler.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}
	logger.Info().Msg("Scheduler started")

	logger.Info().
		Str("environment", cfg.Environment).
		Str("badger_path", cfg.Storage.Badger.Path).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage opens the BadgerDB-backed catalog/webhook/KV store.
func (a *App) initStorage() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = storageManager
	a.Logger.Info().
		Str("path", a.Config.Storage.Badger.Path).
		Bool("reset_on_startup", a.Config.Storage.Badger.ResetOnStartup).
		Msg("Storage layer initialized")
	return nil
}

// initServices wires the Scraping Coordinator, Proxy Validator, Job
// Registry, Scheduler, and Webhook Fan-out over the storage layer.
func (a *App) initServices() error {
	a.Coordinator = coordinator.New(
		sources.DefaultAdapters(),
		a.Config.Scraper.CacheTTL(),
		a.Config.Scraper.RateLimitPerMin,
		a.Logger,
	)
	a.Logger.Info().Int("source_count", len(sources.DefaultAdapters())).Msg("Scraping Coordinator initialized")

	a.Validator = validator.New(
		a.StorageManager.CatalogStore(),
		validator.Config{
			GeoProvider:     a.Config.Validator.GeoProvider,
			AnonymityMode:   a.Config.Validator.AnonymityMode,
			ConcurrentTests: a.Config.Validator.ConcurrentTests,
			Timeout:         a.Config.Validator.Timeout(),
		},
		a.Logger,
	)
	a.Logger.Info().Msg("Proxy Validator initialized")

	a.JobRegistry = jobs.NewRegistry()

	a.Fanout = webhooks.New(a.StorageManager.WebhookStore(), a.Config.Webhooks.Timeout(), a.Logger)

	a.Scheduler = scheduler.New(
		a.Config.Scheduler,
		a.StorageManager.KeyValueStorage(),
		a.StorageManager.CatalogStore(),
		a.Coordinator,
		a.Validator,
		a.JobRegistry,
		a.Fanout,
		a.Config.Scraper.Timeout(),
		a.Config.Scraper.MaxRetries,
		a.Logger,
	)

	return nil
}

// initHandlers wires the control-plane HTTP handlers over the service layer.
func (a *App) initHandlers() {
	a.ProxiesHandler = handlers.NewProxiesHandler(
		a.StorageManager.CatalogStore(),
		a.Coordinator,
		a.Validator,
		a.JobRegistry,
		a.Fanout,
		a.Config.Scraper.Timeout(),
		a.Config.Scraper.MaxRetries,
		a.Logger,
	)
	a.JobsHandler = handlers.NewJobsHandler(a.JobRegistry)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.Scheduler)
	a.WebhooksHandler = handlers.NewWebhooksHandler(a.StorageManager.WebhookStore())
}

// Close closes all application resources.
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
		a.Logger.Info().Msg("Scheduler stopped")
	}

	a.Logger.Info().Msg("Flushing context logs")
	common.Stop()

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	time.Sleep(50 * time.Millisecond)
	return nil
}
