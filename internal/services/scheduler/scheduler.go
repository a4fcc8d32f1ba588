// Package scheduler implements the Scheduler: a single cooperative loop
// ticking every 5s that enqueues scrape and validate jobs per the configured
// intervals (spec.md §4.6). The tick mechanism is robfig/cron/v3, carried
// over from the teacher's job scheduling service; the tick handler itself is
// rewritten for the proxy domain.
package scheduler

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/proxyhive/proxyhive/internal/common"
	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/proxyhive/proxyhive/internal/models"
	"github.com/proxyhive/proxyhive/internal/proxyline"
	"github.com/proxyhive/proxyhive/internal/services/coordinator"
	"github.com/proxyhive/proxyhive/internal/services/jobrunner"
	"github.com/proxyhive/proxyhive/internal/services/validator"
	"github.com/proxyhive/proxyhive/internal/services/webhooks"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

const configKey = "scheduler_config"

// Engine owns the Scheduler's config and the identities of its most recent
// jobs (spec.md §3 "Ownership").
type Engine struct {
	mu  sync.Mutex
	cfg models.SchedulerConfig

	kv          interfaces.KeyValueStorage
	catalog     interfaces.CatalogStore
	coordinator *coordinator.Coordinator
	validate    *validator.Validator
	jobs        interfaces.JobRegistry
	fanout      *webhooks.Fanout
	logger      arbor.ILogger

	scrapeTimeout time.Duration
	scrapeRetries int
	testURLs      []string
	checkAnonymity bool
	checkGeo       bool

	cron    *cron.Cron
	entryID cron.EntryID
	running bool
}

// New builds an Engine seeded from file-configured defaults; persisted
// overrides (if any) are applied by Start.
func New(
	fileCfg common.SchedulerConfig,
	kv interfaces.KeyValueStorage,
	catalog interfaces.CatalogStore,
	coord *coordinator.Coordinator,
	v *validator.Validator,
	jobs interfaces.JobRegistry,
	fanout *webhooks.Fanout,
	scrapeTimeout time.Duration,
	scrapeRetries int,
	logger arbor.ILogger,
) *Engine {
	testURLs := fileCfg.ValidateTestURLs
	if len(testURLs) == 0 {
		testURLs = []string{"http://example.com"}
	}

	return &Engine{
		cfg: models.SchedulerConfig{
			Enabled:             fileCfg.Enabled,
			ValidateIntervalMin: fileCfg.ValidateIntervalMin,
			ScrapeIntervalMin:   fileCfg.ScrapeIntervalMin,
			ValidateBatchSize:   fileCfg.ValidateBatchSize,
			ScrapeQuantity:      fileCfg.ScrapeQuantity,
		},
		kv:             kv,
		catalog:        catalog,
		coordinator:    coord,
		validate:       v,
		jobs:           jobs,
		fanout:         fanout,
		logger:         logger,
		scrapeTimeout:  scrapeTimeout,
		scrapeRetries:  scrapeRetries,
		testURLs:       testURLs,
		checkAnonymity: true,
		checkGeo:       true,
		cron:           cron.New(),
	}
}

// Start loads any persisted config override and registers the 5s tick.
// Idempotent: calling Start twice is a no-op.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}

	if raw, err := e.kv.Get(ctx, configKey); err == nil && raw != "" {
		var persisted models.SchedulerConfig
		if jsonErr := json.Unmarshal([]byte(raw), &persisted); jsonErr == nil {
			e.cfg = persisted
		}
	}
	e.running = true
	e.mu.Unlock()

	entryID, err := e.cron.AddFunc("@every 5s", func() { e.tick(context.Background()) })
	if err != nil {
		return err
	}
	e.entryID = entryID
	e.cron.Start()
	return nil
}

// Stop requests the loop to exit on its next wake; in-flight jobs continue
// to completion independently. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	stopCtx := e.cron.Stop()
	<-stopCtx.Done()
}

func (e *Engine) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Msg("Scheduler tick panicked")
		}
	}()

	e.mu.Lock()
	cfg := e.cfg
	e.mu.Unlock()

	if !cfg.Enabled {
		return
	}

	now := time.Now()

	if cfg.ScrapeIntervalMin > 0 && dueFor(cfg.LastScrapeAt, cfg.ScrapeIntervalMin, now) {
		e.runScrape(ctx, cfg.ScrapeQuantity)
	}

	if cfg.ValidateIntervalMin > 0 && dueFor(cfg.LastValidateAt, cfg.ValidateIntervalMin, now) {
		e.runValidate(ctx, cfg.ValidateBatchSize)
	}
}

func dueFor(last *time.Time, intervalMin int, now time.Time) bool {
	if last == nil {
		return true
	}
	return now.Sub(*last) >= time.Duration(intervalMin)*time.Minute
}

func (e *Engine) runScrape(ctx context.Context, quantity int) {
	job := e.jobs.Create(models.JobKindScrape)

	e.mu.Lock()
	now := time.Now()
	e.cfg.LastScrapeAt = &now
	e.cfg.LastScrapeJobID = job.ID
	e.persistLocked(ctx)
	e.mu.Unlock()

	common.SafeGo(e.logger, "scheduler-scrape", func() {
		e.executeScrape(context.Background(), job.ID, quantity)
	})
}

func (e *Engine) executeScrape(ctx context.Context, jobID string, quantity int) {
	result := jobrunner.ExecuteScrape(ctx, e.coordinator, e.catalog, e.jobs, e.fanout, jobID, jobrunner.ScrapeParams{
		Quantity: quantity,
		Timeout:  e.scrapeTimeout,
		Retries:  e.scrapeRetries,
	})

	e.mu.Lock()
	e.cfg.LastScrapeMetrics = result
	e.mu.Unlock()
}

func (e *Engine) runValidate(ctx context.Context, batchSize int) {
	job := e.jobs.Create(models.JobKindValidate)

	e.mu.Lock()
	now := time.Now()
	e.cfg.LastValidateAt = &now
	e.cfg.LastValidateJobID = job.ID
	e.persistLocked(ctx)
	testURLs := append([]string(nil), e.testURLs...)
	checkAnonymity, checkGeo := e.checkAnonymity, e.checkGeo
	e.mu.Unlock()

	common.SafeGo(e.logger, "scheduler-validate", func() {
		e.executeValidate(context.Background(), job.ID, batchSize, testURLs, checkAnonymity, checkGeo)
	})
}

func (e *Engine) executeValidate(ctx context.Context, jobID string, batchSize int, testURLs []string, checkAnonymity, checkGeo bool) {
	rows, err := e.catalog.SelectForValidation(ctx, batchSize, false, nil)
	if err != nil {
		e.jobs.Fail(jobID, err)
		return
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, proxyline.Format(r.IP, r.Port, r.Protocol))
	}

	jobResult, _ := jobrunner.ExecuteValidate(ctx, e.validate, e.jobs, e.fanout, jobID, jobrunner.ValidateParams{
		Proxies:        lines,
		TestURLs:       testURLs,
		TestAllURLs:    false,
		CheckAnonymity: checkAnonymity,
		CheckGeo:       checkGeo,
	})

	e.mu.Lock()
	e.cfg.LastValidateMetrics = jobResult
	e.mu.Unlock()
}

// Status returns the Scheduler snapshot for GET /proxies/scheduler/status.
func (e *Engine) Status() models.SchedulerStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := models.SchedulerStatus{SchedulerConfig: e.cfg}
	status.Running = e.running
	status.LastValidateMetrics = e.cfg.LastValidateMetrics
	status.LastScrapeMetrics = e.cfg.LastScrapeMetrics
	return status
}

// UpdateConfig replaces any positive field of patch and persists the result
// (spec.md §4.6 update_config()).
func (e *Engine) UpdateConfig(ctx context.Context, patch models.SchedulerConfigPatch) models.SchedulerStatus {
	e.mu.Lock()
	e.cfg.ApplyPositive(patch)
	e.persistLocked(ctx)
	status := models.SchedulerStatus{SchedulerConfig: e.cfg, LastValidateMetrics: e.cfg.LastValidateMetrics, LastScrapeMetrics: e.cfg.LastScrapeMetrics}
	status.Running = e.running
	e.mu.Unlock()
	return status
}

// persistLocked must be called with e.mu held.
func (e *Engine) persistLocked(ctx context.Context) {
	data, err := json.Marshal(e.cfg)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to marshal scheduler config for persistence")
		return
	}
	if _, err := e.kv.Upsert(ctx, configKey, string(data), "Scheduler config and last-run state"); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to persist scheduler config")
	}
}

