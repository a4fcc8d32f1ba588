package models

import "time"

// SchedulerConfig is the persisted + observed state of the Scheduler
// (spec.md §3). Zero values for the interval/batch fields mean "disabled
// for that kind" per spec.md §4.6.
type SchedulerConfig struct {
	Enabled             bool `json:"enabled"`
	ValidateIntervalMin int  `json:"validate_interval_min"`
	ScrapeIntervalMin   int  `json:"scrape_interval_min"`
	ValidateBatchSize   int  `json:"validate_batch_size"`
	ScrapeQuantity      int  `json:"scrape_quantity"`

	Running          bool       `json:"running"`
	LastValidateAt   *time.Time `json:"last_validate_at,omitempty"`
	LastScrapeAt     *time.Time `json:"last_scrape_at,omitempty"`
	LastValidateJobID string    `json:"last_validate_job_id,omitempty"`
	LastScrapeJobID   string    `json:"last_scrape_job_id,omitempty"`
}

// ApplyPositive overwrites only the fields in patch that carry a
// positive/explicit value, matching the teacher scheduler's update_config
// semantics (never clobber an existing field with an absent/zero patch value).
func (c *SchedulerConfig) ApplyPositive(patch SchedulerConfigPatch) {
	if patch.Enabled != nil {
		c.Enabled = *patch.Enabled
	}
	if patch.ValidateIntervalMin != nil && *patch.ValidateIntervalMin > 0 {
		c.ValidateIntervalMin = *patch.ValidateIntervalMin
	}
	if patch.ScrapeIntervalMin != nil && *patch.ScrapeIntervalMin > 0 {
		c.ScrapeIntervalMin = *patch.ScrapeIntervalMin
	}
	if patch.ValidateBatchSize != nil && *patch.ValidateBatchSize > 0 {
		c.ValidateBatchSize = *patch.ValidateBatchSize
	}
	if patch.ScrapeQuantity != nil && *patch.ScrapeQuantity > 0 {
		c.ScrapeQuantity = *patch.ScrapeQuantity
	}
}

// SchedulerConfigPatch is the partial update body for
// POST /proxies/scheduler/update.
type SchedulerConfigPatch struct {
	Enabled             *bool `json:"enabled,omitempty"`
	ValidateIntervalMin *int  `json:"validate_interval_min,omitempty"`
	ScrapeIntervalMin   *int  `json:"scrape_interval_min,omitempty"`
	ValidateBatchSize   *int  `json:"validate_batch_size,omitempty"`
	ScrapeQuantity      *int  `json:"scrape_quantity,omitempty"`
}

// SchedulerStatus is the /proxies/scheduler/status response body.
type SchedulerStatus struct {
	SchedulerConfig
	LastValidateMetrics *ValidateJobResult `json:"last_validate_metrics,omitempty"`
	LastScrapeMetrics   *ScrapeJobResult    `json:"last_scrape_metrics,omitempty"`
}
