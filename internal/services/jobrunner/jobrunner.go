// Package jobrunner executes one scrape or validate job to completion,
// updating the Job Registry and triggering the Webhook Fan-out on finish.
// It is shared by the Scheduler's tick and by the control plane's
// POST /proxies/schedule and auto-validating import paths, so the two
// surfaces cannot drift in how a job's lifecycle is driven.
package jobrunner

import (
	"context"
	"time"

	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/proxyhive/proxyhive/internal/models"
	"github.com/proxyhive/proxyhive/internal/services/coordinator"
	"github.com/proxyhive/proxyhive/internal/services/validator"
	"github.com/proxyhive/proxyhive/internal/services/webhooks"
)

// ScrapeParams is the Scraping Coordinator input for one scrape job.
type ScrapeParams struct {
	Quantity  int
	Country   string
	Protocols []models.Protocol
	Sources   []string
	Timeout   time.Duration
	Retries   int
}

// ExecuteScrape runs a scrape job to completion: fetch candidates, persist
// them, update job progress, and fan out "scrape.completed" on finish.
func ExecuteScrape(
	ctx context.Context,
	coord *coordinator.Coordinator,
	catalog interfaces.CatalogStore,
	jobs interfaces.JobRegistry,
	fanout *webhooks.Fanout,
	jobID string,
	params ScrapeParams,
) *models.ScrapeJobResult {
	defer func() {
		if r := recover(); r != nil {
			jobs.Fail(jobID, panicErr(r))
		}
	}()

	candidates := coord.Scrape(ctx, coordinator.Request{
		Country:   params.Country,
		Protocols: params.Protocols,
		Sources:   params.Sources,
		Quantity:  params.Quantity,
		Timeout:   params.Timeout,
		Retries:   params.Retries,
	})

	bySource := map[string]int{}
	saved := 0
	total := len(candidates)
	for i, c := range candidates {
		if _, err := catalog.Upsert(ctx, c.IP, c.Port, c.Protocol, c.Country, c.Source); err == nil {
			saved++
			bySource[c.Source]++
		}
		if total > 0 {
			jobs.SetProgress(jobID, float64(i+1)/float64(total))
		}
	}

	result := &models.ScrapeJobResult{TotalFound: total, Saved: saved, BySource: bySource}
	jobs.Complete(jobID, result.ToMap())
	if fanout != nil {
		fanout.Trigger(ctx, "scrape.completed", result.ToMap())
	}
	return result
}

// ValidateParams is the Proxy Validator input for one validate job.
type ValidateParams struct {
	Proxies         []string
	TestURLs        []string
	Timeout         time.Duration
	TestAllURLs     bool
	CheckAnonymity  bool
	CheckGeo        bool
	ConcurrentTests int
}

// ExecuteValidate runs a validate job to completion and fans out
// "validate.completed" on finish. The per-proxy ValidationResult slice is
// returned alongside the job-result summary for synchronous callers.
func ExecuteValidate(
	ctx context.Context,
	v *validator.Validator,
	jobs interfaces.JobRegistry,
	fanout *webhooks.Fanout,
	jobID string,
	params ValidateParams,
) (*models.ValidateJobResult, []models.ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			jobs.Fail(jobID, panicErr(r))
		}
	}()

	results := v.ValidateBatch(ctx, params.Proxies, validator.BatchOptions{
		TestURLs:        params.TestURLs,
		Timeout:         params.Timeout,
		TestAllURLs:     params.TestAllURLs,
		CheckAnonymity:  params.CheckAnonymity,
		CheckGeo:        params.CheckGeo,
		ConcurrentTests: params.ConcurrentTests,
	})

	valid := 0
	var avgSum float64
	var avgCount int
	for i, r := range results {
		if r.Valid {
			valid++
		}
		if r.Valid && r.AvgResponseTimeMs != nil {
			avgSum += float64(*r.AvgResponseTimeMs)
			avgCount++
		}
		if len(results) > 0 {
			jobs.SetProgress(jobID, float64(i+1)/float64(len(results)))
		}
	}

	result := &models.ValidateJobResult{
		TotalTested: len(results),
		Valid:       valid,
		Invalid:     len(results) - valid,
	}
	if avgCount > 0 {
		avg := avgSum / float64(avgCount)
		result.AvgResponseTimeMsValid = &avg
	}

	jobs.Complete(jobID, result.ToMap())
	if fanout != nil {
		fanout.Trigger(ctx, "validate.completed", result.ToMap())
	}
	return result, results
}

func panicErr(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &panicError{r}
}

type panicError struct{ v interface{} }

func (p *panicError) Error() string {
	if s, ok := p.v.(string); ok {
		return "panic: " + s
	}
	return "panic in job worker"
}
