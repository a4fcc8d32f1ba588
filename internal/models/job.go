package models

import "time"

// JobKind is the kind of asynchronous work a Job tracks.
type JobKind string

const (
	JobKindScrape   JobKind = "scrape"
	JobKindValidate JobKind = "validate"
	JobKindGenerate JobKind = "generate"
)

// JobStatus is the lifecycle state of a Job.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job is an in-memory record of asynchronous scrape/validate/generate work.
// It is created when submitted and mutated exclusively by its owning worker;
// terminal on completion or failure. Retention is process-lifetime.
type Job struct {
	ID              string                 `json:"id"`
	Kind            JobKind                `json:"kind"`
	Status          JobStatus              `json:"status"`
	Progress        float64                `json:"progress"`
	CreatedAt       time.Time              `json:"created_at"`
	CompletedAt     *time.Time             `json:"-"`
	DurationSeconds *float64               `json:"duration_seconds,omitempty"`
	Result          map[string]interface{} `json:"result,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

// Snapshot returns a defensive copy safe to hand to a caller outside the
// registry's lock.
func (j *Job) Snapshot() *Job {
	clone := *j
	if j.Result != nil {
		clone.Result = make(map[string]interface{}, len(j.Result))
		for k, v := range j.Result {
			clone.Result[k] = v
		}
	}
	return &clone
}

// ValidateJobResult is the result shape produced by a validate job
// (spec.md §4.5).
type ValidateJobResult struct {
	TotalTested            int      `json:"total_tested"`
	Valid                  int      `json:"valid"`
	Invalid                int      `json:"invalid"`
	AvgResponseTimeMsValid *float64 `json:"avg_response_time_ms_valid,omitempty"`
}

// ScrapeJobResult is the result shape produced by a scrape job
// (spec.md §4.5).
type ScrapeJobResult struct {
	TotalFound int            `json:"total_found"`
	Saved      int            `json:"saved"`
	BySource   map[string]int `json:"by_source"`
}

// ToMap converts a typed job result into the generic map a Job stores so
// that JSON marshaling of a registry snapshot needs no type switch.
func (r *ValidateJobResult) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"total_tested": r.TotalTested,
		"valid":        r.Valid,
		"invalid":      r.Invalid,
	}
	if r.AvgResponseTimeMsValid != nil {
		m["avg_response_time_ms_valid"] = *r.AvgResponseTimeMsValid
	}
	return m
}

// ToMap converts a typed scrape result into the generic map a Job stores.
func (r *ScrapeJobResult) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"total_found": r.TotalFound,
		"saved":       r.Saved,
		"by_source":   r.BySource,
	}
}
