// Package jobs is the in-memory job registry backing scrape/validate/generate
// progress tracking (spec.md §4.5).
package jobs

import (
	"sync"
	"time"

	"github.com/proxyhive/proxyhive/internal/common"
	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/proxyhive/proxyhive/internal/models"
)

// Registry is a process-local map of Job records, guarded by a single mutex.
// It owns no durable state and is rebuilt empty on every restart.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

// NewRegistry creates an empty job registry.
func NewRegistry() interfaces.JobRegistry {
	return &Registry{jobs: make(map[string]*models.Job)}
}

func (r *Registry) Create(kind models.JobKind) *models.Job {
	job := &models.Job{
		ID:        common.NewJobID(),
		Kind:      kind,
		Status:    models.JobStatusProcessing,
		Progress:  0,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	return job.Snapshot()
}

func (r *Registry) Get(id string) (*models.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	return job.Snapshot(), nil
}

// SetProgress clamps decreases: a later call with a lower value than the
// current progress never regresses the stored value.
func (r *Registry) SetProgress(id string, progress float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Status != models.JobStatusProcessing {
		return
	}
	if progress > job.Progress {
		job.Progress = progress
	}
}

func (r *Registry) Complete(id string, result map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return
	}
	now := time.Now()
	job.Status = models.JobStatusCompleted
	job.Progress = 1.0
	job.CompletedAt = &now
	duration := now.Sub(job.CreatedAt).Seconds()
	job.DurationSeconds = &duration
	job.Result = result
}

func (r *Registry) Fail(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return
	}
	now := time.Now()
	job.Status = models.JobStatusFailed
	job.CompletedAt = &now
	duration := now.Sub(job.CreatedAt).Seconds()
	job.DurationSeconds = &duration
	if err != nil {
		job.Error = err.Error()
	}
}
