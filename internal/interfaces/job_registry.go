package interfaces

import (
	"errors"

	"github.com/proxyhive/proxyhive/internal/models"
)

// ErrJobNotFound is returned when a job id is unknown to the registry.
var ErrJobNotFound = errors.New("job not found")

// JobRegistry is the in-memory map of job records (spec.md §4.5). Lifetimes
// are process-local; it owns no durable state.
type JobRegistry interface {
	// Create immediately returns a new processing job.
	Create(kind models.JobKind) *models.Job

	Get(id string) (*models.Job, error)

	// SetProgress advances progress monotonically; later calls with a lower
	// value than the current progress are clamped to the current value.
	SetProgress(id string, progress float64)

	Complete(id string, result map[string]interface{})
	Fail(id string, err error)
}
