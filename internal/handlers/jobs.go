package handlers

import (
	"net/http"
	"time"

	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/proxyhive/proxyhive/internal/models"
)

// JobsHandler implements GET /jobs/{id} (spec.md §4.5, §6).
type JobsHandler struct {
	jobs interfaces.JobRegistry
}

// NewJobsHandler builds a JobsHandler bound to the registry it reads from.
func NewJobsHandler(jobs interfaces.JobRegistry) *JobsHandler {
	return &JobsHandler{jobs: jobs}
}

// Get handles GET /jobs/{id}.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	job, err := h.jobs.Get(id)
	if err != nil {
		if notFoundIf(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get job")
		return
	}

	resp := models.JobStatusResponse{
		JobID:  job.ID,
		Status: string(job.Status),
		Result: job.Result,
		Error:  job.Error,
	}
	if job.Status == models.JobStatusProcessing {
		progress := job.Progress
		resp.Progress = &progress
		elapsed := time.Since(job.CreatedAt).Seconds()
		if progress > 0 {
			eta := elapsed/progress - elapsed
			if eta < 0 {
				eta = 0
			}
			resp.ETASeconds = &eta
		}
	}
	if job.DurationSeconds != nil {
		resp.DurationSeconds = job.DurationSeconds
	}

	writeJSON(w, http.StatusOK, resp)
}
