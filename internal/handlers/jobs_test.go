package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proxyhive/proxyhive/internal/models"
)

func TestJobsHandler_Get_ProcessingJobIncludesProgressAndETA(t *testing.T) {
	registry := newFakeJobRegistry()
	job := registry.Create(models.JobKindScrape)
	registry.mu.Lock()
	job.Progress = 0.5
	registry.mu.Unlock()

	h := NewJobsHandler(registry)
	req := httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID, nil)
	w := httptest.NewRecorder()

	h.Get(w, req, job.ID)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"processing"`)
	assert.Contains(t, w.Body.String(), `"progress":0.5`)
	assert.Contains(t, w.Body.String(), `"eta_seconds"`)
}

func TestJobsHandler_Get_CompletedJobIncludesResult(t *testing.T) {
	registry := newFakeJobRegistry()
	job := registry.Create(models.JobKindScrape)
	registry.Complete(job.ID, map[string]interface{}{"saved": 3})

	h := NewJobsHandler(registry)
	req := httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID, nil)
	w := httptest.NewRecorder()

	h.Get(w, req, job.ID)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"completed"`)
	assert.Contains(t, w.Body.String(), `"saved":3`)
}

func TestJobsHandler_Get_UnknownIDReturns404(t *testing.T) {
	registry := newFakeJobRegistry()
	h := NewJobsHandler(registry)

	req := httptest.NewRequest(http.MethodGet, "/jobs/does-not-exist", nil)
	w := httptest.NewRecorder()

	h.Get(w, req, "does-not-exist")

	require.Equal(t, http.StatusNotFound, w.Code)
}
