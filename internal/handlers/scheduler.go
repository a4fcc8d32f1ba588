package handlers

import (
	"net/http"

	"github.com/proxyhive/proxyhive/internal/models"
	"github.com/proxyhive/proxyhive/internal/services/scheduler"
)

// SchedulerHandler implements the Scheduler control surface
// (GET/POST /proxies/scheduler/..., spec.md §4.6, §6).
type SchedulerHandler struct {
	engine *scheduler.Engine
}

// NewSchedulerHandler builds a SchedulerHandler bound to the running engine.
func NewSchedulerHandler(engine *scheduler.Engine) *SchedulerHandler {
	return &SchedulerHandler{engine: engine}
}

// Status handles GET /proxies/scheduler/status.
func (h *SchedulerHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Status())
}

// Update handles POST /proxies/scheduler/update.
func (h *SchedulerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.SchedulerConfigPatch
	if err := decodeAndValidate(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.engine.UpdateConfig(r.Context(), patch))
}
