package handlers

import (
	"net/http"

	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/proxyhive/proxyhive/internal/models"
)

// WebhooksHandler implements the webhook registration surface
// (spec.md §4.7, §6).
type WebhooksHandler struct {
	store interfaces.WebhookStore
}

// NewWebhooksHandler builds a WebhooksHandler bound to the store it persists into.
func NewWebhooksHandler(store interfaces.WebhookStore) *WebhooksHandler {
	return &WebhooksHandler{store: store}
}

// Register handles POST /webhooks/register.
func (h *WebhooksHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterWebhookRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	wh, err := h.store.Register(r.Context(), req.URL, req.Events, req.SecretKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register webhook")
		return
	}
	writeJSON(w, http.StatusCreated, wh)
}

// List handles GET /webhooks?skip=&limit=.
func (h *WebhooksHandler) List(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 50)

	rows, total, err := h.store.List(r.Context(), skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list webhooks")
		return
	}
	writeJSON(w, http.StatusOK, models.WebhookListResponse{Total: total, Webhooks: rows})
}

// Delete handles DELETE /webhooks/{id}, returning the removed record
// (spec.md §6 "DELETE /webhooks/{id} -> the removed record").
func (h *WebhooksHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	removed, err := h.store.Delete(r.Context(), id)
	if err != nil {
		if notFoundIf(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete webhook")
		return
	}
	writeJSON(w, http.StatusOK, removed)
}
