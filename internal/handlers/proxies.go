package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/proxyhive/proxyhive/internal/common"
	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/proxyhive/proxyhive/internal/models"
	"github.com/proxyhive/proxyhive/internal/proxyline"
	"github.com/proxyhive/proxyhive/internal/services/coordinator"
	"github.com/proxyhive/proxyhive/internal/services/jobrunner"
	"github.com/proxyhive/proxyhive/internal/services/validator"
	"github.com/proxyhive/proxyhive/internal/services/webhooks"
	"github.com/ternarybob/arbor"
)

// ProxiesHandler implements the proxy-catalog surface of the control plane
// (spec.md §6): scrape, validate, list, random, stats, export, get/update,
// delete, import, schedule.
type ProxiesHandler struct {
	catalog     interfaces.CatalogStore
	coordinator *coordinator.Coordinator
	validate    *validator.Validator
	jobs        interfaces.JobRegistry
	fanout      *webhooks.Fanout
	logger      arbor.ILogger

	defaultTimeout time.Duration
	defaultRetries int
}

// NewProxiesHandler builds a ProxiesHandler bound to the services it
// delegates to; it holds no state of its own beyond defaults.
func NewProxiesHandler(
	catalog interfaces.CatalogStore,
	coord *coordinator.Coordinator,
	v *validator.Validator,
	jobs interfaces.JobRegistry,
	fanout *webhooks.Fanout,
	defaultTimeout time.Duration,
	defaultRetries int,
	logger arbor.ILogger,
) *ProxiesHandler {
	return &ProxiesHandler{
		catalog:        catalog,
		coordinator:    coord,
		validate:       v,
		jobs:           jobs,
		fanout:         fanout,
		logger:         logger,
		defaultTimeout: defaultTimeout,
		defaultRetries: defaultRetries,
	}
}

// Scrape handles POST /proxies/scrape: runs a scrape synchronously and
// returns the inserted items.
func (h *ProxiesHandler) Scrape(w http.ResponseWriter, r *http.Request) {
	var req models.ScrapeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	start := time.Now()
	timeout := h.defaultTimeout
	if req.TimeoutS > 0 {
		timeout = time.Duration(req.TimeoutS) * time.Second
	}
	retries := h.defaultRetries
	if req.Retries > 0 {
		retries = req.Retries
	}

	candidates := h.coordinator.Scrape(r.Context(), coordinator.Request{
		Country:   req.Country,
		Protocols: toProtocols(req.Protocols),
		Sources:   req.Sources,
		Quantity:  req.Quantity,
		Timeout:   timeout,
		Retries:   retries,
	})

	items := make([]models.ProxyItem, 0, len(candidates))
	for _, c := range candidates {
		record, err := h.catalog.Upsert(r.Context(), c.IP, c.Port, c.Protocol, c.Country, c.Source)
		if err != nil {
			h.logger.Warn().Err(err).Str("ip", c.IP).Msg("Failed to persist scraped candidate")
			continue
		}
		items = append(items, models.ToProxyItem(record))
	}

	writeJSON(w, http.StatusOK, models.ScrapeResponse{
		Success:         true,
		TotalFound:      len(candidates),
		Proxies:         items,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	})
}

// Validate handles POST /proxies/validate: validates the given proxy lines
// synchronously.
func (h *ProxiesHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	start := time.Now()
	timeout := h.defaultTimeout
	if req.TimeoutS > 0 {
		timeout = time.Duration(req.TimeoutS) * time.Second
	}

	results := h.validate.ValidateBatch(r.Context(), req.Proxies, validator.BatchOptions{
		TestURLs:        req.TestURLs,
		Timeout:         timeout,
		TestAllURLs:     req.TestAllURLs,
		CheckAnonymity:  req.CheckAnonymity,
		CheckGeo:        req.CheckGeo,
		ConcurrentTests: req.ConcurrentTests,
	})

	valid := 0
	for _, res := range results {
		if res.Valid {
			valid++
		}
	}

	if h.fanout != nil {
		h.fanout.Trigger(r.Context(), "validate.completed", map[string]interface{}{
			"total_tested": len(results),
			"valid":        valid,
			"invalid":      len(results) - valid,
		})
	}

	writeJSON(w, http.StatusOK, models.ValidateResponse{
		Success:         true,
		TotalTested:     len(results),
		ValidProxies:    valid,
		InvalidProxies:  len(results) - valid,
		Results:         results,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	})
}

// List handles GET /proxies.
func (h *ProxiesHandler) List(w http.ResponseWriter, r *http.Request) {
	query := parseListQuery(r)

	rows, total, err := h.catalog.List(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list proxies")
		return
	}

	items := make([]models.ProxyItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, models.ToProxyItem(row))
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + query.PerPage - 1) / query.PerPage
	}

	writeJSON(w, http.StatusOK, models.ListResponse{
		Total:      total,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
		Proxies:    items,
	})
}

// Random handles GET /proxies/random.
func (h *ProxiesHandler) Random(w http.ResponseWriter, r *http.Request) {
	filters := models.ProxyFilters{
		Country:           r.URL.Query().Get("country"),
		Protocol:          models.Protocol(r.URL.Query().Get("protocol")),
		Anonymity:         models.Anonymity(r.URL.Query().Get("anonymity")),
		MaxResponseTimeMs: queryFloat(r, "max_response_time"),
	}

	record, err := h.catalog.PickRandom(r.Context(), filters)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to pick random proxy")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "no proxy matches the given constraints")
		return
	}

	writeJSON(w, http.StatusOK, models.ToProxyItem(record))
}

// Stats handles GET /proxies/stats.
func (h *ProxiesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Export handles GET /proxies/export: same filters as List, but rendered as
// json or csv (one ip:port per line).
func (h *ProxiesHandler) Export(w http.ResponseWriter, r *http.Request) {
	query := parseListQuery(r)
	query.PerPage = maxInt(query.PerPage, 1<<20) // export ignores pagination
	query.Page = 1

	rows, _, err := h.catalog.List(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to export proxies")
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "csv" {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		for _, row := range rows {
			fmt.Fprintf(w, "%s:%d\n", row.IP, row.Port)
		}
		return
	}

	items := make([]models.ProxyItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, models.ToProxyItem(row))
	}
	writeJSON(w, http.StatusOK, items)
}

// Get handles GET /proxies/{id}.
func (h *ProxiesHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	record, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		if notFoundIf(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get proxy")
		return
	}
	writeJSON(w, http.StatusOK, models.ToProxyItem(record))
}

// Update handles PATCH /proxies/{id}.
func (h *ProxiesHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	var req models.UpdateProxyRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	var anonymity *models.Anonymity
	if req.Anonymity != nil {
		a := models.Anonymity(*req.Anonymity)
		anonymity = &a
	}

	record, err := h.catalog.Update(r.Context(), id, req.Country, anonymity)
	if err != nil {
		if notFoundIf(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update proxy")
		return
	}
	writeJSON(w, http.StatusOK, models.ToProxyItem(record))
}

// Delete handles DELETE /proxies?invalid_only=bool.
func (h *ProxiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	invalidOnly := queryBool(r, "invalid_only")
	count, err := h.catalog.Delete(r.Context(), invalidOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete proxies")
		return
	}
	writeJSON(w, http.StatusOK, models.DeleteResponse{Success: true, DeletedCount: count})
}

// Import handles POST /proxies/import.
func (h *ProxiesHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req models.ImportRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	imported := 0
	duplicates := 0
	validLines := make([]string, 0, len(req.Proxies))
	for _, line := range req.Proxies {
		parsed, ok := proxyline.Parse(line)
		if !ok {
			duplicates++ // spec.md §9(b): "duplicates" counts parse failures, not catalog dupes
			continue
		}
		if _, err := h.catalog.Upsert(r.Context(), parsed.IP, parsed.Port, parsed.Protocol, "", "import"); err != nil {
			continue
		}
		imported++
		validLines = append(validLines, proxyline.Format(parsed.IP, parsed.Port, parsed.Protocol))
	}

	resp := models.ImportResponse{Success: true, Imported: imported, Duplicates: duplicates}

	if req.AutoValidate && len(req.ValidationURLs) > 0 && len(validLines) > 0 {
		job := h.jobs.Create(models.JobKindValidate)
		resp.ValidationStarted = true
		resp.PollingURL = "/jobs/" + job.ID

		common.SafeGo(h.logger, "import-auto-validate", func() {
			jobrunner.ExecuteValidate(context.Background(), h.validate, h.jobs, h.fanout, job.ID, jobrunner.ValidateParams{
				Proxies:  validLines,
				TestURLs: req.ValidationURLs,
				Timeout:  h.defaultTimeout,
			})
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Schedule handles POST /proxies/schedule: enqueues a scrape or validate job
// and returns immediately.
func (h *ProxiesHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req models.ScheduleRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	timeout := h.defaultTimeout
	if req.TimeoutS > 0 {
		timeout = time.Duration(req.TimeoutS) * time.Second
	}
	retries := h.defaultRetries
	if req.Retries > 0 {
		retries = req.Retries
	}

	switch req.Type {
	case "scrape":
		job := h.jobs.Create(models.JobKindScrape)
		common.SafeGo(h.logger, "schedule-scrape", func() {
			jobrunner.ExecuteScrape(context.Background(), h.coordinator, h.catalog, h.jobs, h.fanout, job.ID, jobrunner.ScrapeParams{
				Quantity:  req.Quantity,
				Country:   req.Country,
				Protocols: toProtocols(req.Protocols),
				Sources:   req.Sources,
				Timeout:   timeout,
				Retries:   retries,
			})
		})
		writeJSON(w, http.StatusAccepted, models.JobSubmissionResponse{JobID: job.ID, Status: string(job.Status), PollingURL: "/jobs/" + job.ID})

	case "validate":
		job := h.jobs.Create(models.JobKindValidate)
		common.SafeGo(h.logger, "schedule-validate", func() {
			jobrunner.ExecuteValidate(context.Background(), h.validate, h.jobs, h.fanout, job.ID, jobrunner.ValidateParams{
				Proxies:         req.Proxies,
				TestURLs:        req.TestURLs,
				Timeout:         timeout,
				TestAllURLs:     req.TestAllURLs,
				CheckAnonymity:  req.CheckAnonymity,
				CheckGeo:        req.CheckGeo,
				ConcurrentTests: req.ConcurrentTests,
			})
		})
		writeJSON(w, http.StatusAccepted, models.JobSubmissionResponse{JobID: job.ID, Status: string(job.Status), PollingURL: "/jobs/" + job.ID})

	default:
		writeError(w, http.StatusBadRequest, "unknown schedule type")
	}
}

func parseListQuery(r *http.Request) interfaces.ListQuery {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}

	return interfaces.ListQuery{
		Page:    page,
		PerPage: perPage,
		Filters: models.ProxyFilters{
			ValidOnly:         queryBool(r, "valid_only"),
			Country:           r.URL.Query().Get("country"),
			Protocol:          models.Protocol(r.URL.Query().Get("protocol")),
			Anonymity:         models.Anonymity(r.URL.Query().Get("anonymity")),
			MaxResponseTimeMs: nil,
		},
		OrderBy: interfaces.OrderBy(r.URL.Query().Get("order_by")),
		Order:   orderDirection(r.URL.Query().Get("order")),
	}
}

func orderDirection(v string) interfaces.OrderDirection {
	if strings.EqualFold(v, "desc") {
		return interfaces.OrderDesc
	}
	return interfaces.OrderAsc
}

func toProtocols(raw []string) []models.Protocol {
	if len(raw) == 0 {
		return nil
	}
	protocols := make([]models.Protocol, len(raw))
	for i, p := range raw {
		protocols[i] = models.Protocol(p)
	}
	return protocols
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
