// -----------------------------------------------------------------------
// Last Modified: Thursday, 9th October 2025 8:53:55 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package server

import "net/http"

// setupRoutes configures all HTTP routes of the control plane (spec.md §6).
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Proxy catalog and scraping/validation operations
	mux.HandleFunc("/proxies/scrape", s.app.ProxiesHandler.Scrape)
	mux.HandleFunc("/proxies/validate", s.app.ProxiesHandler.Validate)
	mux.HandleFunc("/proxies/random", s.app.ProxiesHandler.Random)
	mux.HandleFunc("/proxies/stats", s.app.ProxiesHandler.Stats)
	mux.HandleFunc("/proxies/export", s.app.ProxiesHandler.Export)
	mux.HandleFunc("/proxies/import", s.app.ProxiesHandler.Import)
	mux.HandleFunc("/proxies/schedule", s.app.ProxiesHandler.Schedule)
	mux.HandleFunc("/proxies/scheduler/status", s.app.SchedulerHandler.Status)
	mux.HandleFunc("/proxies/scheduler/update", s.app.SchedulerHandler.Update)

	// /proxies and /proxies/{id} share a prefix; dispatch by path shape.
	mux.HandleFunc("/proxies", s.handleProxiesCollection)
	mux.HandleFunc("/proxies/", s.handleProxyItem)

	// Jobs
	mux.HandleFunc("/jobs/", s.handleJobItem)

	// Webhooks
	mux.HandleFunc("/webhooks/register", s.app.WebhooksHandler.Register)
	mux.HandleFunc("/webhooks", s.handleWebhooksCollection)
	mux.HandleFunc("/webhooks/", s.handleWebhookItem)

	// Operational endpoints
	mux.HandleFunc("/api/shutdown", s.ShutdownHandler)

	return mux
}

// handleProxiesCollection routes GET/DELETE on the bare /proxies collection.
func (s *Server) handleProxiesCollection(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		"GET":    s.app.ProxiesHandler.List,
		"DELETE": s.app.ProxiesHandler.Delete,
	})
}

// handleProxyItem routes GET/PATCH on /proxies/{id}. Fixed sub-paths
// (scrape, validate, ...) are registered on setupRoutes with priority over
// this prefix handler by the mux's longest-match rule.
func (s *Server) handleProxyItem(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/proxies/"):]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case "GET":
		s.app.ProxiesHandler.Get(w, r, id)
	case "PATCH":
		s.app.ProxiesHandler.Update(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobItem routes GET on /jobs/{id}.
func (s *Server) handleJobItem(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/jobs/"):]
	if id == "" || r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.app.JobsHandler.Get(w, r, id)
}

// handleWebhooksCollection routes GET on the bare /webhooks collection.
func (s *Server) handleWebhooksCollection(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		"GET": s.app.WebhooksHandler.List,
	})
}

// handleWebhookItem routes DELETE on /webhooks/{id}.
func (s *Server) handleWebhookItem(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/webhooks/"):]
	if id == "" || id == "register" || r.Method != "DELETE" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.app.WebhooksHandler.Delete(w, r, id)
}
