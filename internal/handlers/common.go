// Package handlers implements the thin Control Plane API (spec.md §4.8,
// §6): HTTP handlers that decode/validate a request body and delegate to
// the Catalog Store, Scraping Coordinator, Proxy Validator, Job Registry,
// Scheduler, and Webhook Fan-out.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/proxyhive/proxyhive/internal/models"
)

var validate = validator.New()

func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}

// notFoundIf maps the interfaces not-found sentinels to a 404 response,
// returning true when it handled the error.
func notFoundIf(w http.ResponseWriter, err error) bool {
	switch err {
	case interfaces.ErrProxyNotFound, interfaces.ErrJobNotFound, interfaces.ErrWebhookNotFound, interfaces.ErrKeyNotFound:
		writeError(w, http.StatusNotFound, "not found")
		return true
	default:
		return false
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func queryFloat(r *http.Request, key string) *float64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func queryBool(r *http.Request, key string) bool {
	v := r.URL.Query().Get(key)
	b, _ := strconv.ParseBool(v)
	return b
}
