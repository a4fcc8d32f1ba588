package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/proxyhive/proxyhive/internal/interfaces"
)

func TestQueryInt_DefaultsWhenMissingOrInvalid(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&bad=nope", nil)
	assert.Equal(t, 3, queryInt(req, "page", 1))
	assert.Equal(t, 1, queryInt(req, "missing", 1))
	assert.Equal(t, 5, queryInt(req, "bad", 5))
}

func TestQueryFloat_ParsesOrReturnsNil(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?rt=123.5&bad=nope", nil)
	rt := queryFloat(req, "rt")
	assert.NotNil(t, rt)
	assert.Equal(t, 123.5, *rt)

	assert.Nil(t, queryFloat(req, "missing"))
	assert.Nil(t, queryFloat(req, "bad"))
}

func TestQueryBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?valid_only=true&invalid=bad", nil)
	assert.True(t, queryBool(req, "valid_only"))
	assert.False(t, queryBool(req, "missing"))
	assert.False(t, queryBool(req, "invalid"))
}

func TestNotFoundIf_MapsKnownSentinels(t *testing.T) {
	for _, err := range []error{interfaces.ErrProxyNotFound, interfaces.ErrJobNotFound, interfaces.ErrWebhookNotFound, interfaces.ErrKeyNotFound} {
		w := httptest.NewRecorder()
		handled := notFoundIf(w, err)
		assert.True(t, handled)
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
}

func TestNotFoundIf_UnknownErrorIsNotHandled(t *testing.T) {
	w := httptest.NewRecorder()
	handled := notFoundIf(w, assert.AnError)
	assert.False(t, handled)
	assert.Equal(t, http.StatusOK, w.Code, "notFoundIf must not write a response for unmapped errors")
}

func TestWriteJSON_SetsContentTypeAndStatus(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusCreated, map[string]string{"k": "v"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"k":"v"}`, w.Body.String())
}
