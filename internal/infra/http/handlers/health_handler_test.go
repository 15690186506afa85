package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthWithNothingConfigured(t *testing.T) {
	h := NewHealthHandler(nil, nil, "")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	h.Handle(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "not configured", resp.Dependencies["database"])
	assert.Equal(t, "not configured", resp.Dependencies["mautic"])
}

func TestHealthReportsMauticConfigured(t *testing.T) {
	h := NewHealthHandler(nil, nil, "https://mautic.example.com")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	h.Handle(w, req)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "configured", resp.Dependencies["mautic"])
	assert.NotEmpty(t, resp.Uptime)
}

type fakeResetter struct{ calls int }

func (f *fakeResetter) Reset() { f.calls++ }

func TestTokenResetHandler(t *testing.T) {
	resetter := &fakeResetter{}
	h := NewTokenResetHandler(resetter)

	req := httptest.NewRequest("POST", "/internal/platform/reset-token", nil)
	w := httptest.NewRecorder()
	h.Handle(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, resetter.calls)
}
