package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func postWebhook(t *testing.T, repo *MockLeadRepo, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhook/mautic", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()
	NewWebhookHandler(repo).Handle(w, req)
	return w
}

func TestWebhookMirrorsPlatformEdit(t *testing.T) {
	repo := new(MockLeadRepo)
	repo.On("UpdateFromPlatform", mock.Anything, "ana@example.com", mock.MatchedBy(func(s *float64) bool {
		return s != nil && *s == 42
	}), "contacted").Return(nil)

	w := postWebhook(t, repo, `{
		"mautic.lead_post_save": [{
			"contact": {
				"points": 42,
				"fields": {"core": {
					"email": {"value": "ana@example.com"},
					"hki_crm_status": {"value": "contacted"}
				}}
			}
		}]
	}`)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	repo := new(MockLeadRepo)

	w := postWebhook(t, repo, `{"mautic.email_on_open": [{}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertNotCalled(t, "UpdateFromPlatform", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookBadJSON(t *testing.T) {
	w := postWebhook(t, new(MockLeadRepo), `{{{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookContactWithoutEmailIsSkipped(t *testing.T) {
	repo := new(MockLeadRepo)

	w := postWebhook(t, repo, `{"mautic.lead_post_save": [{"contact": {"points": 10}}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertNotCalled(t, "UpdateFromPlatform", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
