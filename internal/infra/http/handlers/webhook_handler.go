package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/hki-dev/hki-crm/internal/entity"
)

// WebhookHandler receives Mautic's lead_post_save pushes so platform-side
// edits (rescoring, stage moves) flow back into the CRM record.
type WebhookHandler struct {
	LeadRepo entity.LeadRepositoryInterface
}

func NewWebhookHandler(leadRepo entity.LeadRepositoryInterface) *WebhookHandler {
	return &WebhookHandler{LeadRepo: leadRepo}
}

type mauticWebhookContact struct {
	Points float64 `json:"points"`
	Fields struct {
		Core map[string]struct {
			Value string `json:"value"`
		} `json:"core"`
	} `json:"fields"`
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var event struct {
		PostSave []struct {
			Contact mauticWebhookContact `json:"contact"`
		} `json:"mautic.lead_post_save"`
	}

	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Bad JSON", http.StatusBadRequest)
		return
	}

	// Other event types just get acknowledged.
	if len(event.PostSave) == 0 {
		w.WriteHeader(http.StatusOK)
		return
	}

	for _, e := range event.PostSave {
		email := e.Contact.Fields.Core["email"].Value
		if email == "" {
			continue
		}

		score := e.Contact.Points
		status := e.Contact.Fields.Core["hki_crm_status"].Value

		if err := h.LeadRepo.UpdateFromPlatform(r.Context(), email, &score, status); err != nil {
			log.Printf("⚠️ [Webhook] update for %s failed: %v", email, err)
			continue
		}
		log.Printf("🔁 [Webhook] platform edit mirrored for %s (points=%g)", email, score)
	}

	w.WriteHeader(http.StatusOK)
}
