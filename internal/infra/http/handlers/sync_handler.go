package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hki-dev/hki-crm/internal/entity"
	"github.com/hki-dev/hki-crm/internal/infra/http/middleware"
	"github.com/hki-dev/hki-crm/internal/infra/integration/mautic"
)

// PlatformSyncInterface is the slice of the mautic client the sync
// endpoint dispatches to.
type PlatformSyncInterface interface {
	Ping(ctx context.Context) error
	UpsertContact(ctx context.Context, lead *entity.Lead) (int, error)
	AddToCampaign(ctx context.Context, contactID int, campaignID string) error
}

// SyncHandler is the synchronous entry point of the platform sync. One
// action per request; failures come back in the envelope, never as bare
// 500 text.
type SyncHandler struct {
	Platform PlatformSyncInterface
}

func NewSyncHandler(platform PlatformSyncInterface) *SyncHandler {
	return &SyncHandler{Platform: platform}
}

type SyncRequest struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

type syncResponse struct {
	OK            bool   `json:"ok"`
	Data          any    `json:"data,omitempty"`
	Error         string `json:"error,omitempty"`
	CorrelationID string `json:"correlationId"`
}

// contactDTO mirrors the intake/UI contact shape of the action protocol.
type contactDTO struct {
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Phone     string   `json:"phone"`
	Company   string   `json:"company"`
	Tags      []string `json:"tags"`

	UTM struct {
		Source   string `json:"source"`
		Medium   string `json:"medium"`
		Campaign string `json:"campaign"`
		Term     string `json:"term"`
		Content  string `json:"content"`
	} `json:"utm"`

	Property struct {
		Address        string `json:"address"`
		City           string `json:"city"`
		State          string `json:"state"`
		Zip            string `json:"zip"`
		PropertyType   string `json:"propertyType"`
		EstimatedValue string `json:"estimatedValue"`
	} `json:"property"`

	CustomFields   map[string]string `json:"customFields"`
	LeadID         string            `json:"leadId"`
	Score          *float64          `json:"score"`
	CRMStatus      string            `json:"crmStatus"`
	MarketingOptIn bool              `json:"marketingOptIn"`
	UpdatedAt      string            `json:"updatedAt"`
}

func (d *contactDTO) toLead() *entity.Lead {
	lead := &entity.Lead{
		ID:        d.LeadID,
		Email:     d.Email,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Phone:     d.Phone,
		Company:   d.Company,
		Tags:      d.Tags,
		UTM: entity.UTMParams{
			Source:   d.UTM.Source,
			Medium:   d.UTM.Medium,
			Campaign: d.UTM.Campaign,
			Term:     d.UTM.Term,
			Content:  d.UTM.Content,
		},
		Property: entity.PropertyInfo{
			Address:        d.Property.Address,
			City:           d.Property.City,
			State:          d.Property.State,
			Zip:            d.Property.Zip,
			PropertyType:   d.Property.PropertyType,
			EstimatedValue: d.Property.EstimatedValue,
		},
		CustomFields:   d.CustomFields,
		Score:          d.Score,
		CRMStatus:      d.CRMStatus,
		MarketingOptIn: d.MarketingOptIn,
	}

	if t, err := time.Parse(time.RFC3339, d.UpdatedAt); err == nil {
		lead.UpdatedAt = t
	}

	return lead
}

func (h *SyncHandler) Handle(w http.ResponseWriter, r *http.Request) {
	correlationID := uuid.New().String()
	w.Header().Set("X-Correlation-ID", correlationID)

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.RecordSyncAction("invalid", "rejected")
		writeSync(w, http.StatusBadRequest, syncResponse{Error: "Invalid JSON", CorrelationID: correlationID})
		return
	}

	switch req.Action {
	case "ping":
		h.handlePing(w, r, correlationID)
	case "upsert_contact":
		h.handleUpsertContact(w, r, req.Payload, correlationID)
	case "add_to_campaign":
		h.handleAddToCampaign(w, r, req.Payload, correlationID)
	default:
		middleware.RecordSyncAction("unknown", "rejected")
		writeSync(w, http.StatusBadRequest, syncResponse{
			Error:         fmt.Sprintf("Unknown action %q", req.Action),
			CorrelationID: correlationID,
		})
	}
}

func (h *SyncHandler) handlePing(w http.ResponseWriter, r *http.Request, correlationID string) {
	if err := h.Platform.Ping(r.Context()); err != nil {
		h.writePlatformError(w, "ping", err, correlationID)
		return
	}

	middleware.RecordSyncAction("ping", "ok")
	writeSync(w, http.StatusOK, syncResponse{OK: true, CorrelationID: correlationID})
}

func (h *SyncHandler) handleUpsertContact(w http.ResponseWriter, r *http.Request, payload json.RawMessage, correlationID string) {
	var body struct {
		Contact contactDTO `json:"contact"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		writeSync(w, http.StatusBadRequest, syncResponse{Error: "Invalid payload", CorrelationID: correlationID})
		return
	}
	if body.Contact.Email == "" {
		writeSync(w, http.StatusBadRequest, syncResponse{Error: "payload.contact.email is required", CorrelationID: correlationID})
		return
	}

	contactID, err := h.Platform.UpsertContact(r.Context(), body.Contact.toLead())
	if err != nil {
		h.writePlatformError(w, "upsert_contact", err, correlationID)
		return
	}

	middleware.RecordSyncAction("upsert_contact", "ok")
	writeSync(w, http.StatusOK, syncResponse{
		OK:            true,
		Data:          map[string]any{"contactId": contactID},
		CorrelationID: correlationID,
	})
}

func (h *SyncHandler) handleAddToCampaign(w http.ResponseWriter, r *http.Request, payload json.RawMessage, correlationID string) {
	var body struct {
		MauticContactID int    `json:"mauticContactId"`
		CampaignID      string `json:"campaignId"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		writeSync(w, http.StatusBadRequest, syncResponse{Error: "Invalid payload", CorrelationID: correlationID})
		return
	}
	if body.MauticContactID == 0 || body.CampaignID == "" {
		writeSync(w, http.StatusBadRequest, syncResponse{
			Error:         "mauticContactId and campaignId are required",
			CorrelationID: correlationID,
		})
		return
	}

	if err := h.Platform.AddToCampaign(r.Context(), body.MauticContactID, body.CampaignID); err != nil {
		h.writePlatformError(w, "add_to_campaign", err, correlationID)
		return
	}

	middleware.RecordSyncAction("add_to_campaign", "ok")
	middleware.RecordCampaignEnrollment()
	writeSync(w, http.StatusOK, syncResponse{
		OK:            true,
		Data:          map[string]any{"success": true},
		CorrelationID: correlationID,
	})
}

// writePlatformError maps the integration error taxonomy onto the
// envelope. Everything downstream is a 502; the distinction between an
// API rejection and a contract mismatch survives in the message.
func (h *SyncHandler) writePlatformError(w http.ResponseWriter, action string, err error, correlationID string) {
	middleware.RecordSyncAction(action, "error")
	middleware.RecordIntegrationError("mautic")

	var apiErr *mautic.APIError
	var decodeErr *mautic.DecodeError

	msg := "platform request failed"
	switch {
	case errors.As(err, &apiErr):
		msg = fmt.Sprintf("platform returned status %d: %s", apiErr.StatusCode, apiErr.Message)
	case errors.As(err, &decodeErr):
		msg = "platform returned an unparseable response"
	}

	writeSync(w, http.StatusBadGateway, syncResponse{Error: msg, CorrelationID: correlationID})
}

func writeSync(w http.ResponseWriter, status int, resp syncResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
