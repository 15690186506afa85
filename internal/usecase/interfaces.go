package usecase

import (
	"context"

	"github.com/hki-dev/hki-crm/internal/entity"
)

// PlatformGateway is the slice of the marketing platform the sync needs.
type PlatformGateway interface {
	UpsertContact(ctx context.Context, lead *entity.Lead) (int, error)
	AddToCampaign(ctx context.Context, contactID int, campaignID string) error
}

type AlertService interface {
	SendHighValueAlert(lead *entity.Lead, contactID int, campaignID string) error
}

// SyncLeadOutput reports the two-phase result explicitly: a successful
// upsert with a failed enrollment is visible, not swallowed.
type SyncLeadOutput struct {
	ContactID int    `json:"contact_id"`
	Enrolled  bool   `json:"enrolled"`
	Reason    string `json:"reason"`
}
