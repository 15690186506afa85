package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/hki-dev/hki-crm/internal/entity"
	"github.com/hki-dev/hki-crm/internal/enrollment"
)

// SyncLeadUseCase pushes a stored lead to the marketing platform and,
// when the enrollment rules allow it, drops the contact into the nurture
// campaign. Steps run strictly in sequence: the upsert's contact id
// feeds the campaign call.
type SyncLeadUseCase struct {
	LeadRepo     entity.LeadRepositoryInterface
	Platform     PlatformGateway
	AlertService AlertService
	Enrollment   func() enrollment.Config // evaluated per sync, see enrollment.FromEnv
}

func NewSyncLeadUseCase(
	leadRepo entity.LeadRepositoryInterface,
	platform PlatformGateway,
	alertService AlertService,
	enrollmentCfg func() enrollment.Config,
) *SyncLeadUseCase {
	if enrollmentCfg == nil {
		enrollmentCfg = enrollment.FromEnv
	}
	return &SyncLeadUseCase{
		LeadRepo:     leadRepo,
		Platform:     platform,
		AlertService: alertService,
		Enrollment:   enrollmentCfg,
	}
}

func (uc *SyncLeadUseCase) Execute(ctx context.Context, leadID string) (*SyncLeadOutput, error) {
	lead, err := uc.LeadRepo.FindByID(ctx, leadID)
	if err != nil {
		return nil, &DomainError{
			Code:    "LEAD_NOT_FOUND",
			Message: "unknown lead: " + err.Error(),
		}
	}

	contactID, err := uc.Platform.UpsertContact(ctx, lead)
	if err != nil {
		return nil, &TechnicalError{
			Code:    "PLATFORM_SYNC_FAILED",
			Message: fmt.Sprintf("contact upsert for %s failed: %v", lead.Email, err),
		}
	}

	decision := enrollment.Decide(lead.Score, lead.CRMStatus, uc.Enrollment())
	out := &SyncLeadOutput{ContactID: contactID, Reason: decision.Reason}

	if !decision.ShouldEnroll {
		log.Printf("⏭️ [Sync] %s synced as contact #%d, not enrolled: %s", lead.Email, contactID, decision.Reason)
		return out, nil
	}

	// No compensation on failure here: the contact upsert stands and the
	// enrollment is retried by re-running the sync.
	if err := uc.Platform.AddToCampaign(ctx, contactID, decision.CampaignID); err != nil {
		return out, &TechnicalError{
			Code:    "ENROLLMENT_FAILED",
			Message: fmt.Sprintf("campaign add for contact %d failed: %v", contactID, err),
		}
	}
	out.Enrolled = true
	log.Printf("🎯 [Sync] %s enrolled in campaign %s (contact #%d)", lead.Email, decision.CampaignID, contactID)

	if uc.AlertService != nil {
		go func() {
			if err := uc.AlertService.SendHighValueAlert(lead, contactID, decision.CampaignID); err != nil {
				log.Printf("⚠️ [Sync] sales alert for %s failed: %v", lead.Email, err)
			}
		}()
	}

	return out, nil
}
