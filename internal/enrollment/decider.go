package enrollment

import (
	"fmt"
	"slices"
	"strconv"
)

// Decision is the outcome of an enrollment evaluation. Reason always
// names the qualifying or disqualifying condition.
type Decision struct {
	ShouldEnroll bool   `json:"shouldEnroll"`
	CampaignID   string `json:"campaignId,omitempty"`
	Reason       string `json:"reason"`
}

// Decide applies the enrollment rules in order; the first matching rule
// wins. A nil score means the lead was never scored, an empty crmStatus
// means it has no pipeline stage. The threshold comparison is inclusive:
// a score exactly at the threshold qualifies.
func Decide(score *float64, crmStatus string, cfg Config) Decision {
	if !cfg.Enabled {
		return Decision{Reason: "Campaign enrollment is disabled"}
	}

	if cfg.CampaignID == "" {
		return Decision{Reason: "No campaign ID configured"}
	}

	if score == nil {
		return Decision{Reason: "Lead has no score"}
	}

	if crmStatus == "" {
		return Decision{Reason: "Lead has no CRM status"}
	}

	if *score < float64(cfg.HighValueThreshold) {
		return Decision{Reason: fmt.Sprintf(
			"Score %s below threshold %d", formatScore(*score), cfg.HighValueThreshold)}
	}

	if !slices.Contains(cfg.EligibleStages, crmStatus) {
		return Decision{Reason: fmt.Sprintf(
			"Status %q not in eligible stages %v", crmStatus, cfg.EligibleStages)}
	}

	return Decision{
		ShouldEnroll: true,
		CampaignID:   cfg.CampaignID,
		Reason: fmt.Sprintf("High-value lead: score %s >= %d, stage %q",
			formatScore(*score), cfg.HighValueThreshold, crmStatus),
	}
}

// DecideFromEnv evaluates against the live environment. Thin wrapper, no
// logic of its own.
func DecideFromEnv(score *float64, crmStatus string) Decision {
	return Decide(score, crmStatus, FromEnv())
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
