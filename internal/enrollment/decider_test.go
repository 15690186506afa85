package enrollment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func score(v float64) *float64 { return &v }

func enabledConfig() Config {
	return Config{
		Enabled:            true,
		HighValueThreshold: 70,
		CampaignID:         "campaign-123",
		EligibleStages:     []string{"qualified", "converted"},
	}
}

func TestDecideHighValueLead(t *testing.T) {
	d := Decide(score(85), "qualified", enabledConfig())

	assert.True(t, d.ShouldEnroll)
	assert.Equal(t, "campaign-123", d.CampaignID)
	assert.Contains(t, d.Reason, "High-value lead")
	assert.Contains(t, d.Reason, "85")
	assert.Contains(t, d.Reason, "qualified")
}

func TestDecideBelowThreshold(t *testing.T) {
	d := Decide(score(50), "qualified", enabledConfig())

	assert.False(t, d.ShouldEnroll)
	assert.Empty(t, d.CampaignID)
	assert.Contains(t, d.Reason, "below threshold")
	assert.Contains(t, d.Reason, "50")
	assert.Contains(t, d.Reason, "70")
}

func TestDecideThresholdBoundaryIsInclusive(t *testing.T) {
	d := Decide(score(70), "qualified", enabledConfig())
	assert.True(t, d.ShouldEnroll)

	d = Decide(score(69), "qualified", enabledConfig())
	assert.False(t, d.ShouldEnroll)
	assert.Contains(t, d.Reason, "below threshold")
}

func TestDecideIneligibleStage(t *testing.T) {
	d := Decide(score(85), "new", enabledConfig())

	assert.False(t, d.ShouldEnroll)
	assert.Contains(t, d.Reason, "not in eligible stages")
	assert.Contains(t, d.Reason, "new")
}

func TestDecideDisabledWinsOverEverything(t *testing.T) {
	cfg := enabledConfig()
	cfg.Enabled = false

	d := Decide(score(100), "qualified", cfg)
	assert.False(t, d.ShouldEnroll)
	assert.Contains(t, d.Reason, "disabled")
}

func TestDecideMissingCampaignID(t *testing.T) {
	cfg := enabledConfig()
	cfg.CampaignID = ""

	d := Decide(score(100), "qualified", cfg)
	assert.False(t, d.ShouldEnroll)
	assert.Equal(t, "No campaign ID configured", d.Reason)
}

func TestDecideMissingScore(t *testing.T) {
	d := Decide(nil, "qualified", enabledConfig())

	assert.False(t, d.ShouldEnroll)
	assert.Contains(t, d.Reason, "no score")
}

func TestDecideMissingStatus(t *testing.T) {
	d := Decide(score(85), "", enabledConfig())

	assert.False(t, d.ShouldEnroll)
	assert.Contains(t, d.Reason, "no CRM status")
}

// Rule order matters for the reported reason: a disabled config must be
// reported even when the campaign id is also missing.
func TestDecideRuleOrder(t *testing.T) {
	d := Decide(nil, "", Config{})
	assert.Contains(t, d.Reason, "disabled")

	d = Decide(nil, "", Config{Enabled: true})
	assert.Equal(t, "No campaign ID configured", d.Reason)

	d = Decide(nil, "", Config{Enabled: true, CampaignID: "c"})
	assert.Contains(t, d.Reason, "no score")

	d = Decide(score(10), "", Config{Enabled: true, CampaignID: "c"})
	assert.Contains(t, d.Reason, "no CRM status")
}

func TestDecideFromEnv(t *testing.T) {
	t.Setenv(EnvEnabled, "true")
	t.Setenv(EnvCampaignID, "campaign-123")

	d := DecideFromEnv(score(85), "qualified")
	assert.True(t, d.ShouldEnroll)
	assert.Equal(t, "campaign-123", d.CampaignID)
}
