package enrollment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDefaults(t *testing.T) {
	cfg := Parse(map[string]string{})

	assert.False(t, cfg.Enabled)
	assert.Equal(t, 70, cfg.HighValueThreshold)
	assert.Empty(t, cfg.CampaignID)
	assert.Equal(t, []string{"qualified", "converted"}, cfg.EligibleStages)
}

func TestParseEnabledRequiresExactTrue(t *testing.T) {
	for _, v := range []string{"TRUE", "True", "1", "yes", "", " true"} {
		cfg := Parse(map[string]string{EnvEnabled: v})
		assert.False(t, cfg.Enabled, "value %q must not enable enrollment", v)
	}

	cfg := Parse(map[string]string{EnvEnabled: "true"})
	assert.True(t, cfg.Enabled)
}

func TestParseThreshold(t *testing.T) {
	cfg := Parse(map[string]string{EnvThreshold: "85"})
	assert.Equal(t, 85, cfg.HighValueThreshold)

	// Parse failure falls back to the default
	cfg = Parse(map[string]string{EnvThreshold: "eighty"})
	assert.Equal(t, 70, cfg.HighValueThreshold)
}

func TestParseEligibleStages(t *testing.T) {
	cfg := Parse(map[string]string{EnvEligibleStages: " qualified , converted ,, hot-lead "})
	assert.Equal(t, []string{"qualified", "converted", "hot-lead"}, cfg.EligibleStages)
}

func TestParseCampaignID(t *testing.T) {
	cfg := Parse(map[string]string{EnvCampaignID: "campaign-123"})
	assert.Equal(t, "campaign-123", cfg.CampaignID)
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvEnabled, "true")
	t.Setenv(EnvCampaignID, "c-9")
	t.Setenv(EnvThreshold, "40")

	cfg := FromEnv()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "c-9", cfg.CampaignID)
	assert.Equal(t, 40, cfg.HighValueThreshold)
	assert.Equal(t, []string{"qualified", "converted"}, cfg.EligibleStages)
}
