package enrollment

import (
	"os"
	"strconv"
	"strings"
)

const (
	EnvEnabled        = "ENROLLMENT_ENABLED"
	EnvThreshold      = "ENROLLMENT_HIGH_VALUE_THRESHOLD"
	EnvCampaignID     = "ENROLLMENT_CAMPAIGN_ID"
	EnvEligibleStages = "ENROLLMENT_ELIGIBLE_STAGES"
)

const defaultThreshold = 70

// Config drives the campaign-enrollment decision. It is rebuilt from the
// environment on every decision, never persisted.
type Config struct {
	Enabled            bool
	HighValueThreshold int
	CampaignID         string // empty means not configured
	EligibleStages     []string
}

// Parse builds a Config from raw environment values. Every field has a
// safe fallback; Parse never fails.
func Parse(env map[string]string) Config {
	cfg := Config{
		Enabled:            env[EnvEnabled] == "true",
		HighValueThreshold: defaultThreshold,
		CampaignID:         env[EnvCampaignID],
	}

	if raw, ok := env[EnvThreshold]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			cfg.HighValueThreshold = n
		}
	}

	if raw, ok := env[EnvEligibleStages]; ok {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.EligibleStages = append(cfg.EligibleStages, s)
			}
		}
	}
	if cfg.EligibleStages == nil {
		cfg.EligibleStages = []string{"qualified", "converted"}
	}

	return cfg
}

// FromEnv reads the live process environment.
func FromEnv() Config {
	env := map[string]string{}
	for _, key := range []string{EnvEnabled, EnvThreshold, EnvCampaignID, EnvEligibleStages} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}
	return Parse(env)
}
