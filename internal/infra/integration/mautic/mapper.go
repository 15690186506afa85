package mautic

import (
	"time"

	"github.com/hki-dev/hki-crm/internal/entity"
)

// utmFields are the attribution fields protected by the stale guard.
var utmFields = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content"}

// MapLead converts the internal lead record into the flat field map the
// platform expects. Absent data is represented by field absence, never by
// an empty value. The caller guarantees Email is set.
func MapLead(lead *entity.Lead) map[string]any {
	fields := map[string]any{
		"email":     lead.Email,
		"firstname": lead.FirstName,
		"lastname":  lead.LastName,
		"phone":     lead.Phone,
		"company":   lead.Company,

		"utm_source":   lead.UTM.Source,
		"utm_medium":   lead.UTM.Medium,
		"utm_campaign": lead.UTM.Campaign,
		"utm_term":     lead.UTM.Term,
		"utm_content":  lead.UTM.Content,

		"property_address": lead.Property.Address,
		"property_city":    lead.Property.City,
		"property_state":   lead.Property.State,
		"property_zip":     lead.Property.Zip,
		"property_type":    lead.Property.PropertyType,
		"property_value":   lead.Property.EstimatedValue,

		"hki_lead_id":      lead.ID,
		"hki_crm_status":   lead.CRMStatus,
		"marketing_opt_in": lead.MarketingOptIn,
		"hki_last_sync":    time.Now().UTC().Format(time.RFC3339),
	}

	if len(lead.Tags) > 0 {
		fields["tags"] = lead.Tags
	}

	if lead.Score != nil {
		fields["hki_lead_score"] = *lead.Score
	}

	// Downstream consumers use this as a stale-write guard.
	if !lead.UpdatedAt.IsZero() {
		fields["last_platform_update"] = lead.UpdatedAt.UTC().Format(time.RFC3339)
	}

	// Custom fields go on last: on a name collision with a reserved field
	// the custom value wins.
	for k, v := range lead.CustomFields {
		fields[k] = v
	}

	return Prune(fields)
}

// Prune drops nil and empty-string values. Idempotent.
func Prune(fields map[string]any) map[string]any {
	for k, v := range fields {
		if v == nil || v == "" {
			delete(fields, k)
		}
	}
	return fields
}

// PreserveUTM keeps first-touch attribution: a UTM field missing from the
// freshly mapped contact is filled from whatever the platform already
// holds. A UTM field present in mapped always wins. existing may be nil
// or missing fields entirely.
func PreserveUTM(mapped, existing map[string]any) map[string]any {
	if existing == nil {
		return mapped
	}

	for _, field := range utmFields {
		if _, ok := mapped[field]; ok {
			continue
		}
		if v, ok := existing[field]; ok && v != nil && v != "" {
			mapped[field] = v
		}
	}

	return mapped
}
