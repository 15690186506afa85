package entity

import (
	"context"
	"time"
)

// UTMParams are the five attribution parameters captured at first touch.
type UTMParams struct {
	Source   string `json:"source,omitempty"`
	Medium   string `json:"medium,omitempty"`
	Campaign string `json:"campaign,omitempty"`
	Term     string `json:"term,omitempty"`
	Content  string `json:"content,omitempty"`
}

// PropertyInfo describes the property a lead asked about.
type PropertyInfo struct {
	Address        string `json:"address,omitempty"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	Zip            string `json:"zip,omitempty"`
	PropertyType   string `json:"property_type,omitempty"`
	EstimatedValue string `json:"estimated_value,omitempty"`
}

// Lead is the internal source-of-truth record. Email is the unique key
// across the platform sync.
type Lead struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Company   string   `json:"company,omitempty"`
	Tags      []string `json:"tags,omitempty"`

	UTM          UTMParams         `json:"utm"`
	Property     PropertyInfo      `json:"property"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`

	// Score is the 0-100 ML quality score. Nil means not scored yet.
	Score          *float64 `json:"score,omitempty"`
	CRMStatus      string   `json:"crm_status,omitempty"` // pipeline stage: new, contacted, qualified, converted...
	MarketingOptIn bool     `json:"marketing_opt_in"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LeadRepositoryInterface interface {
	Upsert(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	FindByEmail(ctx context.Context, email string) (*Lead, error)
	UpdateFromPlatform(ctx context.Context, email string, score *float64, crmStatus string) error
}
