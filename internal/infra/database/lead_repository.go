package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	"github.com/hki-dev/hki-crm/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

// Upsert writes the lead keyed by email. Incoming empty fields never
// erase stored values.
func (r *LeadRepository) Upsert(ctx context.Context, lead *entity.Lead) error {
	utmJSON, err := json.Marshal(lead.UTM)
	if err != nil {
		return err
	}
	propertyJSON, err := json.Marshal(lead.Property)
	if err != nil {
		return err
	}
	customJSON, err := json.Marshal(lead.CustomFields)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO leads (email, first_name, last_name, phone, company, tags,
		                   utm, property, custom_fields, score, crm_status,
		                   marketing_opt_in, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (email)
		DO UPDATE SET
			first_name       = COALESCE(EXCLUDED.first_name, leads.first_name),
			last_name        = COALESCE(EXCLUDED.last_name, leads.last_name),
			phone            = COALESCE(EXCLUDED.phone, leads.phone),
			company          = COALESCE(EXCLUDED.company, leads.company),
			tags             = COALESCE(EXCLUDED.tags, leads.tags),
			utm              = leads.utm || EXCLUDED.utm,
			property         = leads.property || EXCLUDED.property,
			custom_fields    = leads.custom_fields || EXCLUDED.custom_fields,
			score            = COALESCE(EXCLUDED.score, leads.score),
			crm_status       = COALESCE(EXCLUDED.crm_status, leads.crm_status),
			marketing_opt_in = EXCLUDED.marketing_opt_in,
			updated_at       = NOW()
		RETURNING id, created_at, updated_at, crm_status
	`

	var crmStatus sql.NullString
	err = r.DB.QueryRowContext(
		ctx,
		query,
		lead.Email,
		nullString(lead.FirstName),
		nullString(lead.LastName),
		nullString(lead.Phone),
		nullString(lead.Company),
		pq.Array(lead.Tags),
		utmJSON,
		propertyJSON,
		customJSON,
		lead.Score,
		nullString(lead.CRMStatus),
		lead.MarketingOptIn,
	).Scan(
		&lead.ID,
		&lead.CreatedAt,
		&lead.UpdatedAt,
		&crmStatus,
	)
	if err != nil {
		return err
	}

	lead.CRMStatus = crmStatus.String
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	return r.findBy(ctx, "id", id)
}

func (r *LeadRepository) FindByEmail(ctx context.Context, email string) (*entity.Lead, error) {
	return r.findBy(ctx, "email", email)
}

func (r *LeadRepository) findBy(ctx context.Context, column, value string) (*entity.Lead, error) {
	query := `
		SELECT id, email, first_name, last_name, phone, company, tags,
		       utm, property, custom_fields, score, crm_status,
		       marketing_opt_in, created_at, updated_at
		FROM leads
		WHERE ` + column + ` = $1
	`

	lead := &entity.Lead{}
	var (
		firstName, lastName, phone, company, crmStatus sql.NullString
		tags                                           []string
		utmJSON, propertyJSON, customJSON              []byte
		score                                          sql.NullFloat64
	)

	err := r.DB.QueryRowContext(ctx, query, value).Scan(
		&lead.ID, &lead.Email,
		&firstName, &lastName, &phone, &company,
		pq.Array(&tags),
		&utmJSON, &propertyJSON, &customJSON,
		&score, &crmStatus,
		&lead.MarketingOptIn,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	lead.FirstName = firstName.String
	lead.LastName = lastName.String
	lead.Phone = phone.String
	lead.Company = company.String
	lead.CRMStatus = crmStatus.String
	lead.Tags = tags
	if score.Valid {
		lead.Score = &score.Float64
	}

	if err := json.Unmarshal(utmJSON, &lead.UTM); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(propertyJSON, &lead.Property); err != nil {
		return nil, err
	}
	if len(customJSON) > 0 {
		if err := json.Unmarshal(customJSON, &lead.CustomFields); err != nil {
			return nil, err
		}
	}

	return lead, nil
}

// UpdateFromPlatform mirrors platform-side edits (score, pipeline stage)
// back onto the stored lead.
func (r *LeadRepository) UpdateFromPlatform(ctx context.Context, email string, score *float64, crmStatus string) error {
	query := `
		UPDATE leads
		SET score      = COALESCE($2, score),
		    crm_status = COALESCE($3, crm_status),
		    updated_at = NOW()
		WHERE email = $1
	`
	_, err := r.DB.ExecContext(ctx, query, email, score, nullString(crmStatus))
	return err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
