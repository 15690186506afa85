package mautic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hki-dev/hki-crm/internal/entity"
)

// Client talks to the Mautic REST API. It implements only the three
// calls the sync needs: ping, upsert contact, add to campaign.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *TokenCache
}

func NewClient(baseURL, clientID, clientSecret string) *Client {
	httpClient := &http.Client{Timeout: 15 * time.Second}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     NewTokenCache(baseURL, clientID, clientSecret, httpClient),
	}
}

// Tokens exposes the credential cache so the host can wire the reset
// hook used by smoke tests.
func (c *Client) Tokens() *TokenCache { return c.tokens }

// Ping performs a trivial authenticated call. Used as a liveness probe.
func (c *Client) Ping(ctx context.Context) error {
	var out searchContactsResponse
	return c.doJSON(ctx, http.MethodGet, "/api/contacts?limit=1&minimal=1", nil, &out)
}

// FindContactByEmail looks a contact up by its email. A missing contact
// is a normal outcome: id 0 and a nil field map, no error.
func (c *Client) FindContactByEmail(ctx context.Context, email string) (int, map[string]any, error) {
	q := url.Values{
		"search":  {"email:" + email},
		"limit":   {"1"},
		"minimal": {"1"},
	}

	var out searchContactsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/contacts?"+q.Encode(), nil, &out); err != nil {
		return 0, nil, err
	}

	for _, contact := range out.Contacts {
		return contact.ID, contact.Fields.All, nil
	}
	return 0, nil, nil
}

// UpsertContact maps the lead, merges attribution against whatever the
// platform already holds for the email, and creates or updates the
// contact. Returns the platform-assigned contact id.
func (c *Client) UpsertContact(ctx context.Context, lead *entity.Lead) (int, error) {
	existingID, existingFields, err := c.FindContactByEmail(ctx, lead.Email)
	if err != nil {
		return 0, err
	}

	fields := PreserveUTM(MapLead(lead), existingFields)

	endpoint := "/api/contacts/new"
	if existingID > 0 {
		endpoint = fmt.Sprintf("/api/contacts/%d/edit", existingID)
	}

	var out contactResponse
	if err := c.doJSON(ctx, http.MethodPost, endpoint, fields, &out); err != nil {
		return 0, err
	}
	if out.Contact.ID == 0 {
		return 0, &DecodeError{Endpoint: endpoint, Err: fmt.Errorf("response carried no contact id")}
	}

	return out.Contact.ID, nil
}

// AddToCampaign enrolls a contact into a nurture campaign by id.
func (c *Client) AddToCampaign(ctx context.Context, contactID int, campaignID string) error {
	endpoint := fmt.Sprintf("/api/campaigns/%s/contact/%d/add", url.PathEscape(campaignID), contactID)

	var out campaignAddResponse
	if err := c.doJSON(ctx, http.MethodPost, endpoint, nil, &out); err != nil {
		return err
	}
	if !out.Success {
		return &APIError{StatusCode: http.StatusOK, Endpoint: endpoint, Message: "campaign membership rejected"}
	}
	return nil
}

// doJSON acquires a token, performs the call and decodes the response.
// Non-2xx answers come back as *APIError, unparseable 2xx bodies as
// *DecodeError.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload any, out any) error {
	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload for %s: %w", endpoint, err)
		}
		body = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mautic request %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Message: string(raw)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Endpoint: endpoint, Err: err}
	}
	return nil
}
