package mautic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// tokenSafetyMargin keeps us from handing out a token that expires
// mid-request.
const tokenSafetyMargin = 60 * time.Second

// TokenCache holds the platform access token for the lifetime of the
// process and refreshes it on expiry. The mutex is held across the
// refresh call, so concurrent callers hitting an expired cache share a
// single refresh (single-flight).
type TokenCache struct {
	httpClient   *http.Client
	authURL      string
	clientID     string
	clientSecret string

	mu     sync.Mutex
	token  string
	expiry time.Time

	now func() time.Time
}

func NewTokenCache(baseURL, clientID, clientSecret string, httpClient *http.Client) *TokenCache {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &TokenCache{
		httpClient:   httpClient,
		authURL:      strings.TrimRight(baseURL, "/") + "/oauth/v2/token",
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
	}
}

// GetToken returns the cached token, refreshing it first when the expiry
// (minus the safety margin) has passed. A failed refresh leaves the
// previous cache state untouched and the error goes to the caller.
func (c *TokenCache) GetToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Add(tokenSafetyMargin).Before(c.expiry) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mautic auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Do not echo the body here, it can carry credential hints.
		return "", &APIError{StatusCode: resp.StatusCode, Endpoint: "oauth/v2/token", Message: "authentication rejected"}
	}

	var data tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", &DecodeError{Endpoint: "oauth/v2/token", Err: err}
	}
	if data.AccessToken == "" {
		return "", &DecodeError{Endpoint: "oauth/v2/token", Err: fmt.Errorf("empty access_token in response")}
	}

	exp := data.ExpiresIn
	if exp == 0 {
		exp = 3600
	}

	c.token = data.AccessToken
	c.expiry = c.now().Add(time.Duration(exp) * time.Second)

	return c.token, nil
}

// Reset clears the cached token, forcing the next GetToken to
// re-authenticate. Exposed for tests and for recovery after an auth
// failure.
func (c *TokenCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiry = time.Time{}
}
