package mautic

import "fmt"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// contactData is the platform's contact shape; the flat field values live
// under fields.all.
type contactData struct {
	ID     int `json:"id"`
	Fields struct {
		All map[string]any `json:"all"`
	} `json:"fields"`
}

type contactResponse struct {
	Contact contactData `json:"contact"`
}

// searchContactsResponse keys contacts by their id rendered as a string.
type searchContactsResponse struct {
	Contacts map[string]contactData `json:"contacts"`
}

type campaignAddResponse struct {
	Success bool `json:"success"`
}

// APIError is a non-2xx answer from the platform for an otherwise
// well-formed request.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mautic %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// DecodeError is a 2xx answer whose body could not be parsed. Reported
// apart from APIError: it signals a contract mismatch, not a business
// rejection.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("mautic %s: unparseable response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
