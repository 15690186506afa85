package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

// TokenResetHandler clears the cached platform credential so the next
// call re-authenticates. Wired on an internal route; smoke tests use it
// instead of waiting out token expiry.
type TokenResetHandler struct {
	Tokens interface{ Reset() }
}

func NewTokenResetHandler(tokens interface{ Reset() }) *TokenResetHandler {
	return &TokenResetHandler{Tokens: tokens}
}

func (h *TokenResetHandler) Handle(w http.ResponseWriter, r *http.Request) {
	h.Tokens.Reset()
	log.Println("🔄 [Mautic] credential cache cleared")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"reset": true})
}
