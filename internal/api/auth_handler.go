package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/clinichq/clinic-booking/internal/auth"
	"github.com/clinichq/clinic-booking/internal/clinic"
)

type AuthHandler struct {
	clinic *clinic.Service
	tokens *auth.TokenIssuer
	log    zerolog.Logger
}

func NewAuthHandler(clinicSvc *clinic.Service, tokens *auth.TokenIssuer, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		clinic: clinicSvc,
		tokens: tokens,
		log:    log.With().Str("handler", "auth").Logger(),
	}
}

// Login exchanges email+password for a bearer token. Both user classes
// log in through the same endpoint.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	identity, err := h.clinic.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, clinic.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "incorrect email or password")
			return
		}
		h.log.Error().Err(err).Msg("authenticate")
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	token, err := h.tokens.Issue(identity)
	if err != nil {
		h.log.Error().Err(err).Msg("issue token")
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserType:    string(identity.Role),
		UserID:      identity.ID,
	})
}
