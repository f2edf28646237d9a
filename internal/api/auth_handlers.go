package api

import (
	"net/http"
	"time"

	"serwer-dokumentow/internal/auth"
)

type TokenResponse struct {
	AccessToken string    `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...."`
	ExpiresAt   time.Time `json:"expires_at"`
}

// @Summary      Issue access token
// @Description  Exchanges the bearer token (for example one from the identity provider) for a short-lived server token carrying the same identity. Browsers pass it to /ws as the token query parameter.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  TokenResponse
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "Token issuing disabled"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /auth/token [post]
func (s *Server) IssueTokenHandler(w http.ResponseWriter, r *http.Request) {
	if s.config.JWT.Secret == "" {
		http.Error(w, "Token issuing disabled", http.StatusNotFound)
		return
	}

	caller := GetCallerFromContext(r.Context())
	if !caller.Authenticated() {
		http.Error(w, "Unauthenticated", http.StatusUnauthorized)
		return
	}

	ttl := s.config.JWT.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	token, err := auth.GenerateJWT(caller, s.config.JWT.Secret, ttl)
	if err != nil {
		s.logger.Error("nie udało się wystawić tokenu", "user_id", caller.UserID, "error", err)
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(ttl),
	})
}
