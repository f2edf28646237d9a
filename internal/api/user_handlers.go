package api

import (
	"context"
	"net/http"
	"time"
)

type MeResponse struct {
	UserID         string `json:"user_id" example:"user_2abc"`
	OrganizationID string `json:"organization_id,omitempty" example:"org_9xyz"`
	Scope          string `json:"scope" example:"org_9xyz"`
}

// @Summary      Get current user info
// @Description  Returns the caller identity taken from the token and the scope their documents live in.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MeResponse
// @Failure      401  {string}  string "Unauthorized"
// @Router       /me [get]
func (s *Server) GetCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())
	if !caller.Authenticated() {
		http.Error(w, "Unauthenticated", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{
		UserID:         caller.UserID,
		OrganizationID: caller.OrganizationID,
		Scope:          caller.Scope(),
	})
}

type HealthResponse struct {
	Status string            `json:"status" example:"ok"`
	Checks map[string]string `json:"checks"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       /health [get]
func (s *Server) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(s.checks))}
	status := http.StatusOK
	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	writeJSON(w, status, resp)
}
