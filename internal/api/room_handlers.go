package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"serwer-dokumentow/internal/models"
)

type AuthorizeRoomRequest struct {
	RoomID string `json:"room_id" example:"V1StGXR8_Z5jdHi6B-myT"`
}

// RoomAccessResponse is what the collaboration backend needs to open a
// session: who is joining and which document the room belongs to.
type RoomAccessResponse struct {
	RoomID   string             `json:"room_id"`
	Document models.DocumentRef `json:"document"`
	User     models.AuthContext `json:"user"`
}

// @Summary      Authorize room access
// @Description  Allows the caller into a collaboration room when they own the room's document or share its organization.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      AuthorizeRoomRequest  true  "Room"
// @Success      200      {object}  RoomAccessResponse
// @Failure      400      {string}  string "Bad Request"
// @Failure      401      {string}  string "Unauthorized"
// @Failure      403      {string}  string "Forbidden"
// @Failure      404      {string}  string "Not Found"
// @Router       /rooms/authorize [post]
func (s *Server) AuthorizeRoomHandler(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())

	var req AuthorizeRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.RoomID) == "" {
		http.Error(w, "room_id is required", http.StatusBadRequest)
		return
	}

	doc, err := s.tree.AuthorizeRoom(r.Context(), caller, req.RoomID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RoomAccessResponse{
		RoomID:   req.RoomID,
		Document: models.DocumentRef{ID: doc.ID, Name: doc.Title},
		User:     caller,
	})
}
