package api

import (
	"net/http"

	"serwer-dokumentow/internal/websocket"
)

// @Summary      Live tree events
// @Description  Upgrades to a websocket that streams committed tree events of the caller's scope. Browsers cannot set headers here, so the token travels in the query string.
// @Tags         events
// @Param        token  query  string  true  "Access token"
// @Success      101
// @Failure      401    {string}  string "Unauthorized"
// @Router       /ws [get]
func (s *Server) ServeWsHandler(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		s.logger.Warn("próba połączenia WS bez tokenu", "remote", r.RemoteAddr)
		http.Error(w, "Token required", http.StatusUnauthorized)
		return
	}

	caller, err := s.verifier.Verify(tokenString)
	if err != nil {
		s.logger.Warn("próba połączenia WS z nieprawidłowym tokenem", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("błąd upgrade WebSocket", "error", err)
		return
	}

	client := websocket.NewClient(s.wsHub, conn, caller.UserID, caller.Scope())
	select {
	case s.wsHub.Register <- client:
	case <-s.wsHub.Done():
		conn.Close()
		return
	}

	go client.ReadPump()
	go client.WritePump()
}
