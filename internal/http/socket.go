package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NotificationSocket pushes new notifications to the connected user.
// The token is read from the query string.
func (s *Server) NotificationSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	claims, err := s.Tokens.VerifyToken(token)
	if err != nil {
		WriteError(w, http.StatusForbidden, "Invalid token")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	s.Hub.Add(conn, claims)
	defer func() {
		s.Hub.Remove(conn)
		_ = conn.Close()
	}()

	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
