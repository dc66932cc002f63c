package httpapi

import (
	"net/http"
	"time"

	"agrireport-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func parseSince(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, services.ErrValidation(map[string]string{"since": "must be an RFC 3339 timestamp"})
	}
	return &since, nil
}

func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	since, err := parseSince(query.Get("since"))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	pageNum, limit := pageParams(r, 20)
	page, err := s.Notifications.List(r.Context(), CurrentClaims(r), services.NotificationFilter{
		UnreadOnly: query.Get("unread") == "true",
		Since:      since,
		Page:       pageNum,
		Limit:      limit,
	})
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

func (s *Server) UnreadCount(w http.ResponseWriter, r *http.Request) {
	since, err := parseSince(r.URL.Query().Get("since"))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	count, err := s.Notifications.UnreadCount(r.Context(), CurrentClaims(r), since)
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.Notifications.MarkRead(r.Context(), CurrentClaims(r), chi.URLParam(r, "notificationId")); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	updated, err := s.Notifications.MarkAllRead(r.Context(), CurrentClaims(r))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func (s *Server) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := s.Notifications.Delete(r.Context(), CurrentClaims(r), chi.URLParam(r, "notificationId")); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ClearRead(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.Notifications.ClearRead(r.Context(), CurrentClaims(r))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
