package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"agrireport-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) AdminFarmers(w http.ResponseWriter, r *http.Request) {
	pageNum, limit := pageParams(r, s.Config.PageSize)
	page, err := s.Farmers.ListFarmers(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")), pageNum, limit)
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

func (s *Server) AdminFarmer(w http.ResponseWriter, r *http.Request) {
	profile, err := s.Farmers.FarmerByID(r.Context(), chi.URLParam(r, "farmerId"))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}

func (s *Server) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req services.AdminCreateRequest
	if err := decodeJSON(w, r, &req, 0); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	user, err := s.Accounts.CreateAdmin(r.Context(), CurrentClaims(r), req, requestMeta(r))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, user)
}

type SetActiveRequest struct {
	Active *bool `json:"active"`
}

func (s *Server) SetUserActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if err := decodeJSON(w, r, &req, 0); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	if req.Active == nil {
		writeServiceError(w, s.Log, r, services.ErrValidation(map[string]string{"active": "is required"}))
		return
	}
	if err := s.Accounts.SetActive(r.Context(), CurrentClaims(r), chi.URLParam(r, "userId"), *req.Active, requestMeta(r)); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"active": *req.Active})
}

func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.Accounts.DeleteUser(r.Context(), CurrentClaims(r), chi.URLParam(r, "userId"), requestMeta(r)); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ActivityLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pageNum, limit := pageParams(r, services.MaxPageSize)
	page, err := s.Activity.List(r.Context(), services.ActivityFilter{
		UserID: query.Get("user_id"),
		Action: query.Get("action"),
		Page:   pageNum,
		Limit:  limit,
	})
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

func (s *Server) SystemStatus(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, services.CaptureSystemStatus(s.DB, s.Hub, "/"))
}

// pageParams reads page and limit from the query, clamped to the list bounds.
func pageParams(r *http.Request, defaultLimit int) (int, int) {
	if defaultLimit < 1 {
		defaultLimit = services.DefaultPageSize
	}
	query := r.URL.Query()
	return services.Paging(parseInt(query.Get("page"), 1), parseInt(query.Get("limit"), defaultLimit), defaultLimit, services.MaxPageSize)
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value < 1 {
		return fallback
	}
	return value
}
