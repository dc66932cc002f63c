package httpapi

import (
	"net/http"

	"agrireport-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	view, err := s.Farmers.Me(r.Context(), CurrentClaims(r).UserID)
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

func (s *Server) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.Farmers.Profile(r.Context(), CurrentClaims(r).UserID)
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}

// UpdateProfile takes a loose object; unknown keys are ignored by the
// column allow-list.
func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input map[string]interface{}
	if err := decodeJSON(w, r, &input, 0); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	profile, err := s.Farmers.UpdateProfile(r.Context(), CurrentClaims(r), input, requestMeta(r))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}

func (s *Server) ListFarms(w http.ResponseWriter, r *http.Request) {
	farms, err := s.Farmers.ListFarms(r.Context(), CurrentClaims(r).UserID)
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": farms})
}

func (s *Server) AddFarm(w http.ResponseWriter, r *http.Request) {
	var req services.FarmInput
	if err := decodeJSON(w, r, &req, 0); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	farm, err := s.Farmers.AddFarm(r.Context(), CurrentClaims(r), req, requestMeta(r))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, farm)
}

func (s *Server) UpdateFarm(w http.ResponseWriter, r *http.Request) {
	var input map[string]interface{}
	if err := decodeJSON(w, r, &input, 0); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	farm, err := s.Farmers.UpdateFarm(r.Context(), CurrentClaims(r), chi.URLParam(r, "farmId"), input, requestMeta(r))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, farm)
}

func (s *Server) DeleteFarm(w http.ResponseWriter, r *http.Request) {
	if err := s.Farmers.DeleteFarm(r.Context(), CurrentClaims(r), chi.URLParam(r, "farmId"), requestMeta(r)); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
