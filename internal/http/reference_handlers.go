package httpapi

import (
	"net/http"

	"agrireport-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Barangays(w http.ResponseWriter, r *http.Request) {
	items, err := s.Reference.Barangays(r.Context())
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request, kind services.LookupKind) {
	items, err := s.Reference.Lookup(r.Context(), kind)
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) PestTypes(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, services.LookupPests)
}

func (s *Server) CropTypes(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, services.LookupCrops)
}

func (s *Server) Options(w http.ResponseWriter, r *http.Request) {
	options, err := s.Reference.Options(r.Context())
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, options)
}

func (s *Server) News(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 10)
	if limit > 50 {
		limit = 50
	}
	items, err := s.Reference.News(r.Context(), limit)
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) CreateBarangay(w http.ResponseWriter, r *http.Request) {
	var req services.BarangayRequest
	if err := decodeJSON(w, r, &req, 0); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	item, err := s.Reference.CreateBarangay(r.Context(), CurrentClaims(r), req, requestMeta(r))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, item)
}

func (s *Server) DeleteBarangay(w http.ResponseWriter, r *http.Request) {
	if err := s.Reference.DeleteBarangay(r.Context(), CurrentClaims(r), chi.URLParam(r, "id"), requestMeta(r)); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) CreateLookup(w http.ResponseWriter, r *http.Request) {
	var req services.LookupRequest
	if err := decodeJSON(w, r, &req, 0); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	kind := services.LookupKind(chi.URLParam(r, "kind"))
	item, err := s.Reference.CreateLookup(r.Context(), CurrentClaims(r), kind, req, requestMeta(r))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, item)
}

func (s *Server) DeleteLookup(w http.ResponseWriter, r *http.Request) {
	kind := services.LookupKind(chi.URLParam(r, "kind"))
	if err := s.Reference.DeleteLookup(r.Context(), CurrentClaims(r), kind, chi.URLParam(r, "id"), requestMeta(r)); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) PutSetting(w http.ResponseWriter, r *http.Request) {
	var req services.SettingRequest
	if err := decodeJSON(w, r, &req, 0); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	key := chi.URLParam(r, "key")
	if err := s.Reference.PutSetting(r.Context(), CurrentClaims(r), key, req, requestMeta(r)); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"key": key, "value": req.Value})
}

func (s *Server) CreateNews(w http.ResponseWriter, r *http.Request) {
	var req services.NewsRequest
	if err := decodeJSON(w, r, &req, 0); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	item, err := s.Reference.CreateNews(r.Context(), CurrentClaims(r), req, requestMeta(r))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, item)
}
