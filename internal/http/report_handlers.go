package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"agrireport-backend-go/internal/models"
	"agrireport-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

// reportBodyLimit leaves room for base64 overhead on top of the photo cap.
func (s *Server) reportBodyLimit() int64 {
	return s.Config.MaxPhotoBytes*4/3 + 1<<20
}

func (s *Server) reportFilter(r *http.Request) services.ReportFilter {
	query := r.URL.Query()
	page, limit := pageParams(r, s.Config.PageSize)
	return services.ReportFilter{
		Status:   query.Get("status"),
		Type:     query.Get("type"),
		Barangay: query.Get("barangay"),
		Page:     page,
		Limit:    limit,
	}
}

func (s *Server) SubmitReport(w http.ResponseWriter, r *http.Request) {
	claims := CurrentClaims(r)
	if claims.Role != models.RoleFarmer {
		WriteJSON(w, http.StatusForbidden, ErrorResponse{Message: "Only farmers can submit reports", Code: services.CodeForbidden})
		return
	}
	var req services.SubmitReportRequest
	if err := decodeJSON(w, r, &req, s.reportBodyLimit()); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	report, err := s.Reports.Submit(r.Context(), claims, req, requestMeta(r))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, report)
}

func (s *Server) ReportHistory(w http.ResponseWriter, r *http.Request) {
	filter := s.reportFilter(r)
	filter.UserID = CurrentClaims(r).UserID
	page, err := s.Reports.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.Reports.Get(r.Context(), CurrentClaims(r), chi.URLParam(r, "reportId"))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

func (s *Server) ReportPhoto(w http.ResponseWriter, r *http.Request) {
	photo, err := s.Reports.Photo(r.Context(), CurrentClaims(r), chi.URLParam(r, "reportId"))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	w.Header().Set("Content-Type", photo.Mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(photo.Data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(photo.Data)
}

func (s *Server) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.Reports.Comments(r.Context(), CurrentClaims(r), chi.URLParam(r, "reportId"))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": comments})
}

func (s *Server) AddComment(w http.ResponseWriter, r *http.Request) {
	var req services.CommentRequest
	if err := decodeJSON(w, r, &req, 0); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	comment, err := s.Reports.AddComment(r.Context(), CurrentClaims(r), chi.URLParam(r, "reportId"), req, requestMeta(r))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, comment)
}

func (s *Server) AdminReports(w http.ResponseWriter, r *http.Request) {
	page, err := s.Reports.List(r.Context(), s.reportFilter(r))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

func (s *Server) UpdateReportStatus(w http.ResponseWriter, r *http.Request) {
	var req services.StatusRequest
	if err := decodeJSON(w, r, &req, 0); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	report, err := s.Reports.Transition(r.Context(), CurrentClaims(r), chi.URLParam(r, "reportId"), req, requestMeta(r))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

func (s *Server) ExportReports(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Reports.All(r.Context(), s.reportFilter(r))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	data, err := services.ExportReports(rows)
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	name := fmt.Sprintf("reports-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Reports.Stats(r.Context())
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}
