package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"agrireport-backend-go/internal/services"

	"go.uber.org/zap"
)

type ErrorResponse struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message})
}

// writeServiceError renders client-safe errors as-is and hides everything
// else behind a 500.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, r *http.Request, err error) {
	if serr, ok := services.AsServiceError(err); ok {
		WriteJSON(w, serr.Status, ErrorResponse{Message: serr.Message, Code: serr.Code, Fields: serr.Fields})
		return
	}
	log.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}

const defaultBodyLimit = 1 << 20

// decodeJSON reads at most limit bytes of JSON into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, limit int64) error {
	if limit <= 0 {
		limit = defaultBodyLimit
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return services.ErrPayloadTooLarge("Request body is too large")
		}
		if errors.Is(err, io.EOF) {
			return services.ErrBadRequest("Request body is required")
		}
		return services.ErrBadRequest("Invalid payload")
	}
	return nil
}
