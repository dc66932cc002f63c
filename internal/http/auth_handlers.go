package httpapi

import (
	"net/http"

	"agrireport-backend-go/internal/services"
)

type RegisterResponse struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := decodeJSON(w, r, &req, 0); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	userID, err := s.Accounts.Register(r.Context(), req, requestMeta(r))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, RegisterResponse{UserID: userID, Message: "Registration successful"})
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := decodeJSON(w, r, &req, 0); err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	result, err := s.Accounts.Login(r.Context(), req, requestMeta(r))
	if err != nil {
		writeServiceError(w, s.Log, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}
