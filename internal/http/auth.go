package httpapi

import (
	"context"
	"net/http"
	"strings"

	"agrireport-backend-go/internal/services"
)

type contextKey string

const ctxClaims contextKey = "claims"

// WithAuth requires a bearer token. A missing token is 401; a token that
// does not verify is 403.
func WithAuth(tokenService services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Message: "Authentication required", Code: services.CodeUnauthorized})
				return
			}
			tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			claims, err := tokenService.VerifyToken(tokenStr)
			if err != nil {
				message := "Invalid token"
				if serr, ok := services.AsServiceError(err); ok {
					message = serr.Message
				}
				WriteJSON(w, http.StatusForbidden, ErrorResponse{Message: message, Code: services.CodeForbidden})
				return
			}
			ctx := context.WithValue(r.Context(), ctxClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func CurrentClaims(r *http.Request) services.Claims {
	if value, ok := r.Context().Value(ctxClaims).(services.Claims); ok {
		return value
	}
	return services.Claims{}
}

func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CurrentClaims(r).Role == role {
				next.ServeHTTP(w, r)
				return
			}
			WriteJSON(w, http.StatusForbidden, ErrorResponse{Message: "Not allowed", Code: services.CodeForbidden})
		})
	}
}

func requestMeta(r *http.Request) services.RequestMeta {
	return services.RequestMeta{IP: resolveClientIP(r), UserAgent: trimString(r.UserAgent(), 255)}
}

func resolveClientIP(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	return r.RemoteAddr
}

func trimString(value string, maxLen int) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}
