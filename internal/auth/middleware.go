package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	roleKey   contextKey = "role"
)

// UserID returns the authenticated user id the request gate attached, or
// false for requests that came through the allow-list.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// Role returns the authenticated role, if any.
func Role(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(roleKey).(string)
	return role, ok
}

// Gate is the request gate: it verifies the access token on every request
// except an exact-prefix allow-list and attaches the identity to the request
// context. It keeps no state between requests.
type Gate struct {
	tokens       *TokenService
	exemptPrefix []string
}

func NewGate(tokens *TokenService) *Gate {
	return &Gate{
		tokens: tokens,
		exemptPrefix: []string{
			"/api/login",
			"/api/register",
			"/api/token/refresh",
			"/api/send-otp",
			"/api/reset-password",
			"/media/",
			"/health",
		},
	}
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range g.exemptPrefix {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			writeUnauthorized(w, "Unauthorized: Access token is missing or invalid.")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims, err := g.tokens.VerifyAccess(token)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				writeUnauthorized(w, "Token has expired.")
				return
			}
			writeUnauthorized(w, "Invalid token.")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, roleKey, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"status":  "error",
		"message": message,
	})
}
