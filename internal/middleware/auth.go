package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/florancealade/zephyryx-storage-keep/models"
)

type contextKey string

// PrincipalKey is the request context key holding the authenticated principal.
const PrincipalKey contextKey = "principal"

// NewAuthenticator returns middleware that accepts a bearer JWT signed with
// secret and stores its subject in the request context as the caller.
func NewAuthenticator(secret []byte) func(http.Handler) http.Handler {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				slog.DebugContext(r.Context(), "[AuthMiddleware] missing Authorization header")
				unauthorized(w, "authentication required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				slog.DebugContext(r.Context(), "[AuthMiddleware] malformed Authorization header")
				unauthorized(w, "invalid token format")
				return
			}

			claims := &jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, keyFunc)
			if err != nil || !token.Valid {
				slog.DebugContext(r.Context(), "[AuthMiddleware] token rejected", "error", err)
				unauthorized(w, "invalid token")
				return
			}
			if claims.Subject == "" {
				slog.DebugContext(r.Context(), "[AuthMiddleware] token without subject")
				unauthorized(w, "invalid token")
				return
			}

			principal := models.Principal(claims.Subject)
			slog.DebugContext(r.Context(), "[AuthMiddleware] authenticated", "principal", principal)
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// WithPrincipal returns a copy of ctx carrying p as the caller.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFromContext extracts the caller placed by the authenticator.
func PrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(models.Principal)
	if !ok || p == "" {
		return "", false
	}
	return p, true
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg, Kind: "unauthorized"})
}
