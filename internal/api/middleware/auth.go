package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/probegrid/probegrid/internal/auth"
	"github.com/probegrid/probegrid/internal/domain/actor"
	"github.com/probegrid/probegrid/internal/pkg/errors"
	"github.com/probegrid/probegrid/internal/pkg/utils"
)

// ContextKey is a custom type for context keys
type ContextKey string

// ActorKey is the context key for the authenticated actor
const ActorKey ContextKey = "actor"

// Auth returns a middleware that validates JWT tokens and places the
// resulting actor in the request context. Every route behind it can assume
// a tenant scope and a valid role.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				utils.WriteError(w, errors.Unauthorized("Missing authentication token"))
				return
			}

			claims, err := auth.ParseClaims(tokenStr, jwtSecret)
			if err != nil {
				utils.WriteError(w, errors.Unauthorized("Invalid or expired token"))
				return
			}

			act := actor.Actor{
				TenantID: claims.TenantID,
				Role:     actor.Role(claims.Role),
				Name:     claims.Subject,
			}
			if !act.Role.IsValid() {
				utils.WriteError(w, errors.Unauthorized("Unknown role in token"))
				return
			}

			ctx := context.WithValue(r.Context(), ActorKey, act)

			AddLogField(w, "tenant_id", act.TenantID)
			AddLogField(w, "actor", act.Name)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	if cookie, err := r.Cookie("accessToken"); err == nil {
		return cookie.Value
	}
	return ""
}

// GetActor extracts the authenticated actor from the request context
func GetActor(r *http.Request) (actor.Actor, bool) {
	act, ok := r.Context().Value(ActorKey).(actor.Actor)
	return act, ok
}
