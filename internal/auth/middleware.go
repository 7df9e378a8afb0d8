package auth

import (
	"context"
	"net/http"

	"ms-tryon/internal/logger"
	"ms-tryon/internal/utils"
)

type contextKey string

const identityKey contextKey = "identity"

// Middleware rejects requests without a valid bearer token and stores the
// caller's identity in the request context.
func Middleware(v Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Unauthorized", err.Error()))
				return
			}

			id, err := v.Verify(r.Context(), rawToken)
			if err != nil {
				log.LogSecurity("TOKEN_REJECTED", err.Error())
				utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Unauthorized", "invalid token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole must run after Middleware.
func RequireRole(log *logger.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := FromContext(r.Context())
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.LogSecurity("FORBIDDEN", "user "+id.UserID+" lacks role for "+r.URL.Path)
			utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse("Forbidden", "insufficient role"))
		})
	}
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey).(Identity)
	return id
}

// Helper to extract user ID in handlers
func UserID(ctx context.Context) string {
	return FromContext(ctx).UserID
}
