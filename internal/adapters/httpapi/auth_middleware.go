package httpapi

import (
	"net/http"
	"strings"

	"github.com/Overland-East-Bay/ridebook/internal/platform/auth/tokenissuer"
)

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	Verify(token string) (tokenissuer.Identity, error)
}

// NewAuthMiddleware enforces Authorization: Bearer <JWT>.
//
// On success, it stores the caller identity in request context.
func NewAuthMiddleware(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if authz == "" {
				writeMessageError(w, r, http.StatusUnauthorized, "Access denied. No token provided.", nil)
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(authz, prefix) {
				writeMessageError(w, r, http.StatusUnauthorized, "Malformed Authorization header", nil)
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
			if raw == "" {
				writeMessageError(w, r, http.StatusUnauthorized, "Access denied. No token provided.", nil)
				return
			}

			id, err := v.Verify(raw)
			if err != nil {
				writeMessageError(w, r, http.StatusForbidden, "Invalid token", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
