package middleware

import (
	"net/http"
	"strings"

	"provisioning-audit/internal/domain"
)

// Auth requires a valid bearer token and stores its subject as the request
// principal. A nil validator disables authentication.
func Auth(v JWTValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if v == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized: provide a Bearer token")
				return
			}
			claims, err := v.Validate(r.Context(), strings.TrimSpace(token))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized: invalid token")
				return
			}
			setLogPrincipal(r.Context(), claims.Subject)
			ctx := domain.WithPrincipal(r.Context(), domain.ContextPrincipal{Name: claims.Subject})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
