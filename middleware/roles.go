package middleware

import (
	"encoding/json"
	"net/http"

	"panellicense/logger"
	"panellicense/models"
)

// RequireRoles wraps a handler and allows access only if the token role is one of allowedRoles.
// It must run after AuthMiddleware.
func RequireRoles(allowedRoles ...string) func(http.HandlerFunc) http.HandlerFunc {
	set := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		set[r] = struct{}{}
	}
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeUnauthorized(w, "Unauthorized")
				return
			}
			if _, allowed := set[claims.Role]; !allowed {
				logger.WithFields(map[string]interface{}{
					"request_id": RequestIDFromContext(r.Context()),
					"user_id":    claims.UserID,
					"role":       claims.Role,
					"path":       r.URL.Path,
				}).Warn("Forbidden: insufficient role")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(models.CodedErrorResponse("Forbidden: insufficient role", "FORBIDDEN", ""))
				return
			}
			next.ServeHTTP(w, r)
		}
	}
}
