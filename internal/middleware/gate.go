package middleware

import (
	"net/http"

	"github.com/citypulse/citypulse/internal/auth"
)

// RequireRole allows only requests whose resolved role matches exactly.
// Any mismatch fails closed.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.Role(r.Context()) != role {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCity rejects requests without a city scope. SUPER_ADMIN bypasses
// tenant scoping entirely.
func RequireCity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.IsSuperAdmin(r.Context()) {
			next.ServeHTTP(w, r)
			return
		}
		if auth.CityID(r.Context()) == "" {
			http.Error(w, "city_id required", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}
