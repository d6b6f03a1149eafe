package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/citypulse/citypulse/internal/auth"
	"github.com/citypulse/citypulse/internal/model"
)

const (
	roleHeader = "X-User-Role"
	cityHeader = "X-City-ID"
)

// ResolverConfig controls how request context is derived.
type ResolverConfig struct {
	// DevHeaders honors the X-User-Role header when no valid bearer token is
	// present, and downgrades invalid tokens to the fallback role instead of
	// rejecting them. Intended for development and tests only; keep it off in
	// production so the role header is never a trust channel.
	DevHeaders bool
}

// ResolveContext derives the per-request identity, role, and city scope.
//
// Resolution order: a valid bearer token wins and its claims are
// authoritative (a conflicting role header is ignored); otherwise the role
// header applies when DevHeaders is on; otherwise the request runs as READER.
// City scope always comes from the request header, never from the token.
func ResolveContext(tokens *auth.TokenService, cfg ResolverConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := auth.RequestContext{
				Role:   model.RoleReader,
				CityID: r.Header.Get(cityHeader),
			}

			if token := bearerToken(r); token != "" {
				claims, err := tokens.Verify(token)
				if err == nil {
					rc.UserID = claims.UserID
					rc.Email = claims.Email
					if model.ValidRole(claims.Role) {
						rc.Role = claims.Role
					}
					next.ServeHTTP(w, r.WithContext(auth.WithContext(r.Context(), rc)))
					return
				}
				if !cfg.DevHeaders {
					http.Error(w, "invalid or expired token", http.StatusUnauthorized)
					return
				}
				logger.Warn("discarding invalid bearer token", "path", r.URL.Path)
			}

			if cfg.DevHeaders {
				if role := r.Header.Get(roleHeader); model.ValidRole(role) {
					rc.Role = role
				}
			}

			next.ServeHTTP(w, r.WithContext(auth.WithContext(r.Context(), rc)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
