package auth

import (
	"context"

	"github.com/citypulse/citypulse/internal/model"
)

type contextKey struct{}

// RequestContext is the resolved identity and scope for one request.
// It is rebuilt on every request and never persisted. UserID and Email are
// empty when the request carried no valid credential.
type RequestContext struct {
	UserID string
	Email  string
	Role   string
	CityID string
}

func WithContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

func FromContext(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(contextKey{}).(RequestContext)
	return rc, ok
}

// Role returns the resolved role, defaulting to READER when unresolved.
func Role(ctx context.Context) string {
	rc, ok := FromContext(ctx)
	if !ok {
		return model.RoleReader
	}
	return rc.Role
}

func UserID(ctx context.Context) string {
	rc, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return rc.UserID
}

func Email(ctx context.Context) string {
	rc, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return rc.Email
}

// CityID returns the tenant scope supplied with the request, if any.
func CityID(ctx context.Context) string {
	rc, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return rc.CityID
}

func IsSuperAdmin(ctx context.Context) bool {
	return Role(ctx) == model.RoleSuperAdmin
}
