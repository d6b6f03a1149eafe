package model

import "time"

// Role constants. Roles are fixed at signup; there is no role-change endpoint.
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RolePublisher  = "PUBLISHER"
	RoleEditor     = "EDITOR"
	RoleReader     = "READER"
)

// ValidRole reports whether s is one of the known roles.
func ValidRole(s string) bool {
	switch s {
	case RoleSuperAdmin, RolePublisher, RoleEditor, RoleReader:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
