package model

import "strings"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Roles lists the roles offered on the registration form. The remote API
// accepts any role string, so this is not an allow-list.
var Roles = []string{RoleUser, RoleAdmin}

// NormalizeRole returns the role to register with. Only a blank role is
// replaced, with RoleUser.
func NormalizeRole(role string) string {
	role = strings.TrimSpace(role)
	if role == "" {
		return RoleUser
	}
	return role
}
