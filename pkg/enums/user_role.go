package enums

import "fmt"

// UserRole identifies what an authenticated user may do.
type UserRole string

const (
	UserRoleVendor UserRole = "vendor"
	UserRoleAdmin  UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleVendor,
	UserRoleAdmin,
}

// String returns the literal string for the role.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the role is known.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
