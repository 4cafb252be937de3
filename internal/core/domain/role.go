package domain

import "strings"

// Role is the single capability assigned to a user. The zero value means the
// user holds no role and has no permissions.
type Role string

const (
	RoleNone   Role = ""
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "funcionario"
	RoleClient Role = "cliente"
)

// AllRoles lists every assignable role.
var AllRoles = []Role{RoleAdmin, RoleStaff, RoleClient}

// ParseRole converts a raw value into a Role. Unknown values yield ErrInvalidRole.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !r.Valid() {
		return RoleNone, ErrInvalidRole
	}
	return r, nil
}

// Valid reports whether r is one of the assignable roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleClient:
		return true
	}
	return false
}

// IsStaffOrAdmin reports whether r may work tasks (create, block, be assigned).
func (r Role) IsStaffOrAdmin() bool {
	return r == RoleAdmin || r == RoleStaff
}

func (r Role) String() string {
	return string(r)
}
