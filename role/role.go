package role

import (
	"errors"
	"strconv"
	"strings"
)

// ErrUnknownRole is returned by [Parse] for identifiers that do not name a defined role.
var ErrUnknownRole = errors.New("unknown role")

// Role identifies the privilege class of an authenticated user.
type Role uint8

const (
	// Admin has access to the administration area.
	Admin Role = 1
	// User is the default role for the primary workflow area.
	User Role = 2
	// Manager has access to the manager area.
	Manager Role = 3
)

// All lists the defined roles in wire order.
var All = []Role{Admin, User, Manager}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case Admin, User, Manager:
		return true
	default:
		return false
	}
}

// String returns the lower-case role name, or "role(N)" for undefined values.
func (r Role) String() string {
	switch r {
	case Admin:
		return "admin"
	case User:
		return "user"
	case Manager:
		return "manager"
	default:
		return "role(" + strconv.Itoa(int(r)) + ")"
	}
}

// Parse accepts either the integer wire value ("1") or the role name ("admin").
func Parse(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 255 || !Role(n).Valid() {
			return 0, ErrUnknownRole
		}
		return Role(n), nil
	}

	switch strings.ToLower(s) {
	case "admin":
		return Admin, nil
	case "user":
		return User, nil
	case "manager":
		return Manager, nil
	default:
		return 0, ErrUnknownRole
	}
}

// In reports whether r is a member of set.
func (r Role) In(set []Role) bool {
	for _, candidate := range set {
		if candidate == r {
			return true
		}
	}
	return false
}
