package rbac

import (
	"fmt"
	"strings"
)

// Role is the closed set of identities the workflow knows about.
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleCEO      Role = "CEO"
	RoleHR       Role = "HR"
)

var roles = []Role{RoleEmployee, RoleCEO, RoleHR}

func (r Role) Valid() bool {
	for _, known := range roles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole accepts any casing and surrounding whitespace.
func ParseRole(v string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(v)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", v)
	}
	return r, nil
}
