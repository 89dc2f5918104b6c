// Package rbac implements per-app role grants. Access is a single
// (subject, app, role) triple; roles are strictly ranked and a higher role
// implies every lower one.
package rbac

import (
	"fmt"
	"time"
)

// Role is an access level within one app.
type Role string

const (
	RoleNone     Role = "none"
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

var roleRanks = map[Role]int{
	RoleNone:     0,
	RoleEmployee: 1,
	RoleManager:  2,
	RoleAdmin:    3,
}

// Rank returns the role's position in the none < employee < manager < admin
// ordering. Unknown roles rank below none.
func (r Role) Rank() int {
	rank, ok := roleRanks[r]
	if !ok {
		return -1
	}
	return rank
}

// AtLeast reports whether r grants everything min does.
func (r Role) AtLeast(min Role) bool {
	return r.Rank() >= min.Rank()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// ParseRole validates a role string from the API.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("rbac: unknown role %q", s)
	}
	return r, nil
}

// Grant ties a subject to a role within one app.
type Grant struct {
	UserID    int64     `json:"user_id"`
	AppCode   string    `json:"app_code"`
	Role      Role      `json:"role"`
	GrantedAt time.Time `json:"granted_at"`
}
