package domain

import "time"

// Role enumerates the fixed set of account roles.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleSupportAgent Role = "SUPPORT_AGENT"
	RoleCustomer     Role = "CUSTOMER"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupportAgent, RoleCustomer:
		return true
	}
	return false
}

// Account is the identity record for customers, agents and admins.
// The role is fixed at registration; no role-change path exists.
type Account struct {
	ID        string
	Username  string
	PINHash   string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
