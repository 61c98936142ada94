package domain

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleSystem   Role = "system"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

// Actor identifies who is performing an operation. It is passed explicitly
// through every service call.
type Actor struct {
	UserID string
	Role   Role
}

// SystemActor is used by background jobs and carrier callbacks.
var SystemActor = Actor{UserID: "system", Role: RoleSystem}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) IsCustomer() bool {
	return a.Role == RoleCustomer
}
