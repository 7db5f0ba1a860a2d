package domain

// Role enumerates the ordered actor roles of the help desk.
type Role string

const (
	RoleRequester  Role = "Requester"
	RoleAgent      Role = "Agent"
	RoleSupervisor Role = "Supervisor"
	RoleAdmin      Role = "Admin"
)

var roleRank = map[Role]int{
	RoleRequester:  1,
	RoleAgent:      2,
	RoleSupervisor: 3,
	RoleAdmin:      4,
}

// Valid reports whether the role is one of the fixed roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above min. Unknown roles never qualify.
func (r Role) AtLeast(min Role) bool {
	return RoleAtLeast(r, min)
}

// RoleAtLeast compares two roles using Requester < Agent < Supervisor < Admin.
func RoleAtLeast(role, min Role) bool {
	have, ok := roleRank[role]
	if !ok {
		return false
	}
	want, ok := roleRank[min]
	if !ok {
		return false
	}
	return have >= want
}
