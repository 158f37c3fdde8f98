package actor

// Role is the authorization level an actor carries into every operation.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

var roleRank = map[Role]int{
	RoleViewer:   1,
	RoleOperator: 2,
	RoleAdmin:    3,
}

// IsValid checks if the role is a known role
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether the role grants at least the privileges of min.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// Actor is the identity performing an operation: a tenant scope plus a role.
// Every service operation is evaluated against exactly one actor, and the
// tenant scope is applied to every read and write regardless of the role.
type Actor struct {
	TenantID int64
	Role     Role
	Name     string
}

// System returns an actor used by internal drivers (the trigger scanner),
// which operate with admin rights inside a single tenant.
func System(tenantID int64, name string) Actor {
	return Actor{TenantID: tenantID, Role: RoleAdmin, Name: name}
}
