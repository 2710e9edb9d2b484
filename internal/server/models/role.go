package models

// Role names a set of capabilities. Only the name travels inside session
// tokens, so adding roles or capabilities does not change the token shape.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// DefaultRole is assigned to self-registered accounts.
const DefaultRole = RoleUser

// Capability is a single permission implied by a role.
type Capability string

const (
	CapChat  Capability = "chat"
	CapAdmin Capability = "admin"
)

var roleCapabilities = map[Role]map[Capability]struct{}{
	RoleUser: {
		CapChat: {},
	},
	RoleAdmin: {
		CapChat:  {},
		CapAdmin: {},
	},
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether r grants c. Unknown roles grant nothing.
func (r Role) Can(c Capability) bool {
	_, ok := roleCapabilities[r][c]
	return ok
}

// ParseRole converts a stored or transported role name.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// Roles lists the known roles in a stable order.
func Roles() []Role {
	return []Role{RoleUser, RoleAdmin}
}
