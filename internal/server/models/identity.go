package models

// Identity is the verified "who is making this request". It doubles as the
// session view returned to clients.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Can reports whether the identity's role grants c.
func (i Identity) Can(c Capability) bool {
	return i.Role.Can(c)
}
