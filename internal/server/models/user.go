// Package models holds the server-side domain types shared by the
// repositories, services and the HTTP layer.
package models

import "time"

// User is a persisted account. PasswordHash never leaves the repository
// and service layers; use Identity for anything sent to clients.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	Role         Role
	CreatedAt    time.Time
}

// Identity returns the public projection of u.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Role: u.Role}
}
