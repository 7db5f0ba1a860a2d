package domain

import (
	"fmt"
	"time"
)

// User is a help-desk account. Users are deactivated, never deleted.
type User struct {
	ID           string
	Username     string
	Email        string
	Name         string
	Role         Role
	Active       bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID   string
	Name string
	Role Role
}

// ActorFromUser builds the actor identity for a user record.
func ActorFromUser(u *User) Actor {
	return Actor{ID: u.ID, Name: u.Name, Role: u.Role}
}

// Describe renders the actor the way audit entries name it.
func (a Actor) Describe() string {
	return fmt.Sprintf("%s (%s)", a.Name, a.Role)
}
