package model

import (
	"fmt"
	"time"
)

// User represents a service member account. Users both authenticate
// against the API and appear as holders on equipment records.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleSoldier = "soldier"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
// Unknown roles fail closed.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:   3,
		RoleManager: 2,
		RoleSoldier: 1,
	}
	min, ok := levels[minimum]
	if !ok {
		return false
	}
	return levels[role] >= min
}

// ValidatePassword checks password requirements.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}
