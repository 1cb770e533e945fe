package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
	// RoleService identifies sibling services calling with the shared service token.
	RoleService UserRole = "SERVICE"
)

// Valid reports whether the role can be assigned to a user account.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// UserStatus gates login.
type UserStatus string

const (
	UserStatusPending  UserStatus = "PENDING"
	UserStatusApproved UserStatus = "APPROVED"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Status       UserStatus `db:"status" json:"status"`
	Verified     bool       `db:"verified" json:"verified"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserStats counts approved accounts.
type UserStats struct {
	Total    int `json:"total"`
	Students int `json:"students"`
	Teachers int `json:"teachers"`
	Admins   int `json:"admins"`
}
