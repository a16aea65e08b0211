package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the coarse authority tier of an account.
type Role string

const (
	RoleAdmin    Role = "admin"
	RolePM       Role = "pm"
	RoleHoSP     Role = "hosp"
	RoleLecturer Role = "lecturer"
	RoleStudent  Role = "student"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RolePM, RoleHoSP, RoleLecturer, RoleStudent}

// ParseRole normalises raw case-insensitively and rejects unknown roles.
func ParseRole(raw string) (Role, error) {
	candidate := Role(strings.ToLower(strings.TrimSpace(raw)))
	for _, role := range Roles {
		if role == candidate {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Normalize returns the canonical lower-case form of r.
func (r Role) Normalize() Role {
	return Role(strings.ToLower(strings.TrimSpace(string(r))))
}

// IsAdminEquivalent reports whether r belongs to the unconditional tier.
func (r Role) IsAdminEquivalent() bool {
	switch r.Normalize() {
	case RoleAdmin, RolePM:
		return true
	}
	return false
}

// User is an account stored in the users table.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	LecturerID   *int64    `db:"lecturer_id" json:"lecturer_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing accounts.
type UserFilter struct {
	Role     *Role
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
