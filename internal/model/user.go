package model

import "github.com/google/uuid"

// Role drives every access-policy decision. The core never inspects any
// other user field.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleLabTechnician Role = "lab_technician"
	RoleReceptionist  Role = "receptionist"
	RolePatient       Role = "patient"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLabTechnician, RoleReceptionist, RolePatient:
		return true
	}
	return false
}

type User struct {
	Base
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         Role   `json:"role" db:"role"`
	IsActive     bool   `json:"is_active" db:"is_active"`
}

// Principal is the resolved calling identity, placed in the request context
// by the auth middleware and consumed by the access policy.
type Principal struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}
