package models

import (
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Hardness tells whether a constraint is mandatory or a weighted preference.
type Hardness string

const (
	HardnessHard Hardness = "Hard"
	HardnessSoft Hardness = "Soft"
)

// ParseHardness accepts any casing and returns the canonical value.
func ParseHardness(raw string) (Hardness, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "hard":
		return HardnessHard, true
	case "soft":
		return HardnessSoft, true
	}
	return "", false
}

// Scope is the entity category a constraint applies to.
type Scope string

const (
	ScopeGlobal         Scope = "Global"
	ScopeProgram        Scope = "Program"
	ScopeSpecialization Scope = "Specialization"
	ScopeModule         Scope = "Module"
	ScopeLecturer       Scope = "Lecturer"
	ScopeGroup          Scope = "Group"
	ScopeRoom           Scope = "Room"
)

// Scopes lists every constraint scope.
var Scopes = []Scope{ScopeGlobal, ScopeProgram, ScopeSpecialization, ScopeModule, ScopeLecturer, ScopeGroup, ScopeRoom}

// ParseScope accepts any casing and returns the canonical value.
func ParseScope(raw string) (Scope, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, scope := range Scopes {
		if strings.EqualFold(string(scope), trimmed) {
			return scope, true
		}
	}
	return "", false
}

// ConstraintType is a reusable rule template.
type ConstraintType struct {
	ID               int64      `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	Active           bool       `db:"active" json:"active"`
	ConstraintLevel  *string    `db:"constraint_level" json:"constraint_level,omitempty"`
	ConstraintFormat *string    `db:"constraint_format" json:"constraint_format,omitempty"`
	ValidFrom        *time.Time `db:"valid_from" json:"valid_from,omitempty"`
	ValidTo          *time.Time `db:"valid_to" json:"valid_to,omitempty"`
	ConstraintRule   *string    `db:"constraint_rule" json:"constraint_rule,omitempty"`
	ConstraintTarget *string    `db:"constraint_target" json:"constraint_target,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// SchedulerConstraint binds a constraint type to a scope and target.
type SchedulerConstraint struct {
	ID               int64          `db:"id" json:"id"`
	ConstraintTypeID int64          `db:"constraint_type_id" json:"constraint_type_id"`
	Hardness         Hardness       `db:"hardness" json:"hardness"`
	Weight           *int           `db:"weight" json:"weight,omitempty"`
	Scope            Scope          `db:"scope" json:"scope"`
	TargetID         *int64         `db:"target_id" json:"target_id,omitempty"`
	Config           types.JSONText `db:"config" json:"config" swaggertype:"object"`
	IsEnabled        bool           `db:"is_enabled" json:"is_enabled"`
	Notes            *string        `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// ConstraintFilter narrows constraint listings. Nil fields do not filter.
type ConstraintFilter struct {
	Scope    *Scope
	TargetID *int64
	TypeID   *int64
	Enabled  *bool
}

// LecturerAvailability holds one lecturer's declared weekly availability.
type LecturerAvailability struct {
	ID           int64          `db:"id" json:"id"`
	LecturerID   int64          `db:"lecturer_id" json:"lecturer_id"`
	ScheduleData types.JSONText `db:"schedule_data" json:"schedule_data" swaggertype:"object"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}
