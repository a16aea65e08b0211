package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AssessmentPart is one weighted component of a module assessment.
type AssessmentPart struct {
	Type   string `json:"type" validate:"required"`
	Weight *int   `json:"weight,omitempty" validate:"omitempty,min=0,max=100"`
}

// Module is keyed by its module code.
type Module struct {
	ModuleCode          string         `db:"module_code" json:"module_code"`
	Name                string         `db:"name" json:"name"`
	ECTS                int            `db:"ects" json:"ects"`
	RoomType            string         `db:"room_type" json:"room_type"`
	AssessmentType      *string        `db:"assessment_type" json:"assessment_type,omitempty"`
	AssessmentBreakdown types.JSONText `db:"assessment_breakdown" json:"assessment_breakdown" swaggertype:"array,object"`
	Semester            int            `db:"semester" json:"semester"`
	Category            *string        `db:"category" json:"category,omitempty"`
	ProgramID           *int64         `db:"program_id" json:"program_id,omitempty"`
	SpecializationIDs   []int64        `db:"-" json:"specialization_ids"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// ModuleFilter narrows module listings.
type ModuleFilter struct {
	ProgramID *int64
}
