package models

import "time"

// Degree levels offered by a study program.
const (
	LevelBachelor = "Bachelor"
	LevelMaster   = "Master"
)

// StudyProgram anchors hosp authority through HeadOfProgramID.
type StudyProgram struct {
	ID              int64     `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Acronym         string    `db:"acronym" json:"acronym"`
	Status          bool      `db:"status" json:"status"`
	StartDate       string    `db:"start_date" json:"start_date"`
	TotalECTS       int       `db:"total_ects" json:"total_ects"`
	Location        *string   `db:"location" json:"location,omitempty"`
	Level           string    `db:"level" json:"level"`
	DegreeType      *string   `db:"degree_type" json:"degree_type,omitempty"`
	HeadOfProgramID *int64    `db:"head_of_program_id" json:"head_of_program_id,omitempty"`
	HeadName        *string   `db:"head_name" json:"head_of_program,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Specialization belongs to exactly one study program.
type Specialization struct {
	ID           int64     `db:"id" json:"id"`
	ProgramID    int64     `db:"program_id" json:"program_id"`
	Name         string    `db:"name" json:"name"`
	Acronym      string    `db:"acronym" json:"acronym"`
	StartDate    string    `db:"start_date" json:"start_date"`
	Status       bool      `db:"status" json:"status"`
	StudyProgram *string   `db:"study_program" json:"study_program,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// SpecializationFilter narrows specialization listings.
type SpecializationFilter struct {
	ProgramID  *int64
	ProgramIDs []int64
}
