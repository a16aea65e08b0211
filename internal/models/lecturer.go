package models

import "time"

// Lecturer is a teaching staff profile, independent from any account.
type Lecturer struct {
	ID             int64     `db:"id" json:"id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       *string   `db:"last_name" json:"last_name,omitempty"`
	Title          string    `db:"title" json:"title"`
	EmploymentType string    `db:"employment_type" json:"employment_type"`
	PersonalEmail  *string   `db:"personal_email" json:"personal_email,omitempty"`
	MDHEmail       *string   `db:"mdh_email" json:"mdh_email,omitempty"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	Location       *string   `db:"location" json:"location,omitempty"`
	TeachingLoad   *string   `db:"teaching_load" json:"teaching_load,omitempty"`
	DomainID       *int64    `db:"domain_id" json:"domain_id,omitempty"`
	DomainName     *string   `db:"domain_name" json:"domain,omitempty"`
	ModuleCodes    []string  `db:"-" json:"module_codes"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Domain is a named grouping label for lecturers.
type Domain struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
