package models

import "time"

// Group is a student cohort. Program is a free-text label, not a foreign key.
type Group struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Size        int       `db:"size" json:"size"`
	Description *string   `db:"description" json:"description,omitempty"`
	Email       *string   `db:"email" json:"email,omitempty"`
	Program     *string   `db:"program" json:"program,omitempty"`
	ParentGroup *string   `db:"parent_group" json:"parent_group,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Room is a physical teaching space.
type Room struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Type      string    `db:"type" json:"type"`
	Status    bool      `db:"status" json:"status"`
	Equipment *string   `db:"equipment" json:"equipment,omitempty"`
	Location  *string   `db:"location" json:"location,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
