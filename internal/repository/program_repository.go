package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/program-catalog-api/internal/models"
)

const programSelect = `SELECT p.id, p.name, p.acronym, p.status, p.start_date, p.total_ects, p.location, p.level, p.degree_type,
		p.head_of_program_id, NULLIF(TRIM(CONCAT(h.first_name, ' ', h.last_name)), '') AS head_name, p.created_at, p.updated_at
	FROM study_programs p LEFT JOIN lecturers h ON h.id = p.head_of_program_id`

// ProgramRepository manages persistence for study programs.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs a ProgramRepository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// List returns every study program ordered by id, with the head's display name.
func (r *ProgramRepository) List(ctx context.Context) ([]models.StudyProgram, error) {
	var programs []models.StudyProgram
	if err := r.db.SelectContext(ctx, &programs, programSelect+" ORDER BY p.id ASC"); err != nil {
		return nil, fmt.Errorf("list study programs: %w", err)
	}
	return programs, nil
}

// ListByHead returns the programs whose head is lecturerID.
func (r *ProgramRepository) ListByHead(ctx context.Context, lecturerID int64) ([]models.StudyProgram, error) {
	var programs []models.StudyProgram
	if err := r.db.SelectContext(ctx, &programs, programSelect+" WHERE p.head_of_program_id = $1 ORDER BY p.id ASC", lecturerID); err != nil {
		return nil, fmt.Errorf("list programs by head: %w", err)
	}
	return programs, nil
}

// FindByID fetches a study program.
func (r *ProgramRepository) FindByID(ctx context.Context, id int64) (*models.StudyProgram, error) {
	var program models.StudyProgram
	if err := r.db.GetContext(ctx, &program, programSelect+" WHERE p.id = $1", id); err != nil {
		return nil, err
	}
	return &program, nil
}

// Create inserts a study program and assigns its id.
func (r *ProgramRepository) Create(ctx context.Context, program *models.StudyProgram) error {
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now

	const query = `INSERT INTO study_programs (name, acronym, status, start_date, total_ects, location, level, degree_type, head_of_program_id, created_at, updated_at)
		VALUES (:name, :acronym, :status, :start_date, :total_ects, :location, :level, :degree_type, :head_of_program_id, :created_at, :updated_at)
		RETURNING id`
	if err := namedReturning(ctx, r.db, query, program, &program.ID); err != nil {
		return fmt.Errorf("create study program: %w", err)
	}
	return nil
}

// Update writes every column of program.
func (r *ProgramRepository) Update(ctx context.Context, program *models.StudyProgram) error {
	program.UpdatedAt = time.Now().UTC()
	const query = `UPDATE study_programs SET name = :name, acronym = :acronym, status = :status, start_date = :start_date,
		total_ects = :total_ects, location = :location, level = :level, degree_type = :degree_type,
		head_of_program_id = :head_of_program_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("update study program: %w", err)
	}
	return nil
}

// Delete removes a study program. Specializations are removed by cascade.
func (r *ProgramRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM study_programs WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete study program: %w", err)
	}
	return nil
}
