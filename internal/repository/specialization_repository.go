package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/program-catalog-api/internal/models"
)

var specializationColumns = []string{"id", "program_id", "name", "acronym", "start_date", "status", "study_program", "created_at", "updated_at"}

// SpecializationRepository manages persistence for specializations.
type SpecializationRepository struct {
	db *sqlx.DB
}

// NewSpecializationRepository constructs a SpecializationRepository.
func NewSpecializationRepository(db *sqlx.DB) *SpecializationRepository {
	return &SpecializationRepository{db: db}
}

// List returns specializations matching filter ordered by id.
func (r *SpecializationRepository) List(ctx context.Context, filter models.SpecializationFilter) ([]models.Specialization, error) {
	builder := psql.Select(specializationColumns...).From("specializations").OrderBy("id ASC")
	if filter.ProgramID != nil {
		builder = builder.Where(sq.Eq{"program_id": *filter.ProgramID})
	}
	if len(filter.ProgramIDs) > 0 {
		builder = builder.Where(sq.Eq{"program_id": filter.ProgramIDs})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build specialization query: %w", err)
	}

	var specs []models.Specialization
	if err := r.db.SelectContext(ctx, &specs, query, args...); err != nil {
		return nil, fmt.Errorf("list specializations: %w", err)
	}
	return specs, nil
}

// FindByID fetches a specialization.
func (r *SpecializationRepository) FindByID(ctx context.Context, id int64) (*models.Specialization, error) {
	query, args, err := psql.Select(specializationColumns...).From("specializations").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build specialization query: %w", err)
	}
	var spec models.Specialization
	if err := r.db.GetContext(ctx, &spec, query, args...); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Create inserts a specialization and assigns its id.
func (r *SpecializationRepository) Create(ctx context.Context, spec *models.Specialization) error {
	now := time.Now().UTC()
	spec.CreatedAt = now
	spec.UpdatedAt = now

	const query = `INSERT INTO specializations (program_id, name, acronym, start_date, status, study_program, created_at, updated_at)
		VALUES (:program_id, :name, :acronym, :start_date, :status, :study_program, :created_at, :updated_at) RETURNING id`
	if err := namedReturning(ctx, r.db, query, spec, &spec.ID); err != nil {
		return fmt.Errorf("create specialization: %w", err)
	}
	return nil
}

// Update writes every column of spec.
func (r *SpecializationRepository) Update(ctx context.Context, spec *models.Specialization) error {
	spec.UpdatedAt = time.Now().UTC()
	const query = `UPDATE specializations SET program_id = :program_id, name = :name, acronym = :acronym, start_date = :start_date,
		status = :status, study_program = :study_program, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, spec); err != nil {
		return fmt.Errorf("update specialization: %w", err)
	}
	return nil
}

// Delete removes a specialization.
func (r *SpecializationRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM specializations WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete specialization: %w", err)
	}
	return nil
}
