package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/program-catalog-api/internal/models"
)

var schedulerConstraintColumns = []string{"id", "constraint_type_id", "hardness", "weight", "scope", "target_id", "config", "is_enabled", "notes", "created_at", "updated_at"}

// SchedulerConstraintRepository persists constraint instances.
type SchedulerConstraintRepository struct {
	db *sqlx.DB
}

// NewSchedulerConstraintRepository constructs a SchedulerConstraintRepository.
func NewSchedulerConstraintRepository(db *sqlx.DB) *SchedulerConstraintRepository {
	return &SchedulerConstraintRepository{db: db}
}

// List returns constraints matching filter ordered by id ascending.
func (r *SchedulerConstraintRepository) List(ctx context.Context, filter models.ConstraintFilter) ([]models.SchedulerConstraint, error) {
	builder := psql.Select(schedulerConstraintColumns...).From("scheduler_constraints")
	if filter.Scope != nil {
		builder = builder.Where(sq.Eq{"scope": string(*filter.Scope)})
	}
	if filter.TargetID != nil {
		builder = builder.Where(sq.Eq{"target_id": *filter.TargetID})
	}
	if filter.TypeID != nil {
		builder = builder.Where(sq.Eq{"constraint_type_id": *filter.TypeID})
	}
	if filter.Enabled != nil {
		builder = builder.Where(sq.Eq{"is_enabled": *filter.Enabled})
	}
	query, args, err := builder.OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build constraint query: %w", err)
	}

	var constraints []models.SchedulerConstraint
	if err := r.db.SelectContext(ctx, &constraints, query, args...); err != nil {
		return nil, fmt.Errorf("list scheduler constraints: %w", err)
	}
	return constraints, nil
}

// FindByID fetches a constraint.
func (r *SchedulerConstraintRepository) FindByID(ctx context.Context, id int64) (*models.SchedulerConstraint, error) {
	query, args, err := psql.Select(schedulerConstraintColumns...).From("scheduler_constraints").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build constraint query: %w", err)
	}
	var constraint models.SchedulerConstraint
	if err := r.db.GetContext(ctx, &constraint, query, args...); err != nil {
		return nil, err
	}
	return &constraint, nil
}

// Create inserts a constraint with created_at = updated_at = now.
func (r *SchedulerConstraintRepository) Create(ctx context.Context, constraint *models.SchedulerConstraint) error {
	now := time.Now().UTC()
	constraint.CreatedAt = now
	constraint.UpdatedAt = now
	if len(constraint.Config) == 0 {
		constraint.Config = []byte("{}")
	}

	const query = `INSERT INTO scheduler_constraints (constraint_type_id, hardness, weight, scope, target_id, config, is_enabled, notes, created_at, updated_at)
		VALUES (:constraint_type_id, :hardness, :weight, :scope, :target_id, :config, :is_enabled, :notes, :created_at, :updated_at)
		RETURNING id`
	if err := namedReturning(ctx, r.db, query, constraint, &constraint.ID); err != nil {
		return fmt.Errorf("create scheduler constraint: %w", err)
	}
	return nil
}

// Update writes every column of constraint and refreshes updated_at.
func (r *SchedulerConstraintRepository) Update(ctx context.Context, constraint *models.SchedulerConstraint) error {
	constraint.UpdatedAt = time.Now().UTC()
	const query = `UPDATE scheduler_constraints SET constraint_type_id = :constraint_type_id, hardness = :hardness, weight = :weight,
		scope = :scope, target_id = :target_id, config = :config, is_enabled = :is_enabled, notes = :notes,
		updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, constraint); err != nil {
		return fmt.Errorf("update scheduler constraint: %w", err)
	}
	return nil
}

// Delete removes a constraint if present and reports whether a row was removed.
func (r *SchedulerConstraintRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM scheduler_constraints WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete scheduler constraint: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete scheduler constraint: %w", err)
	}
	return affected > 0, nil
}
