package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/program-catalog-api/internal/models"
)

const constraintTypeColumns = "id, name, active, constraint_level, constraint_format, valid_from, valid_to, constraint_rule, constraint_target, created_at, updated_at"

// ConstraintTypeRepository persists constraint type templates. Types are never deleted.
type ConstraintTypeRepository struct {
	db *sqlx.DB
}

// NewConstraintTypeRepository constructs a ConstraintTypeRepository.
func NewConstraintTypeRepository(db *sqlx.DB) *ConstraintTypeRepository {
	return &ConstraintTypeRepository{db: db}
}

// List returns constraint types ordered by id, optionally only the active ones.
func (r *ConstraintTypeRepository) List(ctx context.Context, activeOnly bool) ([]models.ConstraintType, error) {
	query := "SELECT " + constraintTypeColumns + " FROM constraint_types"
	if activeOnly {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY id ASC"

	var types []models.ConstraintType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list constraint types: %w", err)
	}
	return types, nil
}

// FindByID fetches a constraint type.
func (r *ConstraintTypeRepository) FindByID(ctx context.Context, id int64) (*models.ConstraintType, error) {
	var ct models.ConstraintType
	if err := r.db.GetContext(ctx, &ct, "SELECT "+constraintTypeColumns+" FROM constraint_types WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &ct, nil
}

// ExistsByName checks whether another type already uses name.
func (r *ConstraintTypeRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM constraint_types WHERE name = $1"
	args := []interface{}{name}
	if excludeID != 0 {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check constraint type name: %w", err)
	}
	return true, nil
}

// Create inserts a constraint type and assigns its id.
func (r *ConstraintTypeRepository) Create(ctx context.Context, ct *models.ConstraintType) error {
	now := time.Now().UTC()
	ct.CreatedAt = now
	ct.UpdatedAt = now

	const query = `INSERT INTO constraint_types (name, active, constraint_level, constraint_format, valid_from, valid_to, constraint_rule, constraint_target, created_at, updated_at)
		VALUES (:name, :active, :constraint_level, :constraint_format, :valid_from, :valid_to, :constraint_rule, :constraint_target, :created_at, :updated_at)
		RETURNING id`
	if err := namedReturning(ctx, r.db, query, ct, &ct.ID); err != nil {
		return fmt.Errorf("create constraint type: %w", err)
	}
	return nil
}

// Update writes every column of ct.
func (r *ConstraintTypeRepository) Update(ctx context.Context, ct *models.ConstraintType) error {
	ct.UpdatedAt = time.Now().UTC()
	const query = `UPDATE constraint_types SET name = :name, active = :active, constraint_level = :constraint_level,
		constraint_format = :constraint_format, valid_from = :valid_from, valid_to = :valid_to,
		constraint_rule = :constraint_rule, constraint_target = :constraint_target, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, ct); err != nil {
		return fmt.Errorf("update constraint type: %w", err)
	}
	return nil
}
