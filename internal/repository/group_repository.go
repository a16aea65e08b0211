package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/program-catalog-api/internal/models"
)

const groupColumns = "id, name, size, description, email, program, parent_group, created_at, updated_at"

// GroupRepository manages persistence for student groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// List returns every group ordered by id.
func (r *GroupRepository) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, "SELECT "+groupColumns+" FROM groups ORDER BY id ASC"); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// FindByID fetches a group.
func (r *GroupRepository) FindByID(ctx context.Context, id int64) (*models.Group, error) {
	var group models.Group
	if err := r.db.GetContext(ctx, &group, "SELECT "+groupColumns+" FROM groups WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &group, nil
}

// Create inserts a group and assigns its id.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now

	const query = `INSERT INTO groups (name, size, description, email, program, parent_group, created_at, updated_at)
		VALUES (:name, :size, :description, :email, :program, :parent_group, :created_at, :updated_at) RETURNING id`
	if err := namedReturning(ctx, r.db, query, group, &group.ID); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// Update writes every column of group.
func (r *GroupRepository) Update(ctx context.Context, group *models.Group) error {
	group.UpdatedAt = time.Now().UTC()
	const query = `UPDATE groups SET name = :name, size = :size, description = :description, email = :email,
		program = :program, parent_group = :parent_group, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return nil
}

// Delete removes a group. Deleting an absent group is not an error.
func (r *GroupRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM groups WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}
