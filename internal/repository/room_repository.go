package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/program-catalog-api/internal/models"
)

const roomColumns = "id, name, capacity, type, status, equipment, location, created_at, updated_at"

// RoomRepository manages persistence for rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns every room ordered by id.
func (r *RoomRepository) List(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, "SELECT "+roomColumns+" FROM rooms ORDER BY id ASC"); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// FindByID fetches a room.
func (r *RoomRepository) FindByID(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	if err := r.db.GetContext(ctx, &room, "SELECT "+roomColumns+" FROM rooms WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &room, nil
}

// ExistsByName checks whether another room already uses name.
func (r *RoomRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM rooms WHERE LOWER(name) = LOWER($1)"
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
		return false, fmt.Errorf("check room name: %w", err)
	}
	return true, nil
}

// Create inserts a room and assigns its id.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now

	const query = `INSERT INTO rooms (name, capacity, type, status, equipment, location, created_at, updated_at)
		VALUES (:name, :capacity, :type, :status, :equipment, :location, :created_at, :updated_at) RETURNING id`
	if err := namedReturning(ctx, r.db, query, room, &room.ID); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// Update writes every column of room.
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	room.UpdatedAt = time.Now().UTC()
	const query = `UPDATE rooms SET name = :name, capacity = :capacity, type = :type, status = :status,
		equipment = :equipment, location = :location, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return nil
}

// Delete removes a room. Deleting an absent room is not an error.
func (r *RoomRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}
