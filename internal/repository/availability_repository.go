package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/program-catalog-api/internal/models"
)

const availabilityColumns = "id, lecturer_id, schedule_data, created_at, updated_at"

// AvailabilityRepository persists one availability record per lecturer.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs the repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// GetByLecturer returns the stored availability for a lecturer.
func (r *AvailabilityRepository) GetByLecturer(ctx context.Context, lecturerID int64) (*models.LecturerAvailability, error) {
	var availability models.LecturerAvailability
	if err := r.db.GetContext(ctx, &availability, "SELECT "+availabilityColumns+" FROM lecturer_availabilities WHERE lecturer_id = $1", lecturerID); err != nil {
		return nil, err
	}
	return &availability, nil
}

// List returns availability records ordered by lecturer. A non-nil lecturerID restricts the result.
func (r *AvailabilityRepository) List(ctx context.Context, lecturerID *int64) ([]models.LecturerAvailability, error) {
	query := "SELECT " + availabilityColumns + " FROM lecturer_availabilities"
	var args []interface{}
	if lecturerID != nil {
		query += " WHERE lecturer_id = $1"
		args = append(args, *lecturerID)
	}
	query += " ORDER BY lecturer_id ASC"

	var records []models.LecturerAvailability
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list availabilities: %w", err)
	}
	return records, nil
}

// Upsert inserts the lecturer's availability or replaces its schedule_data
// wholesale in a single statement guarded by the unique lecturer_id index.
// The stored id and created_at are written back into availability.
func (r *AvailabilityRepository) Upsert(ctx context.Context, availability *models.LecturerAvailability) error {
	now := time.Now().UTC()
	availability.CreatedAt = now
	availability.UpdatedAt = now
	if len(availability.ScheduleData) == 0 {
		availability.ScheduleData = []byte("{}")
	}

	const query = `INSERT INTO lecturer_availabilities (lecturer_id, schedule_data, created_at, updated_at)
		VALUES (:lecturer_id, :schedule_data, :created_at, :updated_at)
		ON CONFLICT (lecturer_id) DO UPDATE
		SET schedule_data = EXCLUDED.schedule_data,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`
	if err := namedReturning(ctx, r.db, query, availability, &availability.ID, &availability.CreatedAt); err != nil {
		return fmt.Errorf("upsert availability: %w", err)
	}
	return nil
}

// Delete removes the lecturer's availability. Deleting an absent record is not an error.
func (r *AvailabilityRepository) Delete(ctx context.Context, lecturerID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM lecturer_availabilities WHERE lecturer_id = $1", lecturerID); err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	return nil
}
