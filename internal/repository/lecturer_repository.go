package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/program-catalog-api/internal/models"
	"github.com/noah-isme/program-catalog-api/pkg/database"
)

const lecturerSelect = `SELECT l.id, l.first_name, l.last_name, l.title, l.employment_type, l.personal_email, l.mdh_email,
		l.phone, l.location, l.teaching_load, l.domain_id, d.name AS domain_name, l.created_at, l.updated_at
	FROM lecturers l LEFT JOIN domains d ON d.id = l.domain_id`

// LecturerRepository manages persistence for lecturer profiles and their module assignments.
type LecturerRepository struct {
	db *sqlx.DB
}

// NewLecturerRepository constructs a LecturerRepository.
func NewLecturerRepository(db *sqlx.DB) *LecturerRepository {
	return &LecturerRepository{db: db}
}

// List returns lecturers ordered by id. A non-nil onlyID restricts the result to that lecturer.
func (r *LecturerRepository) List(ctx context.Context, onlyID *int64) ([]models.Lecturer, error) {
	query := lecturerSelect
	var args []interface{}
	if onlyID != nil {
		query += " WHERE l.id = $1"
		args = append(args, *onlyID)
	}
	query += " ORDER BY l.id ASC"

	var lecturers []models.Lecturer
	if err := r.db.SelectContext(ctx, &lecturers, query, args...); err != nil {
		return nil, fmt.Errorf("list lecturers: %w", err)
	}
	if err := r.attachModules(ctx, lecturers); err != nil {
		return nil, err
	}
	return lecturers, nil
}

// FindByID fetches a lecturer together with assigned module codes.
func (r *LecturerRepository) FindByID(ctx context.Context, id int64) (*models.Lecturer, error) {
	var lecturer models.Lecturer
	if err := r.db.GetContext(ctx, &lecturer, lecturerSelect+" WHERE l.id = $1", id); err != nil {
		return nil, err
	}
	list := []models.Lecturer{lecturer}
	if err := r.attachModules(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// Exists reports whether a lecturer with id is stored.
func (r *LecturerRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM lecturers WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check lecturer: %w", err)
	}
	return true, nil
}

// Create inserts a lecturer and assigns its id.
func (r *LecturerRepository) Create(ctx context.Context, lecturer *models.Lecturer) error {
	now := time.Now().UTC()
	lecturer.CreatedAt = now
	lecturer.UpdatedAt = now

	const query = `INSERT INTO lecturers (first_name, last_name, title, employment_type, personal_email, mdh_email, phone, location, teaching_load, domain_id, created_at, updated_at)
		VALUES (:first_name, :last_name, :title, :employment_type, :personal_email, :mdh_email, :phone, :location, :teaching_load, :domain_id, :created_at, :updated_at)
		RETURNING id`
	if err := namedReturning(ctx, r.db, query, lecturer, &lecturer.ID); err != nil {
		return fmt.Errorf("create lecturer: %w", err)
	}
	return nil
}

// Update writes every profile column of lecturer.
func (r *LecturerRepository) Update(ctx context.Context, lecturer *models.Lecturer) error {
	lecturer.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lecturers SET first_name = :first_name, last_name = :last_name, title = :title, employment_type = :employment_type,
		personal_email = :personal_email, mdh_email = :mdh_email, phone = :phone, location = :location,
		teaching_load = :teaching_load, domain_id = :domain_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lecturer); err != nil {
		return fmt.Errorf("update lecturer: %w", err)
	}
	return nil
}

// Delete removes a lecturer. Deleting an absent lecturer is not an error.
func (r *LecturerRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM lecturers WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete lecturer: %w", err)
	}
	return nil
}

// ReplaceModules swaps the lecturer's module assignments for codes in one transaction.
func (r *LecturerRepository) ReplaceModules(ctx context.Context, lecturerID int64, codes []string) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM lecturer_modules WHERE lecturer_id = $1", lecturerID); err != nil {
			return fmt.Errorf("clear lecturer modules: %w", err)
		}
		for _, code := range codes {
			if _, err := tx.ExecContext(ctx, "INSERT INTO lecturer_modules (lecturer_id, module_code) VALUES ($1, $2)", lecturerID, code); err != nil {
				return fmt.Errorf("assign module %s: %w", code, err)
			}
		}
		return nil
	})
}

func (r *LecturerRepository) attachModules(ctx context.Context, lecturers []models.Lecturer) error {
	if len(lecturers) == 0 {
		return nil
	}
	ids := make([]int64, len(lecturers))
	for i := range lecturers {
		ids[i] = lecturers[i].ID
		lecturers[i].ModuleCodes = []string{}
	}

	var links []struct {
		LecturerID int64  `db:"lecturer_id"`
		ModuleCode string `db:"module_code"`
	}
	const query = `SELECT lecturer_id, module_code FROM lecturer_modules WHERE lecturer_id = ANY($1) ORDER BY module_code`
	if err := r.db.SelectContext(ctx, &links, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("list lecturer modules: %w", err)
	}

	index := make(map[int64]int, len(lecturers))
	for i := range lecturers {
		index[lecturers[i].ID] = i
	}
	for _, link := range links {
		if i, ok := index[link.LecturerID]; ok {
			lecturers[i].ModuleCodes = append(lecturers[i].ModuleCodes, link.ModuleCode)
		}
	}
	return nil
}
