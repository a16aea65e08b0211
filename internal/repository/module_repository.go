package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/program-catalog-api/internal/models"
	"github.com/noah-isme/program-catalog-api/pkg/database"
)

var moduleColumns = []string{"module_code", "name", "ects", "room_type", "assessment_type", "assessment_breakdown", "semester", "category", "program_id", "created_at", "updated_at"}

// ModuleRepository manages modules and their specialization links.
type ModuleRepository struct {
	db *sqlx.DB
}

// NewModuleRepository constructs a ModuleRepository.
func NewModuleRepository(db *sqlx.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

// List returns modules ordered by code with their specialization ids.
func (r *ModuleRepository) List(ctx context.Context, filter models.ModuleFilter) ([]models.Module, error) {
	builder := psql.Select(moduleColumns...).From("modules").OrderBy("module_code ASC")
	if filter.ProgramID != nil {
		builder = builder.Where(sq.Eq{"program_id": *filter.ProgramID})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build module query: %w", err)
	}

	var modules []models.Module
	if err := r.db.SelectContext(ctx, &modules, query, args...); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	if err := r.attachSpecializations(ctx, modules); err != nil {
		return nil, err
	}
	return modules, nil
}

// FindByCode fetches a module by its code.
func (r *ModuleRepository) FindByCode(ctx context.Context, code string) (*models.Module, error) {
	query, args, err := psql.Select(moduleColumns...).From("modules").Where(sq.Eq{"module_code": code}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build module query: %w", err)
	}
	var module models.Module
	if err := r.db.GetContext(ctx, &module, query, args...); err != nil {
		return nil, err
	}
	list := []models.Module{module}
	if err := r.attachSpecializations(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ExistingCodes returns the subset of codes that are stored.
func (r *ModuleRepository) ExistingCodes(ctx context.Context, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var found []string
	if err := r.db.SelectContext(ctx, &found, "SELECT module_code FROM modules WHERE module_code = ANY($1)", pq.Array(codes)); err != nil {
		return nil, fmt.Errorf("check module codes: %w", err)
	}
	return found, nil
}

// Create inserts a module and its specialization links in one transaction.
func (r *ModuleRepository) Create(ctx context.Context, module *models.Module) error {
	now := time.Now().UTC()
	module.CreatedAt = now
	module.UpdatedAt = now
	if len(module.AssessmentBreakdown) == 0 {
		module.AssessmentBreakdown = []byte("[]")
	}

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO modules (module_code, name, ects, room_type, assessment_type, assessment_breakdown, semester, category, program_id, created_at, updated_at)
			VALUES (:module_code, :name, :ects, :room_type, :assessment_type, :assessment_breakdown, :semester, :category, :program_id, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, module); err != nil {
			return fmt.Errorf("create module: %w", err)
		}
		return linkSpecializations(ctx, tx, module.ModuleCode, module.SpecializationIDs)
	})
}

// Update writes the module columns and, when replaceLinks is set, its specialization links.
func (r *ModuleRepository) Update(ctx context.Context, module *models.Module, replaceLinks bool) error {
	module.UpdatedAt = time.Now().UTC()
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `UPDATE modules SET name = :name, ects = :ects, room_type = :room_type, assessment_type = :assessment_type,
			assessment_breakdown = :assessment_breakdown, semester = :semester, category = :category, program_id = :program_id,
			updated_at = :updated_at WHERE module_code = :module_code`
		if _, err := tx.NamedExecContext(ctx, query, module); err != nil {
			return fmt.Errorf("update module: %w", err)
		}
		if !replaceLinks {
			return nil
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM module_specializations WHERE module_code = $1", module.ModuleCode); err != nil {
			return fmt.Errorf("clear module specializations: %w", err)
		}
		return linkSpecializations(ctx, tx, module.ModuleCode, module.SpecializationIDs)
	})
}

// Delete removes a module. Deleting an absent module is not an error.
func (r *ModuleRepository) Delete(ctx context.Context, code string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM modules WHERE module_code = $1", code); err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	return nil
}

func linkSpecializations(ctx context.Context, tx *sqlx.Tx, code string, specIDs []int64) error {
	for _, specID := range specIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO module_specializations (module_code, specialization_id) VALUES ($1, $2)", code, specID); err != nil {
			return fmt.Errorf("link specialization %d: %w", specID, err)
		}
	}
	return nil
}

func (r *ModuleRepository) attachSpecializations(ctx context.Context, modules []models.Module) error {
	if len(modules) == 0 {
		return nil
	}
	codes := make([]string, len(modules))
	index := make(map[string]int, len(modules))
	for i := range modules {
		codes[i] = modules[i].ModuleCode
		index[modules[i].ModuleCode] = i
		modules[i].SpecializationIDs = []int64{}
	}

	var links []struct {
		ModuleCode       string `db:"module_code"`
		SpecializationID int64  `db:"specialization_id"`
	}
	const query = `SELECT module_code, specialization_id FROM module_specializations WHERE module_code = ANY($1) ORDER BY specialization_id`
	if err := r.db.SelectContext(ctx, &links, query, pq.Array(codes)); err != nil {
		return fmt.Errorf("list module specializations: %w", err)
	}
	for _, link := range links {
		if i, ok := index[link.ModuleCode]; ok {
			modules[i].SpecializationIDs = append(modules[i].SpecializationIDs, link.SpecializationID)
		}
	}
	return nil
}
