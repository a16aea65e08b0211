package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/program-catalog-api/internal/authz"
	"github.com/noah-isme/program-catalog-api/internal/models"
)

type moduleRepository interface {
	List(ctx context.Context, filter models.ModuleFilter) ([]models.Module, error)
	FindByCode(ctx context.Context, code string) (*models.Module, error)
	Create(ctx context.Context, module *models.Module) error
	Update(ctx context.Context, module *models.Module, replaceLinks bool) error
	Delete(ctx context.Context, code string) error
}

type specializationLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Specialization, error)
}

// CreateModuleRequest is the payload for creating a module.
type CreateModuleRequest struct {
	ModuleCode          string                  `json:"module_code" validate:"required,max=20"`
	Name                string                  `json:"name" validate:"required,max=200"`
	ECTS                int                     `json:"ects" validate:"min=0"`
	RoomType            string                  `json:"room_type" validate:"required"`
	AssessmentType      *string                 `json:"assessment_type"`
	AssessmentBreakdown []models.AssessmentPart `json:"assessment_breakdown" validate:"omitempty,dive"`
	Semester            int                     `json:"semester" validate:"min=0"`
	Category            *string                 `json:"category"`
	ProgramID           *int64                  `json:"program_id"`
	SpecializationIDs   []int64                 `json:"specialization_ids" validate:"omitempty,dive,gt=0"`
}

// UpdateModuleRequest is a partial update. A non-nil SpecializationIDs
// replaces every specialization link.
type UpdateModuleRequest struct {
	Name                *string                  `json:"name" validate:"omitempty,min=1,max=200"`
	ECTS                *int                     `json:"ects" validate:"omitempty,min=0"`
	RoomType            *string                  `json:"room_type" validate:"omitempty,min=1"`
	AssessmentType      *string                  `json:"assessment_type"`
	AssessmentBreakdown *[]models.AssessmentPart `json:"assessment_breakdown"`
	Semester            *int                     `json:"semester" validate:"omitempty,min=0"`
	Category            *string                  `json:"category"`
	ProgramID           *int64                   `json:"program_id"`
	SpecializationIDs   []int64                  `json:"specialization_ids" validate:"omitempty,dive,gt=0"`
}

// ModuleService manages modules and their specialization links.
type ModuleService struct {
	repo            moduleRepository
	programs        programLookup
	specializations specializationLookup
	authz           Authorizer
	validator       *validator.Validate
	logger          *zap.Logger
}

// NewModuleService constructs a ModuleService.
func NewModuleService(repo moduleRepository, programs programLookup, specializations specializationLookup, authorizer Authorizer, validate *validator.Validate, logger *zap.Logger) *ModuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModuleService{repo: repo, programs: programs, specializations: specializations, authz: authorizer, validator: validate, logger: logger}
}

// List returns modules with their specialization ids.
func (s *ModuleService) List(ctx context.Context, actor authz.Actor, filter models.ModuleFilter) ([]models.Module, error) {
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceModule, authz.Target{}); err != nil {
		return nil, err
	}
	modules, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list modules")
	}
	return modules, nil
}

// Get returns a module by code.
func (s *ModuleService) Get(ctx context.Context, actor authz.Actor, code string) (*models.Module, error) {
	module, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, loadError(err, "module")
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceModule, authz.Target{ProgramID: module.ProgramID}); err != nil {
		return nil, err
	}
	return module, nil
}

// Create stores a module. A hosp may only create modules for programs they head.
func (s *ModuleService) Create(ctx context.Context, actor authz.Actor, req CreateModuleRequest) (*models.Module, error) {
	if err := s.authz.Precheck(actor, authz.ActionCreate, authz.ResourceModule); err != nil {
		return nil, err
	}
	req.ModuleCode = strings.TrimSpace(req.ModuleCode)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid module payload")
	}

	if _, err := s.repo.FindByCode(ctx, req.ModuleCode); err == nil {
		return nil, validationError(nil, "module code already exists")
	} else if !isNoRows(err) {
		return nil, internalError(err, "failed to check module code")
	}

	if req.ProgramID != nil {
		if _, err := s.programs.FindByID(ctx, *req.ProgramID); err != nil {
			return nil, loadError(err, "study program")
		}
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionCreate, authz.ResourceModule, authz.Target{ProgramID: req.ProgramID}); err != nil {
		return nil, err
	}
	specIDs, err := s.checkSpecializations(ctx, req.SpecializationIDs)
	if err != nil {
		return nil, err
	}
	breakdown, err := encodeBreakdown(req.AssessmentBreakdown)
	if err != nil {
		return nil, err
	}

	module := &models.Module{
		ModuleCode:          req.ModuleCode,
		Name:                req.Name,
		ECTS:                req.ECTS,
		RoomType:            strings.TrimSpace(req.RoomType),
		AssessmentType:      normalizeOptional(req.AssessmentType),
		AssessmentBreakdown: breakdown,
		Semester:            req.Semester,
		Category:            normalizeOptional(req.Category),
		ProgramID:           req.ProgramID,
		SpecializationIDs:   specIDs,
	}
	if err := s.repo.Create(ctx, module); err != nil {
		return nil, writeError(err, "create module")
	}
	return s.reload(ctx, module.ModuleCode)
}

// Update applies a partial update to a module.
func (s *ModuleService) Update(ctx context.Context, actor authz.Actor, code string, req UpdateModuleRequest) (*models.Module, error) {
	module, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, loadError(err, "module")
	}
	if err := s.authz.Precheck(actor, authz.ActionUpdate, authz.ResourceModule); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid module payload")
	}
	if req.ProgramID != nil {
		if _, err := s.programs.FindByID(ctx, *req.ProgramID); err != nil {
			return nil, loadError(err, "study program")
		}
	}
	target := authz.Target{ProgramID: module.ProgramID, NewProgramID: req.ProgramID}
	if err := s.authz.Authorize(ctx, actor, authz.ActionUpdate, authz.ResourceModule, target); err != nil {
		return nil, err
	}

	if req.Name != nil {
		module.Name = strings.TrimSpace(*req.Name)
	}
	if req.ECTS != nil {
		module.ECTS = *req.ECTS
	}
	if req.RoomType != nil {
		module.RoomType = strings.TrimSpace(*req.RoomType)
	}
	if req.AssessmentType != nil {
		module.AssessmentType = normalizeOptional(req.AssessmentType)
	}
	if req.AssessmentBreakdown != nil {
		if err := s.validator.Var(*req.AssessmentBreakdown, "dive"); err != nil {
			return nil, validationError(err, "invalid assessment breakdown")
		}
		breakdown, err := encodeBreakdown(*req.AssessmentBreakdown)
		if err != nil {
			return nil, err
		}
		module.AssessmentBreakdown = breakdown
	}
	if req.Semester != nil {
		module.Semester = *req.Semester
	}
	if req.Category != nil {
		module.Category = normalizeOptional(req.Category)
	}
	if req.ProgramID != nil {
		module.ProgramID = req.ProgramID
	}
	replaceLinks := req.SpecializationIDs != nil
	if replaceLinks {
		specIDs, err := s.checkSpecializations(ctx, req.SpecializationIDs)
		if err != nil {
			return nil, err
		}
		module.SpecializationIDs = specIDs
	}

	if err := s.repo.Update(ctx, module, replaceLinks); err != nil {
		return nil, writeError(err, "update module")
	}
	return s.reload(ctx, code)
}

// Delete removes a module. Deleting an absent module succeeds once the
// caller holds delete rights.
func (s *ModuleService) Delete(ctx context.Context, actor authz.Actor, code string) error {
	target := authz.Target{}
	module, err := s.repo.FindByCode(ctx, code)
	switch {
	case err == nil:
		target.ProgramID = module.ProgramID
	case isNoRows(err):
	default:
		return internalError(err, "failed to load module")
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionDelete, authz.ResourceModule, target); err != nil {
		return err
	}
	if module == nil {
		return nil
	}
	if err := s.repo.Delete(ctx, code); err != nil {
		return internalError(err, "failed to delete module")
	}
	return nil
}

func (s *ModuleService) checkSpecializations(ctx context.Context, ids []int64) ([]int64, error) {
	seen := make(map[int64]struct{}, len(ids))
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		if _, err := s.specializations.FindByID(ctx, id); err != nil {
			return nil, loadError(err, "specialization")
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result, nil
}

func (s *ModuleService) reload(ctx context.Context, code string) (*models.Module, error) {
	module, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, loadError(err, "module")
	}
	return module, nil
}

func encodeBreakdown(parts []models.AssessmentPart) ([]byte, error) {
	if parts == nil {
		parts = []models.AssessmentPart{}
	}
	raw, err := json.Marshal(parts)
	if err != nil {
		return nil, internalError(err, "failed to encode assessment breakdown")
	}
	return raw, nil
}
