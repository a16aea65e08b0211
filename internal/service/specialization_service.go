package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/program-catalog-api/internal/authz"
	"github.com/noah-isme/program-catalog-api/internal/models"
)

type specializationRepository interface {
	List(ctx context.Context, filter models.SpecializationFilter) ([]models.Specialization, error)
	FindByID(ctx context.Context, id int64) (*models.Specialization, error)
	Create(ctx context.Context, spec *models.Specialization) error
	Update(ctx context.Context, spec *models.Specialization) error
	Delete(ctx context.Context, id int64) error
}

type programLookup interface {
	FindByID(ctx context.Context, id int64) (*models.StudyProgram, error)
}

// CreateSpecializationRequest is the payload for creating a specialization.
type CreateSpecializationRequest struct {
	ProgramID int64  `json:"program_id" validate:"required,gt=0"`
	Name      string `json:"name" validate:"required,max=200"`
	Acronym   string `json:"acronym" validate:"required,max=20"`
	StartDate string `json:"start_date" validate:"required"`
	Status    *bool  `json:"status"`
}

// UpdateSpecializationRequest is a partial update. Nil fields are left unchanged.
type UpdateSpecializationRequest struct {
	ProgramID *int64  `json:"program_id" validate:"omitempty,gt=0"`
	Name      *string `json:"name" validate:"omitempty,min=1,max=200"`
	Acronym   *string `json:"acronym" validate:"omitempty,min=1,max=20"`
	StartDate *string `json:"start_date" validate:"omitempty,min=1"`
	Status    *bool   `json:"status"`
}

// SpecializationService manages program specializations.
type SpecializationService struct {
	repo      specializationRepository
	programs  programLookup
	authz     Authorizer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSpecializationService constructs a SpecializationService.
func NewSpecializationService(repo specializationRepository, programs programLookup, authorizer Authorizer, validate *validator.Validate, logger *zap.Logger) *SpecializationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpecializationService{repo: repo, programs: programs, authz: authorizer, validator: validate, logger: logger}
}

// List returns specializations, optionally for one program.
func (s *SpecializationService) List(ctx context.Context, actor authz.Actor, filter models.SpecializationFilter) ([]models.Specialization, error) {
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceSpecialization, authz.Target{}); err != nil {
		return nil, err
	}
	specs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list specializations")
	}
	return specs, nil
}

// Get returns one specialization.
func (s *SpecializationService) Get(ctx context.Context, actor authz.Actor, id int64) (*models.Specialization, error) {
	spec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "specialization")
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceSpecialization, authz.Target{ProgramID: &spec.ProgramID}); err != nil {
		return nil, err
	}
	return spec, nil
}

// Create stores a specialization under an existing program.
func (s *SpecializationService) Create(ctx context.Context, actor authz.Actor, req CreateSpecializationRequest) (*models.Specialization, error) {
	if err := s.authz.Precheck(actor, authz.ActionCreate, authz.ResourceSpecialization); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Acronym = strings.TrimSpace(req.Acronym)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid specialization payload")
	}
	if _, err := s.programs.FindByID(ctx, req.ProgramID); err != nil {
		return nil, loadError(err, "study program")
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionCreate, authz.ResourceSpecialization, authz.Target{ProgramID: &req.ProgramID}); err != nil {
		return nil, err
	}

	spec := &models.Specialization{
		ProgramID: req.ProgramID,
		Name:      req.Name,
		Acronym:   req.Acronym,
		StartDate: req.StartDate,
		Status:    true,
	}
	if req.Status != nil {
		spec.Status = *req.Status
	}
	if err := s.repo.Create(ctx, spec); err != nil {
		return nil, writeError(err, "create specialization")
	}
	return s.reload(ctx, spec.ID)
}

// Update applies a partial update. Moving a specialization requires rights
// on both the current and the destination program.
func (s *SpecializationService) Update(ctx context.Context, actor authz.Actor, id int64, req UpdateSpecializationRequest) (*models.Specialization, error) {
	spec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "specialization")
	}
	if err := s.authz.Precheck(actor, authz.ActionUpdate, authz.ResourceSpecialization); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid specialization payload")
	}
	if req.ProgramID != nil && *req.ProgramID != spec.ProgramID {
		if _, err := s.programs.FindByID(ctx, *req.ProgramID); err != nil {
			return nil, loadError(err, "study program")
		}
	}
	target := authz.Target{ProgramID: &spec.ProgramID, NewProgramID: req.ProgramID}
	if err := s.authz.Authorize(ctx, actor, authz.ActionUpdate, authz.ResourceSpecialization, target); err != nil {
		return nil, err
	}

	if req.ProgramID != nil {
		spec.ProgramID = *req.ProgramID
	}
	if req.Name != nil {
		spec.Name = strings.TrimSpace(*req.Name)
	}
	if req.Acronym != nil {
		spec.Acronym = strings.TrimSpace(*req.Acronym)
	}
	if req.StartDate != nil {
		spec.StartDate = *req.StartDate
	}
	if req.Status != nil {
		spec.Status = *req.Status
	}
	if err := s.repo.Update(ctx, spec); err != nil {
		return nil, writeError(err, "update specialization")
	}
	return s.reload(ctx, id)
}

// Delete removes a specialization. Deleting an absent specialization succeeds
// once the caller holds delete rights.
func (s *SpecializationService) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	target := authz.Target{}
	spec, err := s.repo.FindByID(ctx, id)
	switch {
	case err == nil:
		target.ProgramID = &spec.ProgramID
	case isNoRows(err):
	default:
		return internalError(err, "failed to load specialization")
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionDelete, authz.ResourceSpecialization, target); err != nil {
		return err
	}
	if spec == nil {
		return nil
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return internalError(err, "failed to delete specialization")
	}
	return nil
}

func (s *SpecializationService) reload(ctx context.Context, id int64) (*models.Specialization, error) {
	spec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "specialization")
	}
	return spec, nil
}
