package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/program-catalog-api/internal/authz"
	"github.com/noah-isme/program-catalog-api/internal/models"
	appErrors "github.com/noah-isme/program-catalog-api/pkg/errors"
)

type lecturerRepository interface {
	List(ctx context.Context, onlyID *int64) ([]models.Lecturer, error)
	FindByID(ctx context.Context, id int64) (*models.Lecturer, error)
	Create(ctx context.Context, lecturer *models.Lecturer) error
	Update(ctx context.Context, lecturer *models.Lecturer) error
	Delete(ctx context.Context, id int64) error
	ReplaceModules(ctx context.Context, lecturerID int64, codes []string) error
}

type domainLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Domain, error)
}

type moduleCodeLookup interface {
	ExistingCodes(ctx context.Context, codes []string) ([]string, error)
}

// CreateLecturerRequest is the payload for creating a lecturer profile.
type CreateLecturerRequest struct {
	FirstName      string  `json:"first_name" validate:"required,max=100"`
	LastName       *string `json:"last_name" validate:"omitempty,max=100"`
	Title          string  `json:"title" validate:"required"`
	EmploymentType string  `json:"employment_type" validate:"required"`
	PersonalEmail  *string `json:"personal_email" validate:"omitempty,email"`
	MDHEmail       *string `json:"mdh_email" validate:"omitempty,email"`
	Phone          *string `json:"phone"`
	Location       *string `json:"location"`
	TeachingLoad   *string `json:"teaching_load"`
	DomainID       *int64  `json:"domain_id"`
}

// UpdateLecturerRequest is a partial update. Nil fields are left unchanged.
type UpdateLecturerRequest struct {
	FirstName      *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName       *string `json:"last_name" validate:"omitempty,max=100"`
	Title          *string `json:"title" validate:"omitempty,min=1"`
	EmploymentType *string `json:"employment_type" validate:"omitempty,min=1"`
	PersonalEmail  *string `json:"personal_email" validate:"omitempty,email"`
	MDHEmail       *string `json:"mdh_email" validate:"omitempty,email"`
	Phone          *string `json:"phone"`
	Location       *string `json:"location"`
	TeachingLoad   *string `json:"teaching_load"`
	DomainID       *int64  `json:"domain_id"`
}

// Fields returns the JSON names of the fields present in the payload.
func (r UpdateLecturerRequest) Fields() []string {
	var fields []string
	add := func(present bool, name string) {
		if present {
			fields = append(fields, name)
		}
	}
	add(r.FirstName != nil, "first_name")
	add(r.LastName != nil, "last_name")
	add(r.Title != nil, "title")
	add(r.EmploymentType != nil, "employment_type")
	add(r.PersonalEmail != nil, "personal_email")
	add(r.MDHEmail != nil, "mdh_email")
	add(r.Phone != nil, "phone")
	add(r.Location != nil, "location")
	add(r.TeachingLoad != nil, "teaching_load")
	add(r.DomainID != nil, "domain_id")
	return fields
}

// AssignModulesRequest replaces the module assignments of a lecturer.
type AssignModulesRequest struct {
	ModuleCodes []string `json:"module_codes" validate:"required,dive,required"`
}

// LecturerService manages lecturer profiles.
type LecturerService struct {
	repo      lecturerRepository
	domains   domainLookup
	modules   moduleCodeLookup
	authz     Authorizer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLecturerService constructs a LecturerService.
func NewLecturerService(repo lecturerRepository, domains domainLookup, modules moduleCodeLookup, authorizer Authorizer, validate *validator.Validate, logger *zap.Logger) *LecturerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LecturerService{repo: repo, domains: domains, modules: modules, authz: authorizer, validator: validate, logger: logger}
}

// List returns every lecturer, or only the caller's own profile under self scope.
func (s *LecturerService) List(ctx context.Context, actor authz.Actor) ([]models.Lecturer, error) {
	var onlyID *int64
	switch s.authz.ReadScope(actor, authz.ResourceLecturer) {
	case authz.ReadAll:
	case authz.ReadSelf:
		if actor.LecturerID == nil {
			return []models.Lecturer{}, nil
		}
		onlyID = actor.LecturerID
	default:
		return nil, appErrors.Forbidden("no read access to lecturers")
	}
	lecturers, err := s.repo.List(ctx, onlyID)
	if err != nil {
		return nil, internalError(err, "failed to list lecturers")
	}
	return lecturers, nil
}

// Get returns one lecturer.
func (s *LecturerService) Get(ctx context.Context, actor authz.Actor, id int64) (*models.Lecturer, error) {
	lecturer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "lecturer")
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceLecturer, authz.Target{LecturerID: &id}); err != nil {
		return nil, err
	}
	return lecturer, nil
}

// Create stores a new lecturer profile.
func (s *LecturerService) Create(ctx context.Context, actor authz.Actor, req CreateLecturerRequest) (*models.Lecturer, error) {
	if err := s.authz.Authorize(ctx, actor, authz.ActionCreate, authz.ResourceLecturer, authz.Target{}); err != nil {
		return nil, err
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid lecturer payload")
	}
	if err := s.ensureDomain(ctx, req.DomainID); err != nil {
		return nil, err
	}

	lecturer := &models.Lecturer{
		FirstName:      req.FirstName,
		LastName:       normalizeOptional(req.LastName),
		Title:          strings.TrimSpace(req.Title),
		EmploymentType: strings.TrimSpace(req.EmploymentType),
		PersonalEmail:  normalizeOptional(req.PersonalEmail),
		MDHEmail:       normalizeOptional(req.MDHEmail),
		Phone:          normalizeOptional(req.Phone),
		Location:       normalizeOptional(req.Location),
		TeachingLoad:   normalizeOptional(req.TeachingLoad),
		DomainID:       req.DomainID,
	}
	if err := s.repo.Create(ctx, lecturer); err != nil {
		return nil, writeError(err, "create lecturer")
	}
	return s.reload(ctx, lecturer.ID)
}

// Update applies a partial update. Fields outside the caller's writable set
// are dropped without error.
func (s *LecturerService) Update(ctx context.Context, actor authz.Actor, id int64, req UpdateLecturerRequest) (*models.Lecturer, error) {
	lecturer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "lecturer")
	}
	fields := req.Fields()
	if err := s.authz.Authorize(ctx, actor, authz.ActionUpdate, authz.ResourceLecturer, authz.Target{LecturerID: &id, Fields: fields}); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid lecturer payload")
	}

	writable := s.authz.WritableFields(actor, authz.ResourceLecturer)
	applied := 0
	for _, field := range fields {
		if !writable.Allows(field) {
			s.logger.Debug("dropping non-writable lecturer field", zap.String("field", field), zap.Int64("lecturer_id", id))
			continue
		}
		if field == "domain_id" {
			if err := s.ensureDomain(ctx, req.DomainID); err != nil {
				return nil, err
			}
		}
		applyLecturerField(lecturer, req, field)
		applied++
	}
	if applied == 0 {
		return lecturer, nil
	}

	if err := s.repo.Update(ctx, lecturer); err != nil {
		return nil, writeError(err, "update lecturer")
	}
	return s.reload(ctx, id)
}

// Delete removes a lecturer. Deleting an absent lecturer succeeds.
func (s *LecturerService) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	if err := s.authz.Authorize(ctx, actor, authz.ActionDelete, authz.ResourceLecturer, authz.Target{LecturerID: &id}); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return internalError(err, "failed to delete lecturer")
	}
	return nil
}

// AssignModules replaces the set of modules taught by a lecturer.
func (s *LecturerService) AssignModules(ctx context.Context, actor authz.Actor, id int64, req AssignModulesRequest) (*models.Lecturer, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, loadError(err, "lecturer")
	}
	target := authz.Target{LecturerID: &id, Fields: []string{"module_codes"}}
	if err := s.authz.Authorize(ctx, actor, authz.ActionUpdate, authz.ResourceLecturer, target); err != nil {
		return nil, err
	}
	if !s.authz.WritableFields(actor, authz.ResourceLecturer).Allows("module_codes") {
		return nil, appErrors.Forbidden("module assignments may not be edited by this account")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid module assignment payload")
	}

	codes := dedupeCodes(req.ModuleCodes)
	if len(codes) > 0 {
		existing, err := s.modules.ExistingCodes(ctx, codes)
		if err != nil {
			return nil, internalError(err, "failed to check module codes")
		}
		known := make(map[string]struct{}, len(existing))
		for _, code := range existing {
			known[code] = struct{}{}
		}
		for _, code := range codes {
			if _, ok := known[code]; !ok {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "module "+code+" not found")
			}
		}
	}

	if err := s.repo.ReplaceModules(ctx, id, codes); err != nil {
		return nil, internalError(err, "failed to assign modules")
	}
	return s.reload(ctx, id)
}

func (s *LecturerService) ensureDomain(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := s.domains.FindByID(ctx, *id); err != nil {
		return loadError(err, "domain")
	}
	return nil
}

func (s *LecturerService) reload(ctx context.Context, id int64) (*models.Lecturer, error) {
	lecturer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "lecturer")
	}
	return lecturer, nil
}

func applyLecturerField(l *models.Lecturer, req UpdateLecturerRequest, field string) {
	switch field {
	case "first_name":
		l.FirstName = strings.TrimSpace(*req.FirstName)
	case "last_name":
		l.LastName = normalizeOptional(req.LastName)
	case "title":
		l.Title = strings.TrimSpace(*req.Title)
	case "employment_type":
		l.EmploymentType = strings.TrimSpace(*req.EmploymentType)
	case "personal_email":
		l.PersonalEmail = normalizeOptional(req.PersonalEmail)
	case "mdh_email":
		l.MDHEmail = normalizeOptional(req.MDHEmail)
	case "phone":
		l.Phone = normalizeOptional(req.Phone)
	case "location":
		l.Location = normalizeOptional(req.Location)
	case "teaching_load":
		l.TeachingLoad = normalizeOptional(req.TeachingLoad)
	case "domain_id":
		l.DomainID = req.DomainID
	}
}

func dedupeCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	result := make([]string, 0, len(codes))
	for _, code := range codes {
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
