package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/program-catalog-api/internal/authz"
	"github.com/noah-isme/program-catalog-api/internal/models"
)

type programRepository interface {
	List(ctx context.Context) ([]models.StudyProgram, error)
	FindByID(ctx context.Context, id int64) (*models.StudyProgram, error)
	Create(ctx context.Context, program *models.StudyProgram) error
	Update(ctx context.Context, program *models.StudyProgram) error
	Delete(ctx context.Context, id int64) error
}

// CreateProgramRequest is the payload for creating a study program.
type CreateProgramRequest struct {
	Name            string  `json:"name" validate:"required,max=200"`
	Acronym         string  `json:"acronym" validate:"required,max=20"`
	Status          *bool   `json:"status"`
	StartDate       string  `json:"start_date" validate:"required"`
	TotalECTS       int     `json:"total_ects" validate:"min=0"`
	Location        *string `json:"location"`
	Level           string  `json:"level" validate:"omitempty,oneof=Bachelor Master"`
	DegreeType      *string `json:"degree_type"`
	HeadOfProgramID *int64  `json:"head_of_program_id"`
}

// UpdateProgramRequest is a partial update. Nil fields are left unchanged.
type UpdateProgramRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=200"`
	Acronym         *string `json:"acronym" validate:"omitempty,min=1,max=20"`
	Status          *bool   `json:"status"`
	StartDate       *string `json:"start_date" validate:"omitempty,min=1"`
	TotalECTS       *int    `json:"total_ects" validate:"omitempty,min=0"`
	Location        *string `json:"location"`
	Level           *string `json:"level" validate:"omitempty,oneof=Bachelor Master"`
	DegreeType      *string `json:"degree_type"`
	HeadOfProgramID *int64  `json:"head_of_program_id"`
}

// Fields returns the JSON names of the fields present in the payload.
func (r UpdateProgramRequest) Fields() []string {
	var fields []string
	add := func(present bool, name string) {
		if present {
			fields = append(fields, name)
		}
	}
	add(r.Name != nil, "name")
	add(r.Acronym != nil, "acronym")
	add(r.Status != nil, "status")
	add(r.StartDate != nil, "start_date")
	add(r.TotalECTS != nil, "total_ects")
	add(r.Location != nil, "location")
	add(r.Level != nil, "level")
	add(r.DegreeType != nil, "degree_type")
	add(r.HeadOfProgramID != nil, "head_of_program_id")
	return fields
}

// ProgramService manages study programs.
type ProgramService struct {
	repo      programRepository
	lecturers lecturerExistence
	authz     Authorizer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgramService constructs a ProgramService.
func NewProgramService(repo programRepository, lecturers lecturerExistence, authorizer Authorizer, validate *validator.Validate, logger *zap.Logger) *ProgramService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramService{repo: repo, lecturers: lecturers, authz: authorizer, validator: validate, logger: logger}
}

// List returns every study program with its head lecturer name.
func (s *ProgramService) List(ctx context.Context, actor authz.Actor) ([]models.StudyProgram, error) {
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceProgram, authz.Target{}); err != nil {
		return nil, err
	}
	programs, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list study programs")
	}
	return programs, nil
}

// Get returns one study program.
func (s *ProgramService) Get(ctx context.Context, actor authz.Actor, id int64) (*models.StudyProgram, error) {
	program, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "study program")
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceProgram, authz.Target{ProgramID: &id}); err != nil {
		return nil, err
	}
	return program, nil
}

// Create stores a new study program.
func (s *ProgramService) Create(ctx context.Context, actor authz.Actor, req CreateProgramRequest) (*models.StudyProgram, error) {
	if err := s.authz.Authorize(ctx, actor, authz.ActionCreate, authz.ResourceProgram, authz.Target{}); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Acronym = strings.TrimSpace(req.Acronym)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid study program payload")
	}
	if err := s.ensureHead(ctx, req.HeadOfProgramID); err != nil {
		return nil, err
	}

	program := &models.StudyProgram{
		Name:            req.Name,
		Acronym:         req.Acronym,
		Status:          true,
		StartDate:       req.StartDate,
		TotalECTS:       req.TotalECTS,
		Location:        normalizeOptional(req.Location),
		Level:           models.LevelBachelor,
		DegreeType:      normalizeOptional(req.DegreeType),
		HeadOfProgramID: req.HeadOfProgramID,
	}
	if req.Status != nil {
		program.Status = *req.Status
	}
	if req.Level != "" {
		program.Level = req.Level
	}
	if err := s.repo.Create(ctx, program); err != nil {
		return nil, writeError(err, "create study program")
	}
	return s.reload(ctx, program.ID)
}

// Update applies a partial update to a study program.
func (s *ProgramService) Update(ctx context.Context, actor authz.Actor, id int64, req UpdateProgramRequest) (*models.StudyProgram, error) {
	program, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "study program")
	}
	target := authz.Target{ProgramID: &id, Fields: req.Fields()}
	if err := s.authz.Authorize(ctx, actor, authz.ActionUpdate, authz.ResourceProgram, target); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid study program payload")
	}
	if err := s.ensureHead(ctx, req.HeadOfProgramID); err != nil {
		return nil, err
	}

	if req.Name != nil {
		program.Name = strings.TrimSpace(*req.Name)
	}
	if req.Acronym != nil {
		program.Acronym = strings.TrimSpace(*req.Acronym)
	}
	if req.Status != nil {
		program.Status = *req.Status
	}
	if req.StartDate != nil {
		program.StartDate = *req.StartDate
	}
	if req.TotalECTS != nil {
		program.TotalECTS = *req.TotalECTS
	}
	if req.Location != nil {
		program.Location = normalizeOptional(req.Location)
	}
	if req.Level != nil {
		program.Level = *req.Level
	}
	if req.DegreeType != nil {
		program.DegreeType = normalizeOptional(req.DegreeType)
	}
	if req.HeadOfProgramID != nil {
		program.HeadOfProgramID = req.HeadOfProgramID
	}

	if err := s.repo.Update(ctx, program); err != nil {
		return nil, writeError(err, "update study program")
	}
	return s.reload(ctx, id)
}

// Delete removes a study program. Unlike other catalog deletes an absent
// program is reported as NotFound.
func (s *ProgramService) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return loadError(err, "study program")
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionDelete, authz.ResourceProgram, authz.Target{ProgramID: &id}); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return internalError(err, "failed to delete study program")
	}
	return nil
}

func (s *ProgramService) ensureHead(ctx context.Context, lecturerID *int64) error {
	if lecturerID == nil {
		return nil
	}
	ok, err := s.lecturers.Exists(ctx, *lecturerID)
	if err != nil {
		return internalError(err, "failed to load lecturer")
	}
	if !ok {
		return notFound("head of program lecturer")
	}
	return nil
}

func (s *ProgramService) reload(ctx context.Context, id int64) (*models.StudyProgram, error) {
	program, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "study program")
	}
	return program, nil
}
