package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/program-catalog-api/internal/authz"
	"github.com/noah-isme/program-catalog-api/internal/models"
)

type groupRepository interface {
	List(ctx context.Context) ([]models.Group, error)
	FindByID(ctx context.Context, id int64) (*models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id int64) error
}

// CreateGroupRequest is the payload for creating a student group.
type CreateGroupRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Size        int     `json:"size" validate:"min=0"`
	Description *string `json:"description"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Program     *string `json:"program"`
	ParentGroup *string `json:"parent_group"`
}

// UpdateGroupRequest is a partial update. Nil fields are left unchanged.
type UpdateGroupRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Size        *int    `json:"size" validate:"omitempty,min=0"`
	Description *string `json:"description"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Program     *string `json:"program"`
	ParentGroup *string `json:"parent_group"`
}

// GroupService manages student groups. Program ownership of a group is
// decided by its free-text program label.
type GroupService struct {
	repo      groupRepository
	authz     Authorizer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService constructs a GroupService.
func NewGroupService(repo groupRepository, authorizer Authorizer, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{repo: repo, authz: authorizer, validator: validate, logger: logger}
}

// List returns every group.
func (s *GroupService) List(ctx context.Context, actor authz.Actor) ([]models.Group, error) {
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceGroup, authz.Target{}); err != nil {
		return nil, err
	}
	groups, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list groups")
	}
	return groups, nil
}

// Get returns one group.
func (s *GroupService) Get(ctx context.Context, actor authz.Actor, id int64) (*models.Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "group")
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceGroup, authz.Target{ProgramLabel: group.Program}); err != nil {
		return nil, err
	}
	return group, nil
}

// Create stores a group.
func (s *GroupService) Create(ctx context.Context, actor authz.Actor, req CreateGroupRequest) (*models.Group, error) {
	if err := s.authz.Precheck(actor, authz.ActionCreate, authz.ResourceGroup); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid group payload")
	}
	program := programLabel(req.Program)
	if err := s.authz.Authorize(ctx, actor, authz.ActionCreate, authz.ResourceGroup, authz.Target{ProgramLabel: program}); err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:        req.Name,
		Size:        req.Size,
		Description: normalizeOptional(req.Description),
		Email:       normalizeOptional(req.Email),
		Program:     program,
		ParentGroup: normalizeOptional(req.ParentGroup),
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, writeError(err, "create group")
	}
	return group, nil
}

// Update applies a partial update to a group.
func (s *GroupService) Update(ctx context.Context, actor authz.Actor, id int64, req UpdateGroupRequest) (*models.Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "group")
	}
	if err := s.authz.Precheck(actor, authz.ActionUpdate, authz.ResourceGroup); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid group payload")
	}
	target := authz.Target{ProgramLabel: group.Program}
	if req.Program != nil {
		label := *req.Program
		target.NewProgramLabel = &label
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionUpdate, authz.ResourceGroup, target); err != nil {
		return nil, err
	}

	if req.Name != nil {
		group.Name = strings.TrimSpace(*req.Name)
	}
	if req.Size != nil {
		group.Size = *req.Size
	}
	if req.Description != nil {
		group.Description = normalizeOptional(req.Description)
	}
	if req.Email != nil {
		group.Email = normalizeOptional(req.Email)
	}
	if req.Program != nil {
		group.Program = programLabel(req.Program)
	}
	if req.ParentGroup != nil {
		group.ParentGroup = normalizeOptional(req.ParentGroup)
	}
	if err := s.repo.Update(ctx, group); err != nil {
		return nil, writeError(err, "update group")
	}
	return group, nil
}

// Delete removes a group. Deleting an absent group succeeds once the caller
// holds delete rights.
func (s *GroupService) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	target := authz.Target{}
	group, err := s.repo.FindByID(ctx, id)
	switch {
	case err == nil:
		target.ProgramLabel = group.Program
	case isNoRows(err):
	default:
		return internalError(err, "failed to load group")
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionDelete, authz.ResourceGroup, target); err != nil {
		return err
	}
	if group == nil {
		return nil
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return internalError(err, "failed to delete group")
	}
	return nil
}

// programLabel keeps the label as sent. Ownership compares it byte for byte
// with program names.
func programLabel(label *string) *string {
	if label == nil || *label == "" {
		return nil
	}
	value := *label
	return &value
}
