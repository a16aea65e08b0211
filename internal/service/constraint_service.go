package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/program-catalog-api/internal/authz"
	"github.com/noah-isme/program-catalog-api/internal/models"
	"github.com/noah-isme/program-catalog-api/pkg/cache"
	appErrors "github.com/noah-isme/program-catalog-api/pkg/errors"
	"github.com/noah-isme/program-catalog-api/pkg/events"
	"github.com/noah-isme/program-catalog-api/pkg/export"
)

const maxConstraintTypeNameLength = 80

type constraintTypeRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.ConstraintType, error)
	FindByID(ctx context.Context, id int64) (*models.ConstraintType, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, ct *models.ConstraintType) error
	Update(ctx context.Context, ct *models.ConstraintType) error
}

type schedulerConstraintRepository interface {
	List(ctx context.Context, filter models.ConstraintFilter) ([]models.SchedulerConstraint, error)
	FindByID(ctx context.Context, id int64) (*models.SchedulerConstraint, error)
	Create(ctx context.Context, constraint *models.SchedulerConstraint) error
	Update(ctx context.Context, constraint *models.SchedulerConstraint) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// CreateConstraintTypeRequest is the payload for creating a constraint type.
type CreateConstraintTypeRequest struct {
	Name             string     `json:"name"`
	Active           *bool      `json:"active"`
	ConstraintLevel  *string    `json:"constraint_level"`
	ConstraintFormat *string    `json:"constraint_format"`
	ValidFrom        *time.Time `json:"valid_from"`
	ValidTo          *time.Time `json:"valid_to"`
	ConstraintRule   *string    `json:"constraint_rule"`
	ConstraintTarget *string    `json:"constraint_target"`
}

// UpdateConstraintTypeRequest is a partial update. Nil fields are left unchanged.
type UpdateConstraintTypeRequest struct {
	Name             *string    `json:"name"`
	Active           *bool      `json:"active"`
	ConstraintLevel  *string    `json:"constraint_level"`
	ConstraintFormat *string    `json:"constraint_format"`
	ValidFrom        *time.Time `json:"valid_from"`
	ValidTo          *time.Time `json:"valid_to"`
	ConstraintRule   *string    `json:"constraint_rule"`
	ConstraintTarget *string    `json:"constraint_target"`
}

// CreateConstraintRequest is the payload for creating a scheduler constraint.
// Hardness and Scope are accepted in any casing.
type CreateConstraintRequest struct {
	ConstraintTypeID int64           `json:"constraint_type_id" validate:"required,gt=0"`
	Hardness         string          `json:"hardness" validate:"required"`
	Weight           *int            `json:"weight"`
	Scope            string          `json:"scope" validate:"required"`
	TargetID         *int64          `json:"target_id"`
	Config           json.RawMessage `json:"config" swaggertype:"object"`
	IsEnabled        *bool           `json:"is_enabled"`
	Notes            *string         `json:"notes"`
}

// UpdateConstraintRequest is a partial update. Switching to Hard drops a
// stored weight and switching to Global drops a stored target unless the
// payload sets them, in which case validation rejects the combination.
type UpdateConstraintRequest struct {
	ConstraintTypeID *int64          `json:"constraint_type_id" validate:"omitempty,gt=0"`
	Hardness         *string         `json:"hardness"`
	Weight           *int            `json:"weight"`
	Scope            *string         `json:"scope"`
	TargetID         *int64          `json:"target_id"`
	Config           json.RawMessage `json:"config" swaggertype:"object"`
	IsEnabled        *bool           `json:"is_enabled"`
	Notes            *string         `json:"notes"`
}

// ExportResult is a rendered constraint catalog.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ConstraintService manages the constraint catalog consumed by the external
// timetable solver. It does not check constraints against each other.
type ConstraintService struct {
	types       constraintTypeRepository
	constraints schedulerConstraintRepository
	cache       *ListingCache
	publisher   events.Publisher
	metrics     *MetricsService
	authz       Authorizer
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewConstraintService constructs a ConstraintService. cacheSvc and publisher may be nil.
func NewConstraintService(types constraintTypeRepository, constraints schedulerConstraintRepository, cacheSvc *ListingCache, publisher events.Publisher, metrics *MetricsService, authorizer Authorizer, validate *validator.Validate, logger *zap.Logger) *ConstraintService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConstraintService{
		types:       types,
		constraints: constraints,
		cache:       cacheSvc,
		publisher:   publisher,
		metrics:     metrics,
		authz:       authorizer,
		validator:   validate,
		logger:      logger,
	}
}

func constraintTypesKey(activeOnly bool) string {
	if activeOnly {
		return cache.Key("constraint_types", "active")
	}
	return cache.Key("constraint_types", "all")
}

// ListTypes returns constraint types ordered by id.
func (s *ConstraintService) ListTypes(ctx context.Context, actor authz.Actor, activeOnly bool) ([]models.ConstraintType, error) {
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceConstraintType, authz.Target{}); err != nil {
		return nil, err
	}
	types, err := Remember(ctx, s.cache, constraintTypesKey(activeOnly), func(ctx context.Context) ([]models.ConstraintType, error) {
		return s.types.List(ctx, activeOnly)
	})
	if err != nil {
		return nil, internalError(err, "failed to list constraint types")
	}
	return types, nil
}

// GetType returns one constraint type.
func (s *ConstraintService) GetType(ctx context.Context, actor authz.Actor, id int64) (*models.ConstraintType, error) {
	ct, err := s.types.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "constraint type")
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceConstraintType, authz.Target{}); err != nil {
		return nil, err
	}
	return ct, nil
}

// CreateType stores a constraint type with a unique name.
func (s *ConstraintService) CreateType(ctx context.Context, actor authz.Actor, req CreateConstraintTypeRequest) (*models.ConstraintType, error) {
	if err := s.authz.Authorize(ctx, actor, authz.ActionCreate, authz.ResourceConstraintType, authz.Target{}); err != nil {
		return nil, err
	}
	name, err := s.checkTypeName(ctx, req.Name, 0)
	if err != nil {
		return nil, err
	}
	if err := checkValidity(req.ValidFrom, req.ValidTo); err != nil {
		return nil, err
	}

	ct := &models.ConstraintType{
		Name:             name,
		Active:           true,
		ConstraintLevel:  normalizeOptional(req.ConstraintLevel),
		ConstraintFormat: normalizeOptional(req.ConstraintFormat),
		ValidFrom:        req.ValidFrom,
		ValidTo:          req.ValidTo,
		ConstraintRule:   normalizeOptional(req.ConstraintRule),
		ConstraintTarget: normalizeOptional(req.ConstraintTarget),
	}
	if req.Active != nil {
		ct.Active = *req.Active
	}
	if err := s.types.Create(ctx, ct); err != nil {
		return nil, writeError(err, "create constraint type")
	}
	s.invalidateTypes(ctx)
	s.publish(ctx, actor, events.OpCreated, 0, ct.ID)
	return ct, nil
}

// UpdateType edits the descriptors or the active flag of a constraint type.
func (s *ConstraintService) UpdateType(ctx context.Context, actor authz.Actor, id int64, req UpdateConstraintTypeRequest) (*models.ConstraintType, error) {
	ct, err := s.types.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "constraint type")
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionUpdate, authz.ResourceConstraintType, authz.Target{}); err != nil {
		return nil, err
	}
	if req.Name != nil {
		name, err := s.checkTypeName(ctx, *req.Name, id)
		if err != nil {
			return nil, err
		}
		ct.Name = name
	}
	if req.ValidFrom != nil {
		ct.ValidFrom = req.ValidFrom
	}
	if req.ValidTo != nil {
		ct.ValidTo = req.ValidTo
	}
	if err := checkValidity(ct.ValidFrom, ct.ValidTo); err != nil {
		return nil, err
	}
	if req.Active != nil {
		ct.Active = *req.Active
	}
	if req.ConstraintLevel != nil {
		ct.ConstraintLevel = normalizeOptional(req.ConstraintLevel)
	}
	if req.ConstraintFormat != nil {
		ct.ConstraintFormat = normalizeOptional(req.ConstraintFormat)
	}
	if req.ConstraintRule != nil {
		ct.ConstraintRule = normalizeOptional(req.ConstraintRule)
	}
	if req.ConstraintTarget != nil {
		ct.ConstraintTarget = normalizeOptional(req.ConstraintTarget)
	}
	if err := s.types.Update(ctx, ct); err != nil {
		return nil, writeError(err, "update constraint type")
	}
	s.invalidateTypes(ctx)
	s.publish(ctx, actor, events.OpUpdated, 0, ct.ID)
	return ct, nil
}

// ListConstraints returns constraints matching filter ordered by id.
func (s *ConstraintService) ListConstraints(ctx context.Context, actor authz.Actor, filter models.ConstraintFilter) ([]models.SchedulerConstraint, error) {
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceConstraint, authz.Target{}); err != nil {
		return nil, err
	}
	constraints, err := s.constraints.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list constraints")
	}
	return constraints, nil
}

// GetConstraint returns one constraint.
func (s *ConstraintService) GetConstraint(ctx context.Context, actor authz.Actor, id int64) (*models.SchedulerConstraint, error) {
	constraint, err := s.constraints.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "constraint")
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceConstraint, authz.Target{}); err != nil {
		return nil, err
	}
	return constraint, nil
}

// CreateConstraint stores a constraint bound to an active constraint type.
func (s *ConstraintService) CreateConstraint(ctx context.Context, actor authz.Actor, req CreateConstraintRequest) (*models.SchedulerConstraint, error) {
	if err := s.authz.Authorize(ctx, actor, authz.ActionCreate, authz.ResourceConstraint, authz.Target{}); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid constraint payload")
	}
	constraint := &models.SchedulerConstraint{
		ConstraintTypeID: req.ConstraintTypeID,
		Weight:           req.Weight,
		TargetID:         req.TargetID,
		IsEnabled:        true,
		Notes:            normalizeOptional(req.Notes),
	}
	hardness, ok := models.ParseHardness(req.Hardness)
	if !ok {
		return nil, validationError(nil, fmt.Sprintf("hardness must be Hard or Soft, got %q", req.Hardness))
	}
	constraint.Hardness = hardness
	scope, ok := models.ParseScope(req.Scope)
	if !ok {
		return nil, validationError(nil, fmt.Sprintf("unknown scope %q", req.Scope))
	}
	constraint.Scope = scope
	config, err := normalizeConfig(req.Config)
	if err != nil {
		return nil, err
	}
	constraint.Config = config
	if req.IsEnabled != nil {
		constraint.IsEnabled = *req.IsEnabled
	}
	if err := validateConstraint(constraint); err != nil {
		return nil, err
	}
	if err := s.ensureActiveType(ctx, req.ConstraintTypeID); err != nil {
		return nil, err
	}

	if err := s.constraints.Create(ctx, constraint); err != nil {
		return nil, writeError(err, "create constraint")
	}
	s.publish(ctx, actor, events.OpCreated, constraint.ID, constraint.ConstraintTypeID)
	return constraint, nil
}

// UpdateConstraint applies a partial update and refreshes updated_at.
func (s *ConstraintService) UpdateConstraint(ctx context.Context, actor authz.Actor, id int64, req UpdateConstraintRequest) (*models.SchedulerConstraint, error) {
	constraint, err := s.constraints.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "constraint")
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionUpdate, authz.ResourceConstraint, authz.Target{}); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid constraint payload")
	}

	if req.ConstraintTypeID != nil && *req.ConstraintTypeID != constraint.ConstraintTypeID {
		if err := s.ensureActiveType(ctx, *req.ConstraintTypeID); err != nil {
			return nil, err
		}
		constraint.ConstraintTypeID = *req.ConstraintTypeID
	}
	if req.Hardness != nil {
		hardness, ok := models.ParseHardness(*req.Hardness)
		if !ok {
			return nil, validationError(nil, fmt.Sprintf("hardness must be Hard or Soft, got %q", *req.Hardness))
		}
		if hardness == models.HardnessHard && req.Weight == nil {
			constraint.Weight = nil
		}
		constraint.Hardness = hardness
	}
	if req.Weight != nil {
		constraint.Weight = req.Weight
	}
	if req.Scope != nil {
		scope, ok := models.ParseScope(*req.Scope)
		if !ok {
			return nil, validationError(nil, fmt.Sprintf("unknown scope %q", *req.Scope))
		}
		if scope == models.ScopeGlobal && req.TargetID == nil {
			constraint.TargetID = nil
		}
		constraint.Scope = scope
	}
	if req.TargetID != nil {
		constraint.TargetID = req.TargetID
	}
	if len(req.Config) > 0 {
		config, err := normalizeConfig(req.Config)
		if err != nil {
			return nil, err
		}
		constraint.Config = config
	}
	if req.IsEnabled != nil {
		constraint.IsEnabled = *req.IsEnabled
	}
	if req.Notes != nil {
		constraint.Notes = normalizeOptional(req.Notes)
	}
	if err := validateConstraint(constraint); err != nil {
		return nil, err
	}

	if err := s.constraints.Update(ctx, constraint); err != nil {
		return nil, writeError(err, "update constraint")
	}
	s.publish(ctx, actor, events.OpUpdated, constraint.ID, constraint.ConstraintTypeID)
	return constraint, nil
}

// DeleteConstraint removes a constraint. Deleting an absent constraint succeeds.
func (s *ConstraintService) DeleteConstraint(ctx context.Context, actor authz.Actor, id int64) error {
	if err := s.authz.Authorize(ctx, actor, authz.ActionDelete, authz.ResourceConstraint, authz.Target{}); err != nil {
		return err
	}
	removed, err := s.constraints.Delete(ctx, id)
	if err != nil {
		return internalError(err, "failed to delete constraint")
	}
	if removed {
		s.publish(ctx, actor, events.OpDeleted, id, 0)
	}
	return nil
}

// Export renders every constraint with its type name as CSV or PDF.
func (s *ConstraintService) Export(ctx context.Context, actor authz.Actor, rawFormat string) (*ExportResult, error) {
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceConstraint, authz.Target{}); err != nil {
		return nil, err
	}
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, validationError(err, "invalid export format")
	}

	types, err := s.types.List(ctx, false)
	if err != nil {
		return nil, internalError(err, "failed to list constraint types")
	}
	typeNames := make(map[int64]string, len(types))
	for _, ct := range types {
		typeNames[ct.ID] = ct.Name
	}
	constraints, err := s.constraints.List(ctx, models.ConstraintFilter{})
	if err != nil {
		return nil, internalError(err, "failed to list constraints")
	}

	table := export.Table{
		Title:   "Scheduler constraints",
		Columns: []string{"id", "type", "hardness", "weight", "scope", "target_id", "enabled", "config", "notes"},
		Rows:    make([][]string, 0, len(constraints)),
	}
	for _, c := range constraints {
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(c.ID, 10),
			typeNames[c.ConstraintTypeID],
			string(c.Hardness),
			optionalInt(c.Weight),
			string(c.Scope),
			optionalInt64(c.TargetID),
			strconv.FormatBool(c.IsEnabled),
			string(c.Config),
			optionalString(c.Notes),
		})
	}

	body, err := export.RendererFor(format).Render(table)
	if err != nil {
		return nil, internalError(err, "failed to render constraint export")
	}
	return &ExportResult{
		Filename:    "scheduler-constraints." + string(format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

func (s *ConstraintService) checkTypeName(ctx context.Context, raw string, excludeID int64) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", validationError(nil, "constraint type name is required")
	}
	if len([]rune(name)) > maxConstraintTypeNameLength {
		return "", validationError(nil, fmt.Sprintf("constraint type name must be at most %d characters", maxConstraintTypeNameLength))
	}
	exists, err := s.types.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return "", internalError(err, "failed to check constraint type name")
	}
	if exists {
		return "", validationError(nil, "constraint type name already exists")
	}
	return name, nil
}

func (s *ConstraintService) ensureActiveType(ctx context.Context, id int64) error {
	ct, err := s.types.FindByID(ctx, id)
	if err != nil {
		return loadError(err, "constraint type")
	}
	if !ct.Active {
		return appErrors.Clone(appErrors.ErrNotFound, "constraint type is not active")
	}
	return nil
}

func (s *ConstraintService) invalidateTypes(ctx context.Context) {
	s.cache.InvalidatePrefix(ctx, cache.Key("constraint_types"))
}

func (s *ConstraintService) publish(ctx context.Context, actor authz.Actor, op string, constraintID, typeID int64) {
	publishEvent(ctx, s.publisher, s.metrics, s.logger, events.TopicConstraintChanged, events.ConstraintChanged{
		ConstraintID:     constraintID,
		ConstraintTypeID: typeID,
		Operation:        op,
		ActorID:          actor.AccountID,
		OccurredAt:       time.Now().UTC(),
	})
}

func validateConstraint(c *models.SchedulerConstraint) error {
	if c.Weight != nil {
		if c.Hardness == models.HardnessHard {
			return validationError(nil, "weight is only allowed on Soft constraints")
		}
		if *c.Weight < 0 {
			return validationError(nil, "weight must not be negative")
		}
	}
	if c.Scope == models.ScopeGlobal && c.TargetID != nil {
		return validationError(nil, "Global constraints must not carry a target_id")
	}
	return nil
}

func checkValidity(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return validationError(nil, "valid_to must not be before valid_from")
	}
	return nil
}

// normalizeConfig requires a JSON object. An absent config becomes {}.
func normalizeConfig(raw json.RawMessage) ([]byte, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return []byte("{}"), nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil || obj == nil {
		return nil, validationError(err, "config must be a JSON object")
	}
	return []byte(trimmed), nil
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optionalInt64(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func optionalString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
