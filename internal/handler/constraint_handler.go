package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/program-catalog-api/internal/authz"
	"github.com/noah-isme/program-catalog-api/internal/models"
	"github.com/noah-isme/program-catalog-api/internal/service"
	appErrors "github.com/noah-isme/program-catalog-api/pkg/errors"
	"github.com/noah-isme/program-catalog-api/pkg/response"
)

type constraintService interface {
	ListTypes(ctx context.Context, actor authz.Actor, activeOnly bool) ([]models.ConstraintType, error)
	GetType(ctx context.Context, actor authz.Actor, id int64) (*models.ConstraintType, error)
	CreateType(ctx context.Context, actor authz.Actor, req service.CreateConstraintTypeRequest) (*models.ConstraintType, error)
	UpdateType(ctx context.Context, actor authz.Actor, id int64, req service.UpdateConstraintTypeRequest) (*models.ConstraintType, error)
	ListConstraints(ctx context.Context, actor authz.Actor, filter models.ConstraintFilter) ([]models.SchedulerConstraint, error)
	GetConstraint(ctx context.Context, actor authz.Actor, id int64) (*models.SchedulerConstraint, error)
	CreateConstraint(ctx context.Context, actor authz.Actor, req service.CreateConstraintRequest) (*models.SchedulerConstraint, error)
	UpdateConstraint(ctx context.Context, actor authz.Actor, id int64, req service.UpdateConstraintRequest) (*models.SchedulerConstraint, error)
	DeleteConstraint(ctx context.Context, actor authz.Actor, id int64) error
	Export(ctx context.Context, actor authz.Actor, format string) (*service.ExportResult, error)
}

// ConstraintHandler exposes constraint types and the scheduler constraint catalog.
type ConstraintHandler struct {
	service constraintService
}

// NewConstraintHandler constructs ConstraintHandler.
func NewConstraintHandler(svc constraintService) *ConstraintHandler {
	return &ConstraintHandler{service: svc}
}

// ListTypes godoc
// @Summary List constraint types
// @Tags Constraints
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only active types"
// @Success 200 {object} response.Envelope
// @Router /constraint-types [get]
func (h *ConstraintHandler) ListTypes(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	active, ok := optionalBoolQuery(c, "active")
	if !ok {
		return
	}
	types, err := h.service.ListTypes(c.Request.Context(), actor, active != nil && *active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// GetType godoc
// @Summary Get constraint type
// @Tags Constraints
// @Produce json
// @Security BearerAuth
// @Param id path int true "Constraint type ID"
// @Success 200 {object} response.Envelope
// @Router /constraint-types/{id} [get]
func (h *ConstraintHandler) GetType(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ct, err := h.service.GetType(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ct, nil)
}

// CreateType godoc
// @Summary Create constraint type
// @Tags Constraints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateConstraintTypeRequest true "Constraint type payload"
// @Success 201 {object} response.Envelope
// @Router /constraint-types [post]
func (h *ConstraintHandler) CreateType(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CreateConstraintTypeRequest
	if !bindJSON(c, &req, "invalid constraint type payload") {
		return
	}
	ct, err := h.service.CreateType(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ct)
}

// UpdateType godoc
// @Summary Update constraint type
// @Tags Constraints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Constraint type ID"
// @Param payload body service.UpdateConstraintTypeRequest true "Constraint type payload"
// @Success 200 {object} response.Envelope
// @Router /constraint-types/{id} [put]
func (h *ConstraintHandler) UpdateType(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateConstraintTypeRequest
	if !bindJSON(c, &req, "invalid constraint type payload") {
		return
	}
	ct, err := h.service.UpdateType(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ct, nil)
}

// ListConstraints godoc
// @Summary List scheduler constraints
// @Tags Constraints
// @Produce json
// @Security BearerAuth
// @Param scope query string false "Constraint scope, case-insensitive"
// @Param target_id query int false "Target entity"
// @Param type_id query int false "Constraint type"
// @Param enabled query bool false "Enabled flag"
// @Success 200 {object} response.Envelope
// @Router /scheduler-constraints [get]
func (h *ConstraintHandler) ListConstraints(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	filter, ok := constraintFilterFromQuery(c)
	if !ok {
		return
	}
	items, err := h.service.ListConstraints(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

func constraintFilterFromQuery(c *gin.Context) (models.ConstraintFilter, bool) {
	var filter models.ConstraintFilter
	if raw := strings.TrimSpace(c.Query("scope")); raw != "" {
		scope, valid := models.ParseScope(raw)
		if !valid {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid scope query parameter"))
			return filter, false
		}
		filter.Scope = &scope
	}
	var ok bool
	if filter.TargetID, ok = optionalInt64Query(c, "target_id"); !ok {
		return filter, false
	}
	if filter.TypeID, ok = optionalInt64Query(c, "type_id"); !ok {
		return filter, false
	}
	if filter.Enabled, ok = optionalBoolQuery(c, "enabled"); !ok {
		return filter, false
	}
	return filter, true
}

// GetConstraint godoc
// @Summary Get scheduler constraint
// @Tags Constraints
// @Produce json
// @Security BearerAuth
// @Param id path int true "Constraint ID"
// @Success 200 {object} response.Envelope
// @Router /scheduler-constraints/{id} [get]
func (h *ConstraintHandler) GetConstraint(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	item, err := h.service.GetConstraint(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// CreateConstraint godoc
// @Summary Create scheduler constraint
// @Description Hard constraints must not carry a weight; Global constraints must not carry a target
// @Tags Constraints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateConstraintRequest true "Constraint payload"
// @Success 201 {object} response.Envelope
// @Router /scheduler-constraints [post]
func (h *ConstraintHandler) CreateConstraint(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CreateConstraintRequest
	if !bindJSON(c, &req, "invalid constraint payload") {
		return
	}
	item, err := h.service.CreateConstraint(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateConstraint godoc
// @Summary Update scheduler constraint
// @Tags Constraints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Constraint ID"
// @Param payload body service.UpdateConstraintRequest true "Constraint payload"
// @Success 200 {object} response.Envelope
// @Router /scheduler-constraints/{id} [put]
func (h *ConstraintHandler) UpdateConstraint(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateConstraintRequest
	if !bindJSON(c, &req, "invalid constraint payload") {
		return
	}
	item, err := h.service.UpdateConstraint(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// DeleteConstraint godoc
// @Summary Delete scheduler constraint
// @Tags Constraints
// @Security BearerAuth
// @Param id path int true "Constraint ID"
// @Success 204
// @Router /scheduler-constraints/{id} [delete]
func (h *ConstraintHandler) DeleteConstraint(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteConstraint(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export scheduler constraints
// @Tags Constraints
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /scheduler-constraints/export [get]
func (h *ConstraintHandler) Export(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	result, err := h.service.Export(c.Request.Context(), actor, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
