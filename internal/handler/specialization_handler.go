package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/program-catalog-api/internal/authz"
	"github.com/noah-isme/program-catalog-api/internal/models"
	"github.com/noah-isme/program-catalog-api/internal/service"
	"github.com/noah-isme/program-catalog-api/pkg/response"
)

type specializationService interface {
	List(ctx context.Context, actor authz.Actor, filter models.SpecializationFilter) ([]models.Specialization, error)
	Get(ctx context.Context, actor authz.Actor, id int64) (*models.Specialization, error)
	Create(ctx context.Context, actor authz.Actor, req service.CreateSpecializationRequest) (*models.Specialization, error)
	Update(ctx context.Context, actor authz.Actor, id int64, req service.UpdateSpecializationRequest) (*models.Specialization, error)
	Delete(ctx context.Context, actor authz.Actor, id int64) error
}

// SpecializationHandler manages specialization endpoints.
type SpecializationHandler struct {
	service specializationService
}

// NewSpecializationHandler constructs SpecializationHandler.
func NewSpecializationHandler(svc specializationService) *SpecializationHandler {
	return &SpecializationHandler{service: svc}
}

// List godoc
// @Summary List specializations
// @Tags Specializations
// @Produce json
// @Security BearerAuth
// @Param program_id query int false "Filter by study program"
// @Success 200 {object} response.Envelope
// @Router /specializations [get]
func (h *SpecializationHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	programID, ok := optionalInt64Query(c, "program_id")
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), actor, models.SpecializationFilter{ProgramID: programID})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get specialization
// @Tags Specializations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Specialization ID"
// @Success 200 {object} response.Envelope
// @Router /specializations/{id} [get]
func (h *SpecializationHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create specialization
// @Tags Specializations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateSpecializationRequest true "Specialization payload"
// @Success 201 {object} response.Envelope
// @Router /specializations [post]
func (h *SpecializationHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CreateSpecializationRequest
	if !bindJSON(c, &req, "invalid specialization payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update specialization
// @Tags Specializations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Specialization ID"
// @Param payload body service.UpdateSpecializationRequest true "Specialization payload"
// @Success 200 {object} response.Envelope
// @Router /specializations/{id} [put]
func (h *SpecializationHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateSpecializationRequest
	if !bindJSON(c, &req, "invalid specialization payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete specialization
// @Tags Specializations
// @Security BearerAuth
// @Param id path int true "Specialization ID"
// @Success 204
// @Router /specializations/{id} [delete]
func (h *SpecializationHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
