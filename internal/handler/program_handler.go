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

type programService interface {
	List(ctx context.Context, actor authz.Actor) ([]models.StudyProgram, error)
	Get(ctx context.Context, actor authz.Actor, id int64) (*models.StudyProgram, error)
	Create(ctx context.Context, actor authz.Actor, req service.CreateProgramRequest) (*models.StudyProgram, error)
	Update(ctx context.Context, actor authz.Actor, id int64, req service.UpdateProgramRequest) (*models.StudyProgram, error)
	Delete(ctx context.Context, actor authz.Actor, id int64) error
}

// ProgramHandler manages study program endpoints.
type ProgramHandler struct {
	service programService
}

// NewProgramHandler constructs ProgramHandler.
func NewProgramHandler(svc programService) *ProgramHandler {
	return &ProgramHandler{service: svc}
}

// List godoc
// @Summary List study programs
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /study-programs [get]
func (h *ProgramHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	programs, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, nil)
}

// Get godoc
// @Summary Get study program
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /study-programs/{id} [get]
func (h *ProgramHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	program, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// Create godoc
// @Summary Create study program
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateProgramRequest true "Program payload"
// @Success 201 {object} response.Envelope
// @Router /study-programs [post]
func (h *ProgramHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CreateProgramRequest
	if !bindJSON(c, &req, "invalid program payload") {
		return
	}
	program, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, program)
}

// Update godoc
// @Summary Update study program
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Program ID"
// @Param payload body service.UpdateProgramRequest true "Program payload"
// @Success 200 {object} response.Envelope
// @Router /study-programs/{id} [put]
func (h *ProgramHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateProgramRequest
	if !bindJSON(c, &req, "invalid program payload") {
		return
	}
	program, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// Delete godoc
// @Summary Delete study program
// @Tags Programs
// @Security BearerAuth
// @Param id path int true "Program ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /study-programs/{id} [delete]
func (h *ProgramHandler) Delete(c *gin.Context) {
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
