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

type lecturerService interface {
	List(ctx context.Context, actor authz.Actor) ([]models.Lecturer, error)
	Get(ctx context.Context, actor authz.Actor, id int64) (*models.Lecturer, error)
	Create(ctx context.Context, actor authz.Actor, req service.CreateLecturerRequest) (*models.Lecturer, error)
	Update(ctx context.Context, actor authz.Actor, id int64, req service.UpdateLecturerRequest) (*models.Lecturer, error)
	Delete(ctx context.Context, actor authz.Actor, id int64) error
	AssignModules(ctx context.Context, actor authz.Actor, id int64, req service.AssignModulesRequest) (*models.Lecturer, error)
}

// LecturerHandler manages lecturer endpoints.
type LecturerHandler struct {
	service lecturerService
}

// NewLecturerHandler constructs LecturerHandler.
func NewLecturerHandler(svc lecturerService) *LecturerHandler {
	return &LecturerHandler{service: svc}
}

// List godoc
// @Summary List lecturers
// @Description Lecturers only see their own record unless their role reads all lecturers
// @Tags Lecturers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /lecturers [get]
func (h *LecturerHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	lecturers, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturers, nil)
}

// Get godoc
// @Summary Get lecturer
// @Tags Lecturers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lecturer ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lecturers/{id} [get]
func (h *LecturerHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	lecturer, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturer, nil)
}

// Create godoc
// @Summary Create lecturer
// @Tags Lecturers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateLecturerRequest true "Lecturer payload"
// @Success 201 {object} response.Envelope
// @Router /lecturers [post]
func (h *LecturerHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CreateLecturerRequest
	if !bindJSON(c, &req, "invalid lecturer payload") {
		return
	}
	lecturer, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lecturer)
}

// Update godoc
// @Summary Update lecturer
// @Description Lecturers editing their own record may only change the self-editable fields; other fields are ignored
// @Tags Lecturers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lecturer ID"
// @Param payload body service.UpdateLecturerRequest true "Lecturer payload"
// @Success 200 {object} response.Envelope
// @Router /lecturers/{id} [put]
func (h *LecturerHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateLecturerRequest
	if !bindJSON(c, &req, "invalid lecturer payload") {
		return
	}
	lecturer, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturer, nil)
}

// Delete godoc
// @Summary Delete lecturer
// @Tags Lecturers
// @Security BearerAuth
// @Param id path int true "Lecturer ID"
// @Success 204
// @Router /lecturers/{id} [delete]
func (h *LecturerHandler) Delete(c *gin.Context) {
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

// AssignModules godoc
// @Summary Replace lecturer modules
// @Tags Lecturers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lecturer ID"
// @Param payload body service.AssignModulesRequest true "Module codes"
// @Success 200 {object} response.Envelope
// @Router /lecturers/{id}/modules [put]
func (h *LecturerHandler) AssignModules(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.AssignModulesRequest
	if !bindJSON(c, &req, "invalid module assignment payload") {
		return
	}
	lecturer, err := h.service.AssignModules(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturer, nil)
}
