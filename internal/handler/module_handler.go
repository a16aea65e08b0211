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

type moduleService interface {
	List(ctx context.Context, actor authz.Actor, filter models.ModuleFilter) ([]models.Module, error)
	Get(ctx context.Context, actor authz.Actor, code string) (*models.Module, error)
	Create(ctx context.Context, actor authz.Actor, req service.CreateModuleRequest) (*models.Module, error)
	Update(ctx context.Context, actor authz.Actor, code string, req service.UpdateModuleRequest) (*models.Module, error)
	Delete(ctx context.Context, actor authz.Actor, code string) error
}

// ModuleHandler manages module endpoints. Modules are addressed by code.
type ModuleHandler struct {
	service moduleService
}

// NewModuleHandler constructs ModuleHandler.
func NewModuleHandler(svc moduleService) *ModuleHandler {
	return &ModuleHandler{service: svc}
}

func moduleCode(c *gin.Context) (string, bool) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "module code is required"))
		return "", false
	}
	return code, true
}

// List godoc
// @Summary List modules
// @Tags Modules
// @Produce json
// @Security BearerAuth
// @Param program_id query int false "Filter by study program"
// @Success 200 {object} response.Envelope
// @Router /modules [get]
func (h *ModuleHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	programID, ok := optionalInt64Query(c, "program_id")
	if !ok {
		return
	}
	modules, err := h.service.List(c.Request.Context(), actor, models.ModuleFilter{ProgramID: programID})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, modules, nil)
}

// Get godoc
// @Summary Get module
// @Tags Modules
// @Produce json
// @Security BearerAuth
// @Param code path string true "Module code"
// @Success 200 {object} response.Envelope
// @Router /modules/{code} [get]
func (h *ModuleHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	code, ok := moduleCode(c)
	if !ok {
		return
	}
	module, err := h.service.Get(c.Request.Context(), actor, code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, module, nil)
}

// Create godoc
// @Summary Create module
// @Tags Modules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateModuleRequest true "Module payload"
// @Success 201 {object} response.Envelope
// @Router /modules [post]
func (h *ModuleHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CreateModuleRequest
	if !bindJSON(c, &req, "invalid module payload") {
		return
	}
	module, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, module)
}

// Update godoc
// @Summary Update module
// @Tags Modules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "Module code"
// @Param payload body service.UpdateModuleRequest true "Module payload"
// @Success 200 {object} response.Envelope
// @Router /modules/{code} [put]
func (h *ModuleHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	code, ok := moduleCode(c)
	if !ok {
		return
	}
	var req service.UpdateModuleRequest
	if !bindJSON(c, &req, "invalid module payload") {
		return
	}
	module, err := h.service.Update(c.Request.Context(), actor, code, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, module, nil)
}

// Delete godoc
// @Summary Delete module
// @Tags Modules
// @Security BearerAuth
// @Param code path string true "Module code"
// @Success 204
// @Router /modules/{code} [delete]
func (h *ModuleHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	code, ok := moduleCode(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, code); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
