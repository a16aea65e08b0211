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

type availabilityService interface {
	List(ctx context.Context, actor authz.Actor) ([]models.LecturerAvailability, error)
	Get(ctx context.Context, actor authz.Actor, lecturerID int64) (*models.LecturerAvailability, error)
	Set(ctx context.Context, actor authz.Actor, lecturerID int64, req service.SetAvailabilityRequest) (*models.LecturerAvailability, error)
	Delete(ctx context.Context, actor authz.Actor, lecturerID int64) error
}

// AvailabilityHandler manages lecturer availability documents.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs AvailabilityHandler.
func NewAvailabilityHandler(svc availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// List godoc
// @Summary List lecturer availability
// @Tags Availability
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /availabilities [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get lecturer availability
// @Description Returns an empty schedule when the lecturer has not declared one
// @Tags Availability
// @Produce json
// @Security BearerAuth
// @Param lecturerId path int true "Lecturer ID"
// @Success 200 {object} response.Envelope
// @Router /availabilities/{lecturerId} [get]
func (h *AvailabilityHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	lecturerID, ok := parseIDParam(c, "lecturerId")
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), actor, lecturerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Set godoc
// @Summary Set lecturer availability
// @Tags Availability
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param lecturerId path int true "Lecturer ID"
// @Param payload body service.SetAvailabilityRequest true "Schedule document"
// @Success 200 {object} response.Envelope
// @Router /availabilities/{lecturerId} [put]
func (h *AvailabilityHandler) Set(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	lecturerID, ok := parseIDParam(c, "lecturerId")
	if !ok {
		return
	}
	var req service.SetAvailabilityRequest
	if !bindJSON(c, &req, "invalid availability payload") {
		return
	}
	item, err := h.service.Set(c.Request.Context(), actor, lecturerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Clear lecturer availability
// @Tags Availability
// @Security BearerAuth
// @Param lecturerId path int true "Lecturer ID"
// @Success 204
// @Router /availabilities/{lecturerId} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	lecturerID, ok := parseIDParam(c, "lecturerId")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, lecturerID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
