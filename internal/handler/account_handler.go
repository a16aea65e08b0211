package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/program-catalog-api/internal/authz"
	"github.com/noah-isme/program-catalog-api/internal/models"
	"github.com/noah-isme/program-catalog-api/internal/service"
	"github.com/noah-isme/program-catalog-api/pkg/response"
)

type accountService interface {
	List(ctx context.Context, actor authz.Actor, filter models.UserFilter) ([]models.User, *models.Pagination, error)
	Create(ctx context.Context, actor authz.Actor, req service.CreateAccountRequest) (*models.User, error)
}

// AccountHandler exposes account provisioning.
type AccountHandler struct {
	accounts accountService
}

// NewAccountHandler constructs AccountHandler.
func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// List godoc
// @Summary List accounts
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param role query string false "Filter by role"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var filter models.UserFilter
	if raw := c.Query("role"); raw != "" {
		role := models.Role(raw)
		filter.Role = &role
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	users, pagination, err := h.accounts.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Create godoc
// @Summary Create account
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateAccountRequest true "Account payload"
// @Success 201 {object} response.Envelope
// @Router /accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CreateAccountRequest
	if !bindJSON(c, &req, "invalid account payload") {
		return
	}
	user, err := h.accounts.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}
