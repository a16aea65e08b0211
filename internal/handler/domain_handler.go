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

type domainService interface {
	List(ctx context.Context, actor authz.Actor) ([]models.Domain, error)
	Create(ctx context.Context, actor authz.Actor, req service.CreateDomainRequest) (*models.Domain, bool, error)
}

// DomainHandler exposes lecturer expertise domains.
type DomainHandler struct {
	service domainService
}

// NewDomainHandler constructs DomainHandler.
func NewDomainHandler(svc domainService) *DomainHandler {
	return &DomainHandler{service: svc}
}

// List godoc
// @Summary List domains
// @Tags Domains
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /domains [get]
func (h *DomainHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	domains, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, domains, nil)
}

// Create godoc
// @Summary Register domain
// @Description Returns 201 for a new domain and 200 with the stored row when the name already exists
// @Tags Domains
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateDomainRequest true "Domain payload"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Router /domains [post]
func (h *DomainHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CreateDomainRequest
	if !bindJSON(c, &req, "invalid domain payload") {
		return
	}
	domain, created, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, domain)
		return
	}
	response.JSON(c, http.StatusOK, domain, nil)
}
