package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/program-catalog-api/internal/authz"
	"github.com/noah-isme/program-catalog-api/internal/models"
	"github.com/noah-isme/program-catalog-api/pkg/database"
)

type domainRepository interface {
	List(ctx context.Context) ([]models.Domain, error)
	FindByName(ctx context.Context, name string) (*models.Domain, error)
	Create(ctx context.Context, domain *models.Domain) error
}

// CreateDomainRequest is the payload for registering a domain.
type CreateDomainRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// DomainService manages lecturer domains.
type DomainService struct {
	repo   domainRepository
	authz  Authorizer
	logger *zap.Logger
}

// NewDomainService constructs a DomainService.
func NewDomainService(repo domainRepository, authorizer Authorizer, logger *zap.Logger) *DomainService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DomainService{repo: repo, authz: authorizer, logger: logger}
}

// List returns domains ordered by name.
func (s *DomainService) List(ctx context.Context, actor authz.Actor) ([]models.Domain, error) {
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceDomain, authz.Target{}); err != nil {
		return nil, err
	}
	domains, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list domains")
	}
	return domains, nil
}

// Create registers a domain. A name that already exists returns the stored row.
func (s *DomainService) Create(ctx context.Context, actor authz.Actor, req CreateDomainRequest) (*models.Domain, bool, error) {
	if err := s.authz.Authorize(ctx, actor, authz.ActionCreate, authz.ResourceDomain, authz.Target{}); err != nil {
		return nil, false, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, false, validationError(nil, "domain name is required")
	}
	if len(name) > 100 {
		return nil, false, validationError(nil, "domain name must be at most 100 characters")
	}

	existing, err := s.repo.FindByName(ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if !isNoRows(err) {
		return nil, false, internalError(err, "failed to load domain")
	}

	domain := &models.Domain{Name: name}
	if err := s.repo.Create(ctx, domain); err != nil {
		if database.IsUniqueViolation(err) {
			if existing, findErr := s.repo.FindByName(ctx, name); findErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, writeError(err, "create domain")
	}
	return domain, true, nil
}
