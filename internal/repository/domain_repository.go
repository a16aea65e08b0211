package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/program-catalog-api/internal/models"
)

// DomainRepository manages lecturer domain labels.
type DomainRepository struct {
	db *sqlx.DB
}

// NewDomainRepository constructs a DomainRepository.
func NewDomainRepository(db *sqlx.DB) *DomainRepository {
	return &DomainRepository{db: db}
}

// List returns every domain ordered by name.
func (r *DomainRepository) List(ctx context.Context) ([]models.Domain, error) {
	var domains []models.Domain
	if err := r.db.SelectContext(ctx, &domains, "SELECT id, name FROM domains ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	return domains, nil
}

// FindByName fetches a domain by exact name.
func (r *DomainRepository) FindByName(ctx context.Context, name string) (*models.Domain, error) {
	var domain models.Domain
	if err := r.db.GetContext(ctx, &domain, "SELECT id, name FROM domains WHERE name = $1", name); err != nil {
		return nil, err
	}
	return &domain, nil
}

// FindByID fetches a domain.
func (r *DomainRepository) FindByID(ctx context.Context, id int64) (*models.Domain, error) {
	var domain models.Domain
	if err := r.db.GetContext(ctx, &domain, "SELECT id, name FROM domains WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &domain, nil
}

// Create inserts a domain and assigns its id.
func (r *DomainRepository) Create(ctx context.Context, domain *models.Domain) error {
	if err := r.db.GetContext(ctx, &domain.ID, "INSERT INTO domains (name) VALUES ($1) RETURNING id", domain.Name); err != nil {
		return fmt.Errorf("create domain: %w", err)
	}
	return nil
}
