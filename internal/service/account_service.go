package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/program-catalog-api/internal/authz"
	"github.com/noah-isme/program-catalog-api/internal/models"
	appErrors "github.com/noah-isme/program-catalog-api/pkg/errors"
)

type accountRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) error
}

type lecturerExistence interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// CreateAccountRequest is the payload for provisioning an account.
type CreateAccountRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Role       string `json:"role" validate:"required"`
	LecturerID *int64 `json:"lecturer_id"`
}

// AccountService provisions login accounts.
type AccountService struct {
	repo      accountRepository
	lecturers lecturerExistence
	authz     Authorizer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAccountService constructs an AccountService.
func NewAccountService(repo accountRepository, lecturers lecturerExistence, authorizer Authorizer, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{repo: repo, lecturers: lecturers, authz: authorizer, validator: validate, logger: logger}
}

// List returns accounts, optionally filtered by role.
func (s *AccountService) List(ctx context.Context, actor authz.Actor, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceAccount, authz.Target{}); err != nil {
		return nil, nil, err
	}
	if filter.Role != nil {
		role, err := models.ParseRole(string(*filter.Role))
		if err != nil {
			return nil, nil, validationError(err, "invalid role filter")
		}
		filter.Role = &role
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list accounts")
	}
	page, size := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create provisions an account with a bcrypt-hashed password.
func (s *AccountService) Create(ctx context.Context, actor authz.Actor, req CreateAccountRequest) (*models.User, error) {
	if err := s.authz.Authorize(ctx, actor, authz.ActionCreate, authz.ResourceAccount, authz.Target{}); err != nil {
		return nil, err
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid account payload")
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, validationError(err, "invalid account role")
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, internalError(err, "failed to check email")
	}
	if exists {
		return nil, validationError(nil, "email already registered")
	}

	if req.LecturerID != nil {
		ok, err := s.lecturers.Exists(ctx, *req.LecturerID)
		if err != nil {
			return nil, internalError(err, "failed to load lecturer")
		}
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError(err, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		LecturerID:   req.LecturerID,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, writeError(err, "create account")
	}
	s.logger.Info("account created", zap.Int64("account_id", user.ID), zap.String("role", string(role)))
	return user, nil
}
