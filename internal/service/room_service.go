package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/program-catalog-api/internal/authz"
	"github.com/noah-isme/program-catalog-api/internal/models"
	"github.com/noah-isme/program-catalog-api/pkg/cache"
)

type roomRepository interface {
	List(ctx context.Context) ([]models.Room, error)
	FindByID(ctx context.Context, id int64) (*models.Room, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id int64) error
}

// CreateRoomRequest is the payload for creating a room.
type CreateRoomRequest struct {
	Name      string  `json:"name" validate:"required,max=100"`
	Capacity  int     `json:"capacity" validate:"min=0"`
	Type      string  `json:"type" validate:"required"`
	Status    *bool   `json:"status"`
	Equipment *string `json:"equipment"`
	Location  *string `json:"location"`
}

// UpdateRoomRequest is a partial update. Nil fields are left unchanged.
type UpdateRoomRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=100"`
	Capacity  *int    `json:"capacity" validate:"omitempty,min=0"`
	Type      *string `json:"type" validate:"omitempty,min=1"`
	Status    *bool   `json:"status"`
	Equipment *string `json:"equipment"`
	Location  *string `json:"location"`
}

var roomListKey = cache.Key("rooms")

// RoomService manages rooms. Listings are served through the cache.
type RoomService struct {
	repo      roomRepository
	cache     *ListingCache
	authz     Authorizer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService constructs a RoomService. cache may be nil.
func NewRoomService(repo roomRepository, cacheSvc *ListingCache, authorizer Authorizer, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{repo: repo, cache: cacheSvc, authz: authorizer, validator: validate, logger: logger}
}

// List returns every room.
func (s *RoomService) List(ctx context.Context, actor authz.Actor) ([]models.Room, error) {
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceRoom, authz.Target{}); err != nil {
		return nil, err
	}
	rooms, err := Remember(ctx, s.cache, roomListKey, s.repo.List)
	if err != nil {
		return nil, internalError(err, "failed to list rooms")
	}
	return rooms, nil
}

// Get returns one room.
func (s *RoomService) Get(ctx context.Context, actor authz.Actor, id int64) (*models.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "room")
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceRoom, authz.Target{}); err != nil {
		return nil, err
	}
	return room, nil
}

// Create stores a room with a unique name.
func (s *RoomService) Create(ctx context.Context, actor authz.Actor, req CreateRoomRequest) (*models.Room, error) {
	if err := s.authz.Authorize(ctx, actor, authz.ActionCreate, authz.ResourceRoom, authz.Target{}); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid room payload")
	}
	if err := s.ensureUniqueName(ctx, req.Name, 0); err != nil {
		return nil, err
	}

	room := &models.Room{
		Name:      req.Name,
		Capacity:  req.Capacity,
		Type:      strings.TrimSpace(req.Type),
		Status:    true,
		Equipment: normalizeOptional(req.Equipment),
		Location:  normalizeOptional(req.Location),
	}
	if req.Status != nil {
		room.Status = *req.Status
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, writeError(err, "create room")
	}
	s.invalidate(ctx)
	return room, nil
}

// Update applies a partial update to a room.
func (s *RoomService) Update(ctx context.Context, actor authz.Actor, id int64, req UpdateRoomRequest) (*models.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "room")
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionUpdate, authz.ResourceRoom, authz.Target{}); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid room payload")
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := s.ensureUniqueName(ctx, name, id); err != nil {
			return nil, err
		}
		room.Name = name
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.Type != nil {
		room.Type = strings.TrimSpace(*req.Type)
	}
	if req.Status != nil {
		room.Status = *req.Status
	}
	if req.Equipment != nil {
		room.Equipment = normalizeOptional(req.Equipment)
	}
	if req.Location != nil {
		room.Location = normalizeOptional(req.Location)
	}
	if err := s.repo.Update(ctx, room); err != nil {
		return nil, writeError(err, "update room")
	}
	s.invalidate(ctx)
	return room, nil
}

// Delete removes a room. Deleting an absent room succeeds.
func (s *RoomService) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	if err := s.authz.Authorize(ctx, actor, authz.ActionDelete, authz.ResourceRoom, authz.Target{}); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return internalError(err, "failed to delete room")
	}
	s.invalidate(ctx)
	return nil
}

func (s *RoomService) ensureUniqueName(ctx context.Context, name string, excludeID int64) error {
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return internalError(err, "failed to check room name")
	}
	if exists {
		return validationError(nil, "room name already exists")
	}
	return nil
}

func (s *RoomService) invalidate(ctx context.Context) {
	s.cache.InvalidatePrefix(ctx, roomListKey)
}
