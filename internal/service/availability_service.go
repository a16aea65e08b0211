package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/program-catalog-api/internal/authz"
	"github.com/noah-isme/program-catalog-api/internal/models"
	appErrors "github.com/noah-isme/program-catalog-api/pkg/errors"
	"github.com/noah-isme/program-catalog-api/pkg/events"
)

type availabilityRepository interface {
	GetByLecturer(ctx context.Context, lecturerID int64) (*models.LecturerAvailability, error)
	List(ctx context.Context, lecturerID *int64) ([]models.LecturerAvailability, error)
	Upsert(ctx context.Context, availability *models.LecturerAvailability) error
	Delete(ctx context.Context, lecturerID int64) error
}

// SetAvailabilityRequest replaces a lecturer's availability wholesale.
type SetAvailabilityRequest struct {
	ScheduleData json.RawMessage `json:"schedule_data" swaggertype:"object"`
}

// AvailabilityService keeps at most one availability record per lecturer.
// Writes are last-writer-wins and no history is kept.
type AvailabilityService struct {
	repo      availabilityRepository
	lecturers lecturerExistence
	publisher events.Publisher
	metrics   *MetricsService
	authz     Authorizer
	logger    *zap.Logger
}

// NewAvailabilityService constructs an AvailabilityService. publisher may be nil.
func NewAvailabilityService(repo availabilityRepository, lecturers lecturerExistence, publisher events.Publisher, metrics *MetricsService, authorizer Authorizer, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{repo: repo, lecturers: lecturers, publisher: publisher, metrics: metrics, authz: authorizer, logger: logger}
}

// Set creates or overwrites the availability of a lecturer in one statement.
func (s *AvailabilityService) Set(ctx context.Context, actor authz.Actor, lecturerID int64, req SetAvailabilityRequest) (*models.LecturerAvailability, error) {
	if err := s.ensureLecturer(ctx, lecturerID); err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, authz.ActionUpdate, authz.ResourceAvailability, authz.Target{LecturerID: &lecturerID}); err != nil {
		return nil, err
	}
	data, err := normalizeSchedule(req.ScheduleData)
	if err != nil {
		return nil, err
	}

	availability := &models.LecturerAvailability{LecturerID: lecturerID, ScheduleData: data}
	if err := s.repo.Upsert(ctx, availability); err != nil {
		return nil, writeError(err, "save availability")
	}
	s.publish(ctx, actor, events.OpUpdated, lecturerID)
	return availability, nil
}

// Get returns the stored availability, or an empty record when none exists.
func (s *AvailabilityService) Get(ctx context.Context, actor authz.Actor, lecturerID int64) (*models.LecturerAvailability, error) {
	if err := s.authz.Authorize(ctx, actor, authz.ActionRead, authz.ResourceAvailability, authz.Target{LecturerID: &lecturerID}); err != nil {
		return nil, err
	}
	availability, err := s.repo.GetByLecturer(ctx, lecturerID)
	if err != nil {
		if isNoRows(err) {
			return &models.LecturerAvailability{LecturerID: lecturerID, ScheduleData: []byte("{}")}, nil
		}
		return nil, internalError(err, "failed to load availability")
	}
	return availability, nil
}

// List returns every availability record, or only the caller's own under self scope.
func (s *AvailabilityService) List(ctx context.Context, actor authz.Actor) ([]models.LecturerAvailability, error) {
	var onlyID *int64
	switch s.authz.ReadScope(actor, authz.ResourceAvailability) {
	case authz.ReadAll:
	case authz.ReadSelf:
		if actor.LecturerID == nil {
			return []models.LecturerAvailability{}, nil
		}
		onlyID = actor.LecturerID
	default:
		return nil, appErrors.Forbidden("no read access to availabilities")
	}
	records, err := s.repo.List(ctx, onlyID)
	if err != nil {
		return nil, internalError(err, "failed to list availabilities")
	}
	return records, nil
}

// Delete removes a lecturer's availability. Deleting an absent record succeeds.
func (s *AvailabilityService) Delete(ctx context.Context, actor authz.Actor, lecturerID int64) error {
	if err := s.authz.Authorize(ctx, actor, authz.ActionDelete, authz.ResourceAvailability, authz.Target{LecturerID: &lecturerID}); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, lecturerID); err != nil {
		return internalError(err, "failed to delete availability")
	}
	s.publish(ctx, actor, events.OpDeleted, lecturerID)
	return nil
}

func (s *AvailabilityService) ensureLecturer(ctx context.Context, id int64) error {
	ok, err := s.lecturers.Exists(ctx, id)
	if err != nil {
		return internalError(err, "failed to load lecturer")
	}
	if !ok {
		return notFound("lecturer")
	}
	return nil
}

func (s *AvailabilityService) publish(ctx context.Context, actor authz.Actor, op string, lecturerID int64) {
	publishEvent(ctx, s.publisher, s.metrics, s.logger, events.TopicAvailabilityChanged, events.AvailabilityChanged{
		LecturerID: lecturerID,
		Operation:  op,
		ActorID:    actor.AccountID,
		OccurredAt: time.Now().UTC(),
	})
}

// normalizeSchedule accepts a JSON object or array.
func normalizeSchedule(raw json.RawMessage) ([]byte, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, validationError(nil, "schedule_data is required")
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return nil, validationError(nil, "schedule_data must be a JSON object or array")
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, validationError(nil, "schedule_data is not valid JSON")
	}
	return []byte(trimmed), nil
}
