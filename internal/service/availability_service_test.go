package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/program-catalog-api/internal/models"
	appErrors "github.com/noah-isme/program-catalog-api/pkg/errors"
	"github.com/noah-isme/program-catalog-api/pkg/events"
)

func newAvailabilityFixture() (*AvailabilityService, *memAvailability, *recordingPublisher) {
	repo := newMemAvailability()
	lecturers := newMemLecturers(models.Lecturer{ID: 1}, models.Lecturer{ID: 2})
	publisher := &recordingPublisher{}
	svc := NewAvailabilityService(repo, lecturers, publisher, nil, newTestAuthorizer(newMemPrograms()), nil)
	return svc, repo, publisher
}

func TestAvailabilityOverwriteKeepsSingleRow(t *testing.T) {
	svc, repo, publisher := newAvailabilityFixture()
	ctx := context.Background()

	first, err := svc.Set(ctx, lecturerActor(1), 1, SetAvailabilityRequest{ScheduleData: json.RawMessage(`{"mon":["09:00-12:00"]}`)})
	require.NoError(t, err)
	second, err := svc.Set(ctx, lecturerActor(1), 1, SetAvailabilityRequest{ScheduleData: json.RawMessage(`{"tue":["13:00-17:00"]}`)})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	rows, err := svc.List(ctx, adminActor)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.JSONEq(t, `{"tue":["13:00-17:00"]}`, string(rows[0].ScheduleData))
	assert.Len(t, repo.rows, 1)

	require.Len(t, publisher.events, 2)
	assert.Equal(t, events.TopicAvailabilityChanged, publisher.events[1].topic)
}

func TestAvailabilityConcurrentSetsNeverDuplicate(t *testing.T) {
	svc, repo, _ := newAvailabilityFixture()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Set(ctx, adminActor, 2, SetAvailabilityRequest{ScheduleData: json.RawMessage(`[]`)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, repo.rows, 1)
}

func TestAvailabilityUniqueViolationIsConflict(t *testing.T) {
	svc, repo, _ := newAvailabilityFixture()
	repo.upsertErr = &pq.Error{Code: "23505"}

	_, err := svc.Set(context.Background(), adminActor, 1, SetAvailabilityRequest{ScheduleData: json.RawMessage(`{}`)})
	assert.True(t, isCode(err, appErrors.ErrConflict))
}

func TestAvailabilityPermissions(t *testing.T) {
	svc, _, _ := newAvailabilityFixture()
	ctx := context.Background()
	payload := SetAvailabilityRequest{ScheduleData: json.RawMessage(`{}`)}

	_, err := svc.Set(ctx, lecturerActor(1), 2, payload)
	assert.True(t, isCode(err, appErrors.ErrForbidden))

	_, err = svc.Set(ctx, hospActor(1), 1, payload)
	require.NoError(t, err)

	_, err = svc.Set(ctx, studentActor, 404, payload)
	assert.True(t, isCode(err, appErrors.ErrNotFound), "lookup precedes authorization")

	_, err = svc.Get(ctx, lecturerActor(2), 1)
	assert.True(t, isCode(err, appErrors.ErrForbidden))

	_, err = svc.List(ctx, studentActor)
	assert.True(t, isCode(err, appErrors.ErrForbidden))

	assert.True(t, isCode(svc.Delete(ctx, lecturerActor(2), 1), appErrors.ErrForbidden))
}

func TestAvailabilityPayloadShape(t *testing.T) {
	svc, _, _ := newAvailabilityFixture()
	ctx := context.Background()

	for _, raw := range []string{``, `"monday"`, `42`, `{"broken":`} {
		_, err := svc.Set(ctx, adminActor, 1, SetAvailabilityRequest{ScheduleData: json.RawMessage(raw)})
		assert.True(t, isCode(err, appErrors.ErrValidation), "payload %q", raw)
	}
}

func TestAvailabilityGetDefaultsAndSelfList(t *testing.T) {
	svc, _, _ := newAvailabilityFixture()
	ctx := context.Background()

	empty, err := svc.Get(ctx, lecturerActor(2), 2)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(empty.ScheduleData))
	assert.Zero(t, empty.ID)

	_, err = svc.Set(ctx, adminActor, 1, SetAvailabilityRequest{ScheduleData: json.RawMessage(`{"a":1}`)})
	require.NoError(t, err)
	_, err = svc.Set(ctx, adminActor, 2, SetAvailabilityRequest{ScheduleData: json.RawMessage(`{"b":2}`)})
	require.NoError(t, err)

	own, err := svc.List(ctx, lecturerActor(2))
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, int64(2), own[0].LecturerID)

	require.NoError(t, svc.Delete(ctx, lecturerActor(2), 2))
	require.NoError(t, svc.Delete(ctx, lecturerActor(2), 2))
	own, err = svc.List(ctx, lecturerActor(2))
	require.NoError(t, err)
	assert.Empty(t, own)
}
