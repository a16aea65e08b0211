package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/program-catalog-api/internal/models"
	"github.com/noah-isme/program-catalog-api/pkg/jobs"
)

type memAuditStore struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (m *memAuditStore) Create(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *log)
	return nil
}

func TestAuditDispatcherFlushesOnStop(t *testing.T) {
	store := &memAuditStore{}
	dispatcher := NewAuditDispatcher(store, jobs.QueueConfig{Workers: 2})
	dispatcher.Start(context.Background())

	for _, resource := range []string{"rooms", "modules", "lecturers"} {
		entry := &models.AuditLog{Action: models.AuditActionCreate, Resource: resource}
		require.NoError(t, dispatcher.Create(context.Background(), entry))
		assert.False(t, entry.CreatedAt.IsZero())
	}
	dispatcher.Stop()

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.entries, 3)
	resources := []string{store.entries[0].Resource, store.entries[1].Resource, store.entries[2].Resource}
	assert.ElementsMatch(t, []string{"rooms", "modules", "lecturers"}, resources)
}

func TestAuditDispatcherRejectsBeforeStart(t *testing.T) {
	dispatcher := NewAuditDispatcher(&memAuditStore{}, jobs.QueueConfig{})
	assert.Error(t, dispatcher.Create(context.Background(), &models.AuditLog{Resource: "rooms"}))
}
