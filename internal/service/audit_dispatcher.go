package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/program-catalog-api/internal/models"
	"github.com/noah-isme/program-catalog-api/pkg/jobs"
)

const auditWriteTimeout = 5 * time.Second

// AuditDispatcher moves audit writes off the request path onto a worker queue.
type AuditDispatcher struct {
	queue  *jobs.Queue[models.AuditLog]
	logger *zap.Logger
}

// NewAuditDispatcher wires store behind a queue. Call Start before serving
// traffic and Stop on shutdown to flush buffered entries.
func NewAuditDispatcher(store auditWriter, cfg jobs.QueueConfig) *AuditDispatcher {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	handler := func(ctx context.Context, entry models.AuditLog) error {
		ctx, cancel := context.WithTimeout(ctx, auditWriteTimeout)
		defer cancel()
		return store.Create(ctx, &entry)
	}
	return &AuditDispatcher{
		queue:  jobs.NewQueue("audit", handler, cfg),
		logger: cfg.Logger,
	}
}

// Start launches the audit workers.
func (d *AuditDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop flushes pending entries.
func (d *AuditDispatcher) Stop() {
	d.queue.Stop()
}

// Create timestamps entry and enqueues a copy. It never blocks.
func (d *AuditDispatcher) Create(_ context.Context, entry *models.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := d.queue.TryEnqueue(*entry); err != nil {
		d.logger.Warn("audit entry dropped", zap.String("resource", entry.Resource), zap.Error(err))
		return err
	}
	return nil
}
