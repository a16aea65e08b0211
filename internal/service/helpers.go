package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/program-catalog-api/pkg/database"
	appErrors "github.com/noah-isme/program-catalog-api/pkg/errors"
	"github.com/noah-isme/program-catalog-api/pkg/events"
)

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func validationError(err error, message string) error {
	if err == nil {
		return appErrors.Clone(appErrors.ErrValidation, message)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// loadError maps a repository lookup failure to NotFound or Internal.
func loadError(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
	}
	return internalError(err, "failed to load "+what)
}

// writeError maps a repository write failure, surfacing unique violations as Conflict.
func writeError(err error, message string) error {
	if database.IsUniqueViolation(err) {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message+": duplicate value")
	}
	return internalError(err, "failed to "+message)
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func publishEvent(ctx context.Context, publisher events.Publisher, metrics *MetricsService, logger *zap.Logger, topic string, payload interface{}) {
	if publisher == nil {
		return
	}
	err := publisher.Publish(ctx, topic, payload)
	metrics.RecordEventPublish(topic, err == nil)
	if err != nil {
		logger.Warn("failed to publish event", zap.String("topic", topic), zap.Error(err))
	}
}

func notFound(what string) error {
	return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
