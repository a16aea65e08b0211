package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/program-catalog-api/internal/authz"
	appErrors "github.com/noah-isme/program-catalog-api/pkg/errors"
)

// Authorizer is the permission gate every catalog service consults.
type Authorizer interface {
	Precheck(actor authz.Actor, action authz.Action, resource authz.Resource) error
	Authorize(ctx context.Context, actor authz.Actor, action authz.Action, resource authz.Resource, target authz.Target) error
	ReadScope(actor authz.Actor, resource authz.Resource) authz.ReadScope
	WritableFields(actor authz.Actor, resource authz.Resource) authz.FieldSet
}

// InstrumentedAuthorizer counts decisions and logs denials around another Authorizer.
type InstrumentedAuthorizer struct {
	next    Authorizer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewInstrumentedAuthorizer wraps next.
func NewInstrumentedAuthorizer(next Authorizer, metrics *MetricsService, logger *zap.Logger) *InstrumentedAuthorizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedAuthorizer{next: next, metrics: metrics, logger: logger}
}

// Precheck implements Authorizer. Only denials are counted here; a passing
// precheck is followed by Authorize, which records the final decision.
func (a *InstrumentedAuthorizer) Precheck(actor authz.Actor, action authz.Action, resource authz.Resource) error {
	err := a.next.Precheck(actor, action, resource)
	if err != nil {
		a.record(actor, action, resource, err)
	}
	return err
}

// Authorize implements Authorizer.
func (a *InstrumentedAuthorizer) Authorize(ctx context.Context, actor authz.Actor, action authz.Action, resource authz.Resource, target authz.Target) error {
	err := a.next.Authorize(ctx, actor, action, resource, target)
	a.record(actor, action, resource, err)
	return err
}

func (a *InstrumentedAuthorizer) record(actor authz.Actor, action authz.Action, resource authz.Resource, err error) {
	result := "allow"
	switch {
	case err == nil:
	case appErrors.IsCode(err, appErrors.ErrForbidden.Code):
		result = "deny"
		a.logger.Debug("authorization denied",
			zap.Int64("account_id", actor.AccountID),
			zap.String("role", string(actor.Role)),
			zap.String("action", string(action)),
			zap.String("resource", string(resource)),
			zap.Error(err),
		)
	default:
		result = "error"
		a.logger.Warn("authorization failed", zap.String("resource", string(resource)), zap.Error(err))
	}
	a.metrics.RecordAuthzDecision(string(resource), string(action), result)
}

// ReadScope implements Authorizer.
func (a *InstrumentedAuthorizer) ReadScope(actor authz.Actor, resource authz.Resource) authz.ReadScope {
	return a.next.ReadScope(actor, resource)
}

// WritableFields implements Authorizer.
func (a *InstrumentedAuthorizer) WritableFields(actor authz.Actor, resource authz.Resource) authz.FieldSet {
	return a.next.WritableFields(actor, resource)
}
