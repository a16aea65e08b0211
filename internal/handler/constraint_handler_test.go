package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/program-catalog-api/internal/authz"
	"github.com/noah-isme/program-catalog-api/internal/models"
	"github.com/noah-isme/program-catalog-api/internal/service"
	appErrors "github.com/noah-isme/program-catalog-api/pkg/errors"
)

type constraintServiceMock struct {
	activeOnly   bool
	filter       models.ConstraintFilter
	listed       bool
	format       string
	created      service.CreateConstraintRequest
	createErr    error
	exportResult *service.ExportResult
	exportErr    error
}

func (m *constraintServiceMock) ListTypes(ctx context.Context, actor authz.Actor, activeOnly bool) ([]models.ConstraintType, error) {
	m.activeOnly = activeOnly
	return []models.ConstraintType{{ID: 1, Name: "NoFriday", Active: true}}, nil
}

func (m *constraintServiceMock) GetType(ctx context.Context, actor authz.Actor, id int64) (*models.ConstraintType, error) {
	return &models.ConstraintType{ID: id}, nil
}

func (m *constraintServiceMock) CreateType(ctx context.Context, actor authz.Actor, req service.CreateConstraintTypeRequest) (*models.ConstraintType, error) {
	return &models.ConstraintType{ID: 2, Name: req.Name}, nil
}

func (m *constraintServiceMock) UpdateType(ctx context.Context, actor authz.Actor, id int64, req service.UpdateConstraintTypeRequest) (*models.ConstraintType, error) {
	return &models.ConstraintType{ID: id}, nil
}

func (m *constraintServiceMock) ListConstraints(ctx context.Context, actor authz.Actor, filter models.ConstraintFilter) ([]models.SchedulerConstraint, error) {
	m.listed = true
	m.filter = filter
	return []models.SchedulerConstraint{}, nil
}

func (m *constraintServiceMock) GetConstraint(ctx context.Context, actor authz.Actor, id int64) (*models.SchedulerConstraint, error) {
	return &models.SchedulerConstraint{ID: id}, nil
}

func (m *constraintServiceMock) CreateConstraint(ctx context.Context, actor authz.Actor, req service.CreateConstraintRequest) (*models.SchedulerConstraint, error) {
	m.created = req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.SchedulerConstraint{ID: 3, ConstraintTypeID: req.ConstraintTypeID}, nil
}

func (m *constraintServiceMock) UpdateConstraint(ctx context.Context, actor authz.Actor, id int64, req service.UpdateConstraintRequest) (*models.SchedulerConstraint, error) {
	return &models.SchedulerConstraint{ID: id}, nil
}

func (m *constraintServiceMock) DeleteConstraint(ctx context.Context, actor authz.Actor, id int64) error {
	return nil
}

func (m *constraintServiceMock) Export(ctx context.Context, actor authz.Actor, format string) (*service.ExportResult, error) {
	m.format = format
	if m.exportErr != nil {
		return nil, m.exportErr
	}
	return m.exportResult, nil
}

func TestConstraintHandlerListTypesActiveFlag(t *testing.T) {
	mock := &constraintServiceMock{}
	h := NewConstraintHandler(mock)
	c, w := newTestContext(http.MethodGet, "/constraint-types?active=true", nil, adminClaims())

	h.ListTypes(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mock.activeOnly)
}

func TestConstraintHandlerListParsesFilters(t *testing.T) {
	mock := &constraintServiceMock{}
	h := NewConstraintHandler(mock)
	c, w := newTestContext(http.MethodGet, "/scheduler-constraints?scope=lecturer&target_id=7&type_id=2&enabled=false", nil, adminClaims())

	h.ListConstraints(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.filter.Scope)
	assert.Equal(t, models.ScopeLecturer, *mock.filter.Scope)
	require.NotNil(t, mock.filter.TargetID)
	assert.Equal(t, int64(7), *mock.filter.TargetID)
	require.NotNil(t, mock.filter.TypeID)
	assert.Equal(t, int64(2), *mock.filter.TypeID)
	require.NotNil(t, mock.filter.Enabled)
	assert.False(t, *mock.filter.Enabled)
}

func TestConstraintHandlerListRejectsUnknownScope(t *testing.T) {
	mock := &constraintServiceMock{}
	h := NewConstraintHandler(mock)
	c, w := newTestContext(http.MethodGet, "/scheduler-constraints?scope=campus", nil, adminClaims())

	h.ListConstraints(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mock.listed)
}

func TestConstraintHandlerListRejectsBadTargetID(t *testing.T) {
	mock := &constraintServiceMock{}
	h := NewConstraintHandler(mock)
	c, w := newTestContext(http.MethodGet, "/scheduler-constraints?target_id=x", nil, adminClaims())

	h.ListConstraints(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mock.listed)
}

func TestConstraintHandlerCreateKeepsRawConfig(t *testing.T) {
	mock := &constraintServiceMock{}
	h := NewConstraintHandler(mock)
	body := `{"constraint_type_id":1,"hardness":"soft","weight":4,"scope":"Lecturer","target_id":7,"config":{"day":"Fri"}}`
	c, w := newTestContext(http.MethodPost, "/scheduler-constraints", body, adminClaims())

	h.CreateConstraint(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"day":"Fri"}`, string(mock.created.Config))
	require.NotNil(t, mock.created.Weight)
	assert.Equal(t, 4, *mock.created.Weight)
}

func TestConstraintHandlerCreateValidationError(t *testing.T) {
	mock := &constraintServiceMock{createErr: appErrors.Clone(appErrors.ErrValidation, "hard constraints must not carry a weight")}
	h := NewConstraintHandler(mock)
	c, w := newTestContext(http.MethodPost, "/scheduler-constraints", `{"constraint_type_id":1,"hardness":"Hard","weight":3,"scope":"Global"}`, adminClaims())

	h.CreateConstraint(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "hard constraints must not carry a weight", decodeEnvelope(t, w).Error.Message)
}

func TestConstraintHandlerExportAttachment(t *testing.T) {
	mock := &constraintServiceMock{exportResult: &service.ExportResult{
		Filename:    "scheduler-constraints.csv",
		ContentType: "text/csv",
		Body:        []byte("id,type\n1,NoFriday\n"),
	}}
	h := NewConstraintHandler(mock)
	c, w := newTestContext(http.MethodGet, "/scheduler-constraints/export", nil, adminClaims())

	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", mock.format)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "scheduler-constraints.csv")
	assert.Equal(t, "id,type\n1,NoFriday\n", w.Body.String())
}

func TestConstraintHandlerExportBadFormat(t *testing.T) {
	mock := &constraintServiceMock{exportErr: appErrors.Clone(appErrors.ErrValidation, "invalid export format")}
	h := NewConstraintHandler(mock)
	c, w := newTestContext(http.MethodGet, "/scheduler-constraints/export?format=xlsx", nil, adminClaims())

	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "xlsx", mock.format)
}

func TestConstraintHandlerGetTypeInvalidID(t *testing.T) {
	h := NewConstraintHandler(&constraintServiceMock{})
	c, w := newTestContext(http.MethodGet, "/constraint-types/0", nil, adminClaims())
	c.Params = gin.Params{{Key: "id", Value: "0"}}

	h.GetType(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
