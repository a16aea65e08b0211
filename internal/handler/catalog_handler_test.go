package handler

import (
	"context"
	"errors"
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

type domainServiceMock struct {
	existing map[string]models.Domain
}

func (m *domainServiceMock) List(ctx context.Context, actor authz.Actor) ([]models.Domain, error) {
	return nil, nil
}

func (m *domainServiceMock) Create(ctx context.Context, actor authz.Actor, req service.CreateDomainRequest) (*models.Domain, bool, error) {
	if d, ok := m.existing[req.Name]; ok {
		return &d, false, nil
	}
	return &models.Domain{ID: 99, Name: req.Name}, true, nil
}

func TestDomainHandlerCreateStatus(t *testing.T) {
	h := NewDomainHandler(&domainServiceMock{existing: map[string]models.Domain{"AI": {ID: 4, Name: "AI"}}})

	c, w := newTestContext(http.MethodPost, "/domains", map[string]string{"name": "Networks"}, lecturerClaims(7))
	h.Create(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	c, w = newTestContext(http.MethodPost, "/domains", map[string]string{"name": "AI"}, lecturerClaims(7))
	h.Create(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":4,"name":"AI"}`, string(decodeEnvelope(t, w).Data))
}

type moduleServiceMock struct {
	filter models.ModuleFilter
	code   string
}

func (m *moduleServiceMock) List(ctx context.Context, actor authz.Actor, filter models.ModuleFilter) ([]models.Module, error) {
	m.filter = filter
	return []models.Module{}, nil
}

func (m *moduleServiceMock) Get(ctx context.Context, actor authz.Actor, code string) (*models.Module, error) {
	m.code = code
	return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
}

func (m *moduleServiceMock) Create(ctx context.Context, actor authz.Actor, req service.CreateModuleRequest) (*models.Module, error) {
	return &models.Module{ModuleCode: req.ModuleCode}, nil
}

func (m *moduleServiceMock) Update(ctx context.Context, actor authz.Actor, code string, req service.UpdateModuleRequest) (*models.Module, error) {
	m.code = code
	return &models.Module{ModuleCode: code}, nil
}

func (m *moduleServiceMock) Delete(ctx context.Context, actor authz.Actor, code string) error {
	m.code = code
	return nil
}

func TestModuleHandlerListProgramFilter(t *testing.T) {
	mock := &moduleServiceMock{}
	h := NewModuleHandler(mock)
	c, w := newTestContext(http.MethodGet, "/modules?program_id=3", nil, adminClaims())

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.filter.ProgramID)
	assert.Equal(t, int64(3), *mock.filter.ProgramID)
}

func TestModuleHandlerGetByCode(t *testing.T) {
	mock := &moduleServiceMock{}
	h := NewModuleHandler(mock)
	c, w := newTestContext(http.MethodGet, "/modules/CS101", nil, adminClaims())
	c.Params = gin.Params{{Key: "code", Value: "CS101"}}

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "CS101", mock.code)
}

func TestModuleHandlerBlankCode(t *testing.T) {
	mock := &moduleServiceMock{}
	h := NewModuleHandler(mock)
	c, w := newTestContext(http.MethodDelete, "/modules/%20", nil, adminClaims())
	c.Params = gin.Params{{Key: "code", Value: " "}}

	h.Delete(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, mock.code)
}

type availabilityServiceMock struct {
	lecturerID int64
	req        service.SetAvailabilityRequest
}

func (m *availabilityServiceMock) List(ctx context.Context, actor authz.Actor) ([]models.LecturerAvailability, error) {
	return []models.LecturerAvailability{}, nil
}

func (m *availabilityServiceMock) Get(ctx context.Context, actor authz.Actor, lecturerID int64) (*models.LecturerAvailability, error) {
	m.lecturerID = lecturerID
	return &models.LecturerAvailability{LecturerID: lecturerID}, nil
}

func (m *availabilityServiceMock) Set(ctx context.Context, actor authz.Actor, lecturerID int64, req service.SetAvailabilityRequest) (*models.LecturerAvailability, error) {
	m.lecturerID, m.req = lecturerID, req
	return &models.LecturerAvailability{LecturerID: lecturerID}, nil
}

func (m *availabilityServiceMock) Delete(ctx context.Context, actor authz.Actor, lecturerID int64) error {
	m.lecturerID = lecturerID
	return nil
}

func TestAvailabilityHandlerSetUsesLecturerParam(t *testing.T) {
	mock := &availabilityServiceMock{}
	h := NewAvailabilityHandler(mock)
	c, w := newTestContext(http.MethodPut, "/availabilities/7", `{"schedule_data":{"mon":["08:00-10:00"]}}`, lecturerClaims(7))
	c.Params = gin.Params{{Key: "lecturerId", Value: "7"}}

	h.Set(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), mock.lecturerID)
	assert.JSONEq(t, `{"mon":["08:00-10:00"]}`, string(mock.req.ScheduleData))
}

func TestAvailabilityHandlerGetBadParam(t *testing.T) {
	mock := &availabilityServiceMock{}
	h := NewAvailabilityHandler(mock)
	c, w := newTestContext(http.MethodGet, "/availabilities/-1", nil, adminClaims())
	c.Params = gin.Params{{Key: "lecturerId", Value: "-1"}}

	h.Get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, mock.lecturerID)
}

type authServiceMock struct {
	login models.LoginRequest
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.login = req
	if req.Password != "secret123" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.LoginResponse{AccessToken: "token", TokenType: "Bearer"}, nil
}

func (m *authServiceMock) Me(ctx context.Context, claims *models.JWTClaims) (*models.AccountInfo, error) {
	return &models.AccountInfo{ID: claims.UserID, Role: claims.Role}, nil
}

func TestAuthHandlerLoginCapturesClient(t *testing.T) {
	mock := &authServiceMock{}
	h := NewAuthHandler(mock)
	c, w := newTestContext(http.MethodPost, "/auth/login", map[string]string{"email": "a@campus.test", "password": "secret123"}, nil)
	c.Request.Header.Set("User-Agent", "catalog-test")
	c.Request.RemoteAddr = "10.0.0.5:4000"

	h.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "catalog-test", mock.login.UserAgent)
	assert.Equal(t, "10.0.0.5", mock.login.IP)
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{})
	c, w := newTestContext(http.MethodPost, "/auth/login", map[string]string{"email": "a@campus.test", "password": "nope"}, nil)

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, decodeEnvelope(t, w).Error.Code)
}

func TestAuthHandlerMeWithoutClaims(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{})
	c, w := newTestContext(http.MethodGet, "/auth/me", nil, nil)

	h.Me(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	healthy := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"database": func(ctx context.Context) error { return nil },
	})
	c, w := newTestContext(http.MethodGet, "/ready", nil, nil)
	healthy.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	failing := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"database": func(ctx context.Context) error { return nil },
		"cache":    func(ctx context.Context) error { return errors.New("connection refused") },
	})
	c, w = newTestContext(http.MethodGet, "/ready", nil, nil)
	failing.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestMetricsHandlerPrometheusWithoutRegistry(t *testing.T) {
	h := NewMetricsHandler(nil, nil)
	c, w := newTestContext(http.MethodGet, "/metrics", nil, nil)

	h.Prometheus(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
