package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/program-catalog-api/internal/models"
	appErrors "github.com/noah-isme/program-catalog-api/pkg/errors"
)

type mockAuthRepo struct {
	users     map[string]*models.User
	auditLogs []*models.AuditLog
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.users[email]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			clone := *user
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockAuthRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockAuthRepo{users: map[string]*models.User{
		"hosp@example.edu": {ID: 7, Email: "hosp@example.edu", PasswordHash: string(hash), Role: "HoSP", LecturerID: int64Ptr(3)},
		"odd@example.edu":  {ID: 8, Email: "odd@example.edu", PasswordHash: string(hash), Role: "janitor"},
	}}
	svc := NewAuthService(repo, repo, nil, nil, AuthConfig{AccessTokenSecret: "test-secret", AccessTokenExpiry: time.Hour, Issuer: "catalog-test"})
	return svc, repo
}

func TestAuthServiceLoginIssuesToken(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: " hosp@example.edu ", Password: "s3cret-pass", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.RoleHoSP, resp.Account.Role)
	require.NotNil(t, resp.Account.LecturerID)
	assert.Equal(t, int64(3), *resp.Account.LecturerID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, models.RoleHoSP, claims.Role)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, "catalog-test", claims.Issuer)

	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)
	assert.Equal(t, "10.0.0.1", repo.auditLogs[0].IPAddress)
}

func TestAuthServiceLoginRejectsBadCredentials(t *testing.T) {
	svc, repo := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "hosp@example.edu", Password: "wrong"})
	assert.True(t, isCode(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.edu", Password: "whatever"})
	assert.True(t, isCode(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "x"})
	assert.True(t, isCode(err, appErrors.ErrValidation))

	assert.Empty(t, repo.auditLogs)
}

func TestAuthServiceLoginRejectsUnknownRole(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "odd@example.edu", Password: "s3cret-pass"})
	assert.True(t, isCode(err, appErrors.ErrForbidden))
}

func TestAuthServiceValidateTokenRejectsForeignTokens(t *testing.T) {
	svc, _ := newAuthFixture(t)

	claims := &models.JWTClaims{UserID: 7, Role: models.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	assert.True(t, isCode(err, appErrors.ErrUnauthorized))

	expired := &models.JWTClaims{UserID: 7, Role: models.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	stale, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(stale)
	assert.True(t, isCode(err, appErrors.ErrUnauthorized))

	badRole := &models.JWTClaims{UserID: 7, Role: "root", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	odd, err := jwt.NewWithClaims(jwt.SigningMethodHS256, badRole).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(odd)
	assert.True(t, isCode(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceMe(t *testing.T) {
	svc, _ := newAuthFixture(t)

	info, err := svc.Me(context.Background(), &models.JWTClaims{UserID: 7})
	require.NoError(t, err)
	assert.Equal(t, "hosp@example.edu", info.Email)

	_, err = svc.Me(context.Background(), &models.JWTClaims{UserID: 404})
	assert.True(t, isCode(err, appErrors.ErrUnauthorized))
}
