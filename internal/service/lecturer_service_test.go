package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/program-catalog-api/internal/models"
	appErrors "github.com/noah-isme/program-catalog-api/pkg/errors"
)

type stubDomains struct {
	items map[int64]models.Domain
}

func (s *stubDomains) FindByID(ctx context.Context, id int64) (*models.Domain, error) {
	if d, ok := s.items[id]; ok {
		return &d, nil
	}
	return nil, errNoRows()
}

func newLecturerFixture() (*LecturerService, *memLecturers, *memModules) {
	lecturers := newMemLecturers(
		models.Lecturer{ID: 1, FirstName: "Grace", Title: "Dr.", EmploymentType: "full-time", Phone: strPtr("111")},
		models.Lecturer{ID: 2, FirstName: "Alan", Title: "Prof.", EmploymentType: "part-time"},
	)
	modules := newMemModules(models.Module{ModuleCode: "CS101"}, models.Module{ModuleCode: "CS102"})
	domains := &stubDomains{items: map[int64]models.Domain{1: {ID: 1, Name: "AI"}}}
	svc := NewLecturerService(lecturers, domains, modules, newTestAuthorizer(newMemPrograms()), nil, nil)
	return svc, lecturers, modules
}

func TestLecturerSelfUpdateDropsFieldsOutsideAllowList(t *testing.T) {
	svc, lecturers, _ := newLecturerFixture()

	updated, err := svc.Update(context.Background(), lecturerActor(1), 1, UpdateLecturerRequest{
		FirstName: strPtr("Mallory"),
		Phone:     strPtr("+46 555 0100"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Grace", updated.FirstName)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "+46 555 0100", *updated.Phone)
	assert.Equal(t, "Grace", lecturers.items[1].FirstName)
}

func TestLecturerSelfUpdateWithOnlyForbiddenFieldsIsNoop(t *testing.T) {
	svc, lecturers, _ := newLecturerFixture()

	updated, err := svc.Update(context.Background(), lecturerActor(1), 1, UpdateLecturerRequest{Title: strPtr("Prof.")})
	require.NoError(t, err)
	assert.Equal(t, "Dr.", updated.Title)
	assert.Zero(t, lecturers.updates)
}

func TestLecturerUpdateOfAnotherProfileIsForbidden(t *testing.T) {
	svc, _, _ := newLecturerFixture()

	_, err := svc.Update(context.Background(), lecturerActor(1), 2, UpdateLecturerRequest{Phone: strPtr("222")})
	assert.True(t, isCode(err, appErrors.ErrForbidden))

	_, err = svc.Update(context.Background(), hospActor(1), 1, UpdateLecturerRequest{Phone: strPtr("222")})
	assert.True(t, isCode(err, appErrors.ErrForbidden))
}

func TestLecturerUpdateReportsNotFoundBeforeForbidden(t *testing.T) {
	svc, _, _ := newLecturerFixture()

	_, err := svc.Update(context.Background(), studentActor, 404, UpdateLecturerRequest{Phone: strPtr("1")})
	assert.True(t, isCode(err, appErrors.ErrNotFound))
}

func TestLecturerAdminUpdateAppliesEveryField(t *testing.T) {
	svc, _, _ := newLecturerFixture()

	updated, err := svc.Update(context.Background(), adminActor, 2, UpdateLecturerRequest{
		FirstName: strPtr(" Alan M. "),
		DomainID:  int64Ptr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alan M.", updated.FirstName)
	require.NotNil(t, updated.DomainID)

	_, err = svc.Update(context.Background(), adminActor, 2, UpdateLecturerRequest{DomainID: int64Ptr(77)})
	assert.True(t, isCode(err, appErrors.ErrNotFound))
}

func TestLecturerListHonoursReadScope(t *testing.T) {
	svc, _, _ := newLecturerFixture()
	ctx := context.Background()

	all, err := svc.List(ctx, adminActor)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := svc.List(ctx, lecturerActor(2))
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, int64(2), own[0].ID)

	_, err = svc.Get(ctx, lecturerActor(2), 1)
	assert.True(t, isCode(err, appErrors.ErrForbidden))

	students, err := svc.List(ctx, studentActor)
	require.NoError(t, err)
	assert.Len(t, students, 2)
}

func TestLecturerCreateAndDelete(t *testing.T) {
	svc, lecturers, _ := newLecturerFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, pmActor, CreateLecturerRequest{FirstName: "Barbara", Title: "Dr.", EmploymentType: "full-time"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	_, err = svc.Create(ctx, hospActor(1), CreateLecturerRequest{FirstName: "X", Title: "Dr.", EmploymentType: "full-time"})
	assert.True(t, isCode(err, appErrors.ErrForbidden))

	require.NoError(t, svc.Delete(ctx, adminActor, created.ID))
	require.NoError(t, svc.Delete(ctx, adminActor, created.ID))
	assert.NotContains(t, lecturers.items, created.ID)
}

func TestLecturerAssignModules(t *testing.T) {
	svc, lecturers, _ := newLecturerFixture()
	ctx := context.Background()

	updated, err := svc.AssignModules(ctx, adminActor, 1, AssignModulesRequest{ModuleCodes: []string{"CS101", " CS101", "CS102"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"CS101", "CS102"}, updated.ModuleCodes)
	assert.Equal(t, []string{"CS101", "CS102"}, lecturers.modules[1])

	_, err = svc.AssignModules(ctx, adminActor, 1, AssignModulesRequest{ModuleCodes: []string{"NOPE1"}})
	assert.True(t, isCode(err, appErrors.ErrNotFound))

	_, err = svc.AssignModules(ctx, lecturerActor(1), 1, AssignModulesRequest{ModuleCodes: []string{"CS101"}})
	assert.True(t, isCode(err, appErrors.ErrForbidden))
}
