package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/program-catalog-api/internal/models"
	appErrors "github.com/noah-isme/program-catalog-api/pkg/errors"
)

// Lecturer 1 heads "Data Science" (program 1); program 2 has a different head.
func newCatalogPrograms() *memPrograms {
	return newMemPrograms(
		models.StudyProgram{ID: 1, Name: "Data Science", Acronym: "DS", HeadOfProgramID: int64Ptr(1)},
		models.StudyProgram{ID: 2, Name: "Software Engineering", Acronym: "SE", HeadOfProgramID: int64Ptr(2)},
	)
}

func TestSpecializationCreateAITrackScenario(t *testing.T) {
	programs := newCatalogPrograms()
	specs := newMemSpecializations()
	svc := NewSpecializationService(specs, programs, newTestAuthorizer(programs), nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, hospActor(1), CreateSpecializationRequest{ProgramID: 1, Name: "AI Track", Acronym: "AIT", StartDate: "2025-09-01"})
	require.NoError(t, err)
	assert.Equal(t, "AI Track", created.Name)
	assert.True(t, created.Status)

	_, err = svc.Create(ctx, hospActor(1), CreateSpecializationRequest{ProgramID: 2, Name: "AI Track", Acronym: "AIT", StartDate: "2025-09-01"})
	assert.True(t, isCode(err, appErrors.ErrForbidden))

	_, err = svc.Create(ctx, hospActor(1), CreateSpecializationRequest{ProgramID: 3, Name: "Ghost", Acronym: "G", StartDate: "2025-09-01"})
	assert.True(t, isCode(err, appErrors.ErrNotFound))
}

func TestSpecializationMoveRequiresBothPrograms(t *testing.T) {
	programs := newCatalogPrograms()
	specs := newMemSpecializations(models.Specialization{ID: 10, ProgramID: 1, Name: "ML", Acronym: "ML", Status: true})
	svc := NewSpecializationService(specs, programs, newTestAuthorizer(programs), nil, nil)
	ctx := context.Background()

	_, err := svc.Update(ctx, hospActor(1), 10, UpdateSpecializationRequest{ProgramID: int64Ptr(2)})
	assert.True(t, isCode(err, appErrors.ErrForbidden))

	updated, err := svc.Update(ctx, hospActor(1), 10, UpdateSpecializationRequest{Name: strPtr("Machine Learning")})
	require.NoError(t, err)
	assert.Equal(t, "Machine Learning", updated.Name)

	err = svc.Delete(ctx, hospActor(1), 10)
	assert.True(t, isCode(err, appErrors.ErrForbidden))
	require.NoError(t, svc.Delete(ctx, adminActor, 10))
	require.NoError(t, svc.Delete(ctx, adminActor, 10))
}

func TestModuleCreateRequiresOwnedProgram(t *testing.T) {
	programs := newCatalogPrograms()
	modules := newMemModules()
	specs := newMemSpecializations(models.Specialization{ID: 10, ProgramID: 1})
	svc := NewModuleService(modules, programs, specs, newTestAuthorizer(programs), nil, nil)
	ctx := context.Background()

	weight := 60
	created, err := svc.Create(ctx, hospActor(1), CreateModuleRequest{
		ModuleCode: "DS101", Name: "Statistics", ECTS: 5, RoomType: "lecture", ProgramID: int64Ptr(1),
		AssessmentBreakdown: []models.AssessmentPart{{Type: "exam", Weight: &weight}},
		SpecializationIDs:   []int64{10, 10},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, created.SpecializationIDs)
	assert.JSONEq(t, `[{"type":"exam","weight":60}]`, string(created.AssessmentBreakdown))

	_, err = svc.Create(ctx, hospActor(1), CreateModuleRequest{ModuleCode: "SE101", Name: "Design", RoomType: "lecture", ProgramID: int64Ptr(2)})
	assert.True(t, isCode(err, appErrors.ErrForbidden))

	unlinked := hospActor(1)
	unlinked.LecturerID = nil
	_, err = svc.Create(ctx, unlinked, CreateModuleRequest{ModuleCode: "DS102", Name: "Probability", RoomType: "lecture", ProgramID: int64Ptr(1)})
	assert.True(t, isCode(err, appErrors.ErrForbidden))

	_, err = svc.Create(ctx, adminActor, CreateModuleRequest{ModuleCode: "DS101", Name: "Again", RoomType: "lecture"})
	assert.True(t, isCode(err, appErrors.ErrValidation))

	_, err = svc.Create(ctx, adminActor, CreateModuleRequest{ModuleCode: "DS103", Name: "X", RoomType: "lab", SpecializationIDs: []int64{99}})
	assert.True(t, isCode(err, appErrors.ErrNotFound))

	over := 120
	_, err = svc.Create(ctx, adminActor, CreateModuleRequest{ModuleCode: "DS104", Name: "X", RoomType: "lab",
		AssessmentBreakdown: []models.AssessmentPart{{Type: "exam", Weight: &over}}})
	assert.True(t, isCode(err, appErrors.ErrValidation))
}

func TestModuleUpdateKeepsLinksUnlessReplaced(t *testing.T) {
	programs := newCatalogPrograms()
	modules := newMemModules(models.Module{ModuleCode: "DS101", Name: "Stats", ProgramID: int64Ptr(1), SpecializationIDs: []int64{10}})
	specs := newMemSpecializations(models.Specialization{ID: 10, ProgramID: 1}, models.Specialization{ID: 11, ProgramID: 1})
	svc := NewModuleService(modules, programs, specs, newTestAuthorizer(programs), nil, nil)
	ctx := context.Background()

	updated, err := svc.Update(ctx, hospActor(1), "DS101", UpdateModuleRequest{ECTS: intPtr(7)})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.ECTS)
	assert.Equal(t, []int64{10}, updated.SpecializationIDs)

	updated, err = svc.Update(ctx, hospActor(1), "DS101", UpdateModuleRequest{SpecializationIDs: []int64{11}})
	require.NoError(t, err)
	assert.Equal(t, []int64{11}, updated.SpecializationIDs)

	_, err = svc.Update(ctx, hospActor(1), "DS101", UpdateModuleRequest{ProgramID: int64Ptr(2)})
	assert.True(t, isCode(err, appErrors.ErrForbidden))

	_, err = svc.Update(ctx, adminActor, "NOPE", UpdateModuleRequest{})
	assert.True(t, isCode(err, appErrors.ErrNotFound))
}

func TestModuleDeleteIsIdempotent(t *testing.T) {
	programs := newCatalogPrograms()
	modules := newMemModules(models.Module{ModuleCode: "DS101", ProgramID: int64Ptr(1)})
	svc := NewModuleService(modules, programs, newMemSpecializations(), newTestAuthorizer(programs), nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, adminActor, "DS101"))
	require.NoError(t, svc.Delete(ctx, adminActor, "DS101"))
	assert.Equal(t, 1, modules.deletes)

	assert.True(t, isCode(svc.Delete(ctx, hospActor(1), "DS101"), appErrors.ErrForbidden))
}

func TestOwnershipStoreFailureSurfacesAsError(t *testing.T) {
	programs := newCatalogPrograms()
	storeErr := errors.New("connection reset")
	programs.err = storeErr
	svc := NewModuleService(newMemModules(), programs, newMemSpecializations(), newTestAuthorizer(programs), nil, nil)

	_, err := svc.Create(context.Background(), hospActor(1), CreateModuleRequest{ModuleCode: "DS101", Name: "Stats", RoomType: "lecture", ProgramID: int64Ptr(1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, isCode(err, appErrors.ErrForbidden))
}

func TestGroupDataScienceLabelScenario(t *testing.T) {
	programs := newCatalogPrograms()
	groups := newMemGroups()
	svc := NewGroupService(groups, newTestAuthorizer(programs), nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, hospActor(1), CreateGroupRequest{Name: "G1", Size: 30, Program: strPtr("Data Science")})
	require.NoError(t, err)
	assert.Equal(t, "Data Science", *created.Program)

	_, err = svc.Create(ctx, hospActor(1), CreateGroupRequest{Name: "G1", Size: 30, Program: strPtr("data science")})
	assert.True(t, isCode(err, appErrors.ErrForbidden))

	_, err = svc.Update(ctx, hospActor(1), created.ID, UpdateGroupRequest{Program: strPtr("Software Engineering")})
	assert.True(t, isCode(err, appErrors.ErrForbidden))

	updated, err := svc.Update(ctx, hospActor(1), created.ID, UpdateGroupRequest{Size: intPtr(28)})
	require.NoError(t, err)
	assert.Equal(t, 28, updated.Size)

	assert.True(t, isCode(svc.Delete(ctx, hospActor(1), created.ID), appErrors.ErrForbidden))
	require.NoError(t, svc.Delete(ctx, pmActor, created.ID))
	require.NoError(t, svc.Delete(ctx, pmActor, created.ID))
}

func TestGroupLabelMatchedExactly(t *testing.T) {
	programs := newCatalogPrograms()
	groups := newMemGroups()
	svc := NewGroupService(groups, newTestAuthorizer(programs), nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, hospActor(1), CreateGroupRequest{Name: "G2", Size: 20, Program: strPtr(" Data Science ")})
	assert.True(t, isCode(err, appErrors.ErrForbidden), "got %v", err)

	created, err := svc.Create(ctx, hospActor(1), CreateGroupRequest{Name: "G2", Size: 20, Program: strPtr("Data Science")})
	require.NoError(t, err)
	_, err = svc.Update(ctx, hospActor(1), created.ID, UpdateGroupRequest{Program: strPtr("Data Science ")})
	assert.True(t, isCode(err, appErrors.ErrForbidden), "got %v", err)

	stored, err := svc.Create(ctx, adminActor, CreateGroupRequest{Name: "G3", Size: 20, Program: strPtr(" Data Science ")})
	require.NoError(t, err)
	assert.Equal(t, " Data Science ", *stored.Program)
	_, err = svc.Update(ctx, hospActor(1), stored.ID, UpdateGroupRequest{Size: intPtr(5)})
	assert.True(t, isCode(err, appErrors.ErrForbidden), "got %v", err)
}

func TestStudentWritesForbiddenBeforePayloadChecks(t *testing.T) {
	programs := newCatalogPrograms()
	modules := newMemModules(models.Module{ModuleCode: "DS101", Name: "Stats", ProgramID: int64Ptr(1)})
	specs := newMemSpecializations(models.Specialization{ID: 10, ProgramID: 1, Name: "ML"})
	groups := newMemGroups(models.Group{ID: 5, Name: "G1"})
	authorizer := newTestAuthorizer(programs)
	ctx := context.Background()

	moduleSvc := NewModuleService(modules, programs, specs, authorizer, nil, nil)
	_, err := moduleSvc.Create(ctx, studentActor, CreateModuleRequest{ModuleCode: "DS101", Name: "Dup", RoomType: "lecture"})
	assert.True(t, isCode(err, appErrors.ErrForbidden), "duplicate code: got %v", err)
	_, err = moduleSvc.Create(ctx, studentActor, CreateModuleRequest{})
	assert.True(t, isCode(err, appErrors.ErrForbidden), "empty payload: got %v", err)
	_, err = moduleSvc.Update(ctx, studentActor, "DS101", UpdateModuleRequest{ECTS: intPtr(-4)})
	assert.True(t, isCode(err, appErrors.ErrForbidden), "invalid update: got %v", err)
	_, err = moduleSvc.Update(ctx, studentActor, "NOPE", UpdateModuleRequest{})
	assert.True(t, isCode(err, appErrors.ErrNotFound), "missing module: got %v", err)

	specSvc := NewSpecializationService(specs, programs, authorizer, nil, nil)
	_, err = specSvc.Create(ctx, studentActor, CreateSpecializationRequest{ProgramID: 99})
	assert.True(t, isCode(err, appErrors.ErrForbidden), "got %v", err)
	_, err = specSvc.Update(ctx, lecturerActor(1), 10, UpdateSpecializationRequest{ProgramID: int64Ptr(99)})
	assert.True(t, isCode(err, appErrors.ErrForbidden), "got %v", err)

	groupSvc := NewGroupService(groups, authorizer, nil, nil)
	_, err = groupSvc.Create(ctx, studentActor, CreateGroupRequest{Size: -1})
	assert.True(t, isCode(err, appErrors.ErrForbidden), "got %v", err)
	_, err = groupSvc.Update(ctx, studentActor, 5, UpdateGroupRequest{Email: strPtr("not-an-email")})
	assert.True(t, isCode(err, appErrors.ErrForbidden), "got %v", err)

	assert.Equal(t, "Stats", modules.items["DS101"].Name)
}

func TestProgramRules(t *testing.T) {
	programs := newCatalogPrograms()
	lecturers := newMemLecturers(models.Lecturer{ID: 1}, models.Lecturer{ID: 2})
	svc := NewProgramService(programs, lecturers, newTestAuthorizer(programs), nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, adminActor, CreateProgramRequest{Name: "Robotics", Acronym: "RO", StartDate: "2026-09-01", TotalECTS: 180})
	require.NoError(t, err)
	assert.Equal(t, models.LevelBachelor, created.Level)
	assert.True(t, created.Status)

	_, err = svc.Create(ctx, hospActor(1), CreateProgramRequest{Name: "Mine", Acronym: "M", StartDate: "2026-09-01"})
	assert.True(t, isCode(err, appErrors.ErrForbidden))

	updated, err := svc.Update(ctx, hospActor(1), 1, UpdateProgramRequest{TotalECTS: intPtr(120)})
	require.NoError(t, err)
	assert.Equal(t, 120, updated.TotalECTS)

	_, err = svc.Update(ctx, hospActor(1), 1, UpdateProgramRequest{HeadOfProgramID: int64Ptr(2)})
	assert.True(t, isCode(err, appErrors.ErrForbidden))

	_, err = svc.Update(ctx, hospActor(1), 2, UpdateProgramRequest{TotalECTS: intPtr(90)})
	assert.True(t, isCode(err, appErrors.ErrForbidden))

	_, err = svc.Update(ctx, adminActor, 1, UpdateProgramRequest{HeadOfProgramID: int64Ptr(42)})
	assert.True(t, isCode(err, appErrors.ErrNotFound))

	assert.True(t, isCode(svc.Delete(ctx, adminActor, 999), appErrors.ErrNotFound))
	assert.True(t, isCode(svc.Delete(ctx, hospActor(1), 1), appErrors.ErrForbidden))
	require.NoError(t, svc.Delete(ctx, adminActor, created.ID))
}

type memRooms struct {
	items  map[int64]*models.Room
	nextID int64
	lists  int
}

func (m *memRooms) List(ctx context.Context) ([]models.Room, error) {
	m.lists++
	var result []models.Room
	for _, r := range m.items {
		result = append(result, *r)
	}
	return result, nil
}

func (m *memRooms) FindByID(ctx context.Context, id int64) (*models.Room, error) {
	if r, ok := m.items[id]; ok {
		clone := *r
		return &clone, nil
	}
	return nil, errNoRows()
}

func (m *memRooms) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	for _, r := range m.items {
		if r.ID != excludeID && r.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRooms) Create(ctx context.Context, room *models.Room) error {
	m.nextID++
	room.ID = m.nextID
	clone := *room
	m.items[room.ID] = &clone
	return nil
}

func (m *memRooms) Update(ctx context.Context, room *models.Room) error {
	clone := *room
	m.items[room.ID] = &clone
	return nil
}

func (m *memRooms) Delete(ctx context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

func TestRoomServiceCachesListingAndInvalidates(t *testing.T) {
	rooms := &memRooms{items: map[int64]*models.Room{}}
	store := newMemCache()
	cacheSvc := NewListingCache(store, NewMetricsService(), 0, nil)
	svc := NewRoomService(rooms, cacheSvc, newTestAuthorizer(newMemPrograms()), nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, adminActor, CreateRoomRequest{Name: "A-101", Capacity: 40, Type: "lecture"})
	require.NoError(t, err)

	first, err := svc.List(ctx, studentActor)
	require.NoError(t, err)
	second, err := svc.List(ctx, lecturerActor(1))
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Name, second[0].Name)
	assert.Equal(t, 1, rooms.lists)

	_, err = svc.Create(ctx, adminActor, CreateRoomRequest{Name: "A-101", Capacity: 10, Type: "lab"})
	assert.True(t, isCode(err, appErrors.ErrValidation))

	_, err = svc.Create(ctx, hospActor(1), CreateRoomRequest{Name: "B-1", Type: "lab"})
	assert.True(t, isCode(err, appErrors.ErrForbidden))

	_, err = svc.Create(ctx, adminActor, CreateRoomRequest{Name: "B-1", Type: "lab"})
	require.NoError(t, err)
	all, err := svc.List(ctx, adminActor)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, rooms.lists)
	assert.Contains(t, store.invalidated, roomListKey+"*")
}

type memDomains struct {
	items []models.Domain
}

func (m *memDomains) List(ctx context.Context) ([]models.Domain, error) { return m.items, nil }

func (m *memDomains) FindByName(ctx context.Context, name string) (*models.Domain, error) {
	for _, d := range m.items {
		if d.Name == name {
			clone := d
			return &clone, nil
		}
	}
	return nil, errNoRows()
}

func (m *memDomains) Create(ctx context.Context, d *models.Domain) error {
	d.ID = int64(len(m.items) + 1)
	m.items = append(m.items, *d)
	return nil
}

func TestDomainCreateReturnsExistingName(t *testing.T) {
	repo := &memDomains{}
	svc := NewDomainService(repo, newTestAuthorizer(newMemPrograms()), nil)
	ctx := context.Background()

	first, created, err := svc.Create(ctx, lecturerActor(1), CreateDomainRequest{Name: " Machine Learning "})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Machine Learning", first.Name)

	again, created, err := svc.Create(ctx, hospActor(1), CreateDomainRequest{Name: "Machine Learning"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, repo.items, 1)

	_, _, err = svc.Create(ctx, studentActor, CreateDomainRequest{Name: "Other"})
	assert.True(t, isCode(err, appErrors.ErrForbidden))

	_, _, err = svc.Create(ctx, adminActor, CreateDomainRequest{Name: "  "})
	assert.True(t, isCode(err, appErrors.ErrValidation))

	_, err = svc.List(ctx, studentActor)
	assert.True(t, isCode(err, appErrors.ErrForbidden))
}
