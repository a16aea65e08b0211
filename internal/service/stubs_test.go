package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/program-catalog-api/internal/authz"
	"github.com/noah-isme/program-catalog-api/internal/models"
	appErrors "github.com/noah-isme/program-catalog-api/pkg/errors"
)

func int64Ptr(v int64) *int64 { return &v }

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

var (
	adminActor   = authz.Actor{AccountID: 1, Role: models.RoleAdmin}
	pmActor      = authz.Actor{AccountID: 2, Role: models.RolePM}
	studentActor = authz.Actor{AccountID: 9, Role: models.RoleStudent}
)

func hospActor(lecturerID int64) authz.Actor {
	return authz.Actor{AccountID: 100 + lecturerID, Role: models.RoleHoSP, LecturerID: int64Ptr(lecturerID)}
}

func lecturerActor(lecturerID int64) authz.Actor {
	return authz.Actor{AccountID: 200 + lecturerID, Role: models.RoleLecturer, LecturerID: int64Ptr(lecturerID)}
}

func newTestAuthorizer(heads authz.ProgramHeadReader) Authorizer {
	return authz.NewEvaluator(authz.DefaultPolicy(), authz.NewOwnershipResolver(heads))
}

func isCode(err error, code *appErrors.Error) bool {
	return appErrors.IsCode(err, code.Code)
}

type memLecturers struct {
	items   map[int64]*models.Lecturer
	modules map[int64][]string
	nextID  int64
	updates int
}

func newMemLecturers(lecturers ...models.Lecturer) *memLecturers {
	m := &memLecturers{items: map[int64]*models.Lecturer{}, modules: map[int64][]string{}, nextID: 100}
	for i := range lecturers {
		l := lecturers[i]
		m.items[l.ID] = &l
	}
	return m
}

func (m *memLecturers) List(ctx context.Context, onlyID *int64) ([]models.Lecturer, error) {
	var result []models.Lecturer
	for _, l := range m.items {
		if onlyID != nil && l.ID != *onlyID {
			continue
		}
		result = append(result, *l)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memLecturers) FindByID(ctx context.Context, id int64) (*models.Lecturer, error) {
	l, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *l
	clone.ModuleCodes = m.modules[id]
	return &clone, nil
}

func (m *memLecturers) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := m.items[id]
	return ok, nil
}

func (m *memLecturers) Create(ctx context.Context, l *models.Lecturer) error {
	m.nextID++
	l.ID = m.nextID
	clone := *l
	m.items[l.ID] = &clone
	return nil
}

func (m *memLecturers) Update(ctx context.Context, l *models.Lecturer) error {
	m.updates++
	clone := *l
	m.items[l.ID] = &clone
	return nil
}

func (m *memLecturers) Delete(ctx context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

func (m *memLecturers) ReplaceModules(ctx context.Context, lecturerID int64, codes []string) error {
	m.modules[lecturerID] = append([]string(nil), codes...)
	return nil
}

type memPrograms struct {
	items  map[int64]*models.StudyProgram
	nextID int64
	err    error
}

func newMemPrograms(programs ...models.StudyProgram) *memPrograms {
	m := &memPrograms{items: map[int64]*models.StudyProgram{}, nextID: 100}
	for i := range programs {
		p := programs[i]
		m.items[p.ID] = &p
	}
	return m
}

func (m *memPrograms) List(ctx context.Context) ([]models.StudyProgram, error) {
	var result []models.StudyProgram
	for _, p := range m.items {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memPrograms) ListByHead(ctx context.Context, lecturerID int64) ([]models.StudyProgram, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []models.StudyProgram
	for _, p := range m.items {
		if p.HeadOfProgramID != nil && *p.HeadOfProgramID == lecturerID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *memPrograms) FindByID(ctx context.Context, id int64) (*models.StudyProgram, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *p
	return &clone, nil
}

func (m *memPrograms) Create(ctx context.Context, p *models.StudyProgram) error {
	m.nextID++
	p.ID = m.nextID
	clone := *p
	m.items[p.ID] = &clone
	return nil
}

func (m *memPrograms) Update(ctx context.Context, p *models.StudyProgram) error {
	clone := *p
	m.items[p.ID] = &clone
	return nil
}

func (m *memPrograms) Delete(ctx context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

type memSpecializations struct {
	items  map[int64]*models.Specialization
	nextID int64
}

func newMemSpecializations(specs ...models.Specialization) *memSpecializations {
	m := &memSpecializations{items: map[int64]*models.Specialization{}, nextID: 100}
	for i := range specs {
		s := specs[i]
		m.items[s.ID] = &s
	}
	return m
}

func (m *memSpecializations) List(ctx context.Context, filter models.SpecializationFilter) ([]models.Specialization, error) {
	var result []models.Specialization
	for _, s := range m.items {
		if filter.ProgramID != nil && s.ProgramID != *filter.ProgramID {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memSpecializations) FindByID(ctx context.Context, id int64) (*models.Specialization, error) {
	s, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (m *memSpecializations) Create(ctx context.Context, s *models.Specialization) error {
	m.nextID++
	s.ID = m.nextID
	clone := *s
	m.items[s.ID] = &clone
	return nil
}

func (m *memSpecializations) Update(ctx context.Context, s *models.Specialization) error {
	clone := *s
	m.items[s.ID] = &clone
	return nil
}

func (m *memSpecializations) Delete(ctx context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

type memModules struct {
	items   map[string]*models.Module
	deletes int
}

func newMemModules(modules ...models.Module) *memModules {
	m := &memModules{items: map[string]*models.Module{}}
	for i := range modules {
		mod := modules[i]
		m.items[mod.ModuleCode] = &mod
	}
	return m
}

func (m *memModules) List(ctx context.Context, filter models.ModuleFilter) ([]models.Module, error) {
	var result []models.Module
	for _, mod := range m.items {
		if filter.ProgramID != nil && (mod.ProgramID == nil || *mod.ProgramID != *filter.ProgramID) {
			continue
		}
		result = append(result, *mod)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ModuleCode < result[j].ModuleCode })
	return result, nil
}

func (m *memModules) FindByCode(ctx context.Context, code string) (*models.Module, error) {
	mod, ok := m.items[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *mod
	return &clone, nil
}

func (m *memModules) ExistingCodes(ctx context.Context, codes []string) ([]string, error) {
	var found []string
	for _, code := range codes {
		if _, ok := m.items[code]; ok {
			found = append(found, code)
		}
	}
	return found, nil
}

func (m *memModules) Create(ctx context.Context, mod *models.Module) error {
	clone := *mod
	m.items[mod.ModuleCode] = &clone
	return nil
}

func (m *memModules) Update(ctx context.Context, mod *models.Module, replaceLinks bool) error {
	clone := *mod
	if !replaceLinks {
		clone.SpecializationIDs = m.items[mod.ModuleCode].SpecializationIDs
	}
	m.items[mod.ModuleCode] = &clone
	return nil
}

func (m *memModules) Delete(ctx context.Context, code string) error {
	m.deletes++
	delete(m.items, code)
	return nil
}

type memGroups struct {
	items  map[int64]*models.Group
	nextID int64
}

func newMemGroups(groups ...models.Group) *memGroups {
	m := &memGroups{items: map[int64]*models.Group{}, nextID: 100}
	for i := range groups {
		g := groups[i]
		m.items[g.ID] = &g
	}
	return m
}

func (m *memGroups) List(ctx context.Context) ([]models.Group, error) {
	var result []models.Group
	for _, g := range m.items {
		result = append(result, *g)
	}
	return result, nil
}

func (m *memGroups) FindByID(ctx context.Context, id int64) (*models.Group, error) {
	g, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *g
	return &clone, nil
}

func (m *memGroups) Create(ctx context.Context, g *models.Group) error {
	m.nextID++
	g.ID = m.nextID
	clone := *g
	m.items[g.ID] = &clone
	return nil
}

func (m *memGroups) Update(ctx context.Context, g *models.Group) error {
	clone := *g
	m.items[g.ID] = &clone
	return nil
}

func (m *memGroups) Delete(ctx context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

// memAvailability mirrors the single-statement upsert: one row per lecturer
// and the id survives an overwrite.
type memAvailability struct {
	mu        sync.Mutex
	rows      map[int64]*models.LecturerAvailability
	nextID    int64
	upsertErr error
}

func newMemAvailability() *memAvailability {
	return &memAvailability{rows: map[int64]*models.LecturerAvailability{}}
}

func (m *memAvailability) GetByLecturer(ctx context.Context, lecturerID int64) (*models.LecturerAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[lecturerID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *row
	return &clone, nil
}

func (m *memAvailability) List(ctx context.Context, lecturerID *int64) ([]models.LecturerAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.LecturerAvailability
	for _, row := range m.rows {
		if lecturerID != nil && row.LecturerID != *lecturerID {
			continue
		}
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LecturerID < result[j].LecturerID })
	return result, nil
}

func (m *memAvailability) Upsert(ctx context.Context, a *models.LecturerAvailability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	now := time.Now().UTC()
	if existing, ok := m.rows[a.LecturerID]; ok {
		existing.ScheduleData = a.ScheduleData
		existing.UpdatedAt = now
		*a = *existing
		return nil
	}
	m.nextID++
	a.ID = m.nextID
	a.CreatedAt = now
	a.UpdatedAt = now
	clone := *a
	m.rows[a.LecturerID] = &clone
	return nil
}

func (m *memAvailability) Delete(ctx context.Context, lecturerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, lecturerID)
	return nil
}

type memConstraintTypes struct {
	items  map[int64]*models.ConstraintType
	nextID int64
	lists  int
}

func newMemConstraintTypes(types ...models.ConstraintType) *memConstraintTypes {
	m := &memConstraintTypes{items: map[int64]*models.ConstraintType{}, nextID: 100}
	for i := range types {
		ct := types[i]
		m.items[ct.ID] = &ct
	}
	return m
}

func (m *memConstraintTypes) List(ctx context.Context, activeOnly bool) ([]models.ConstraintType, error) {
	m.lists++
	var result []models.ConstraintType
	for _, ct := range m.items {
		if activeOnly && !ct.Active {
			continue
		}
		result = append(result, *ct)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memConstraintTypes) FindByID(ctx context.Context, id int64) (*models.ConstraintType, error) {
	ct, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *ct
	return &clone, nil
}

func (m *memConstraintTypes) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	for _, ct := range m.items {
		if ct.ID != excludeID && strings.EqualFold(ct.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memConstraintTypes) Create(ctx context.Context, ct *models.ConstraintType) error {
	m.nextID++
	ct.ID = m.nextID
	clone := *ct
	m.items[ct.ID] = &clone
	return nil
}

func (m *memConstraintTypes) Update(ctx context.Context, ct *models.ConstraintType) error {
	clone := *ct
	m.items[ct.ID] = &clone
	return nil
}

type memConstraints struct {
	items  map[int64]*models.SchedulerConstraint
	nextID int64
}

func newMemConstraints(constraints ...models.SchedulerConstraint) *memConstraints {
	m := &memConstraints{items: map[int64]*models.SchedulerConstraint{}, nextID: 100}
	for i := range constraints {
		c := constraints[i]
		m.items[c.ID] = &c
	}
	return m
}

func (m *memConstraints) List(ctx context.Context, filter models.ConstraintFilter) ([]models.SchedulerConstraint, error) {
	var result []models.SchedulerConstraint
	for _, c := range m.items {
		if filter.Scope != nil && c.Scope != *filter.Scope {
			continue
		}
		if filter.TypeID != nil && c.ConstraintTypeID != *filter.TypeID {
			continue
		}
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memConstraints) FindByID(ctx context.Context, id int64) (*models.SchedulerConstraint, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (m *memConstraints) Create(ctx context.Context, c *models.SchedulerConstraint) error {
	m.nextID++
	c.ID = m.nextID
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	clone := *c
	m.items[c.ID] = &clone
	return nil
}

func (m *memConstraints) Update(ctx context.Context, c *models.SchedulerConstraint) error {
	c.UpdatedAt = time.Now().UTC()
	clone := *c
	m.items[c.ID] = &clone
	return nil
}

func (m *memConstraints) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}

type publishedEvent struct {
	topic   string
	payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, payload: payload})
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

// memCache is an in-process CacheRepository.
type memCache struct {
	data        map[string][]byte
	invalidated []string
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.invalidated = append(c.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.data {
		if key == pattern || (strings.HasSuffix(pattern, "*") && strings.HasPrefix(key, prefix)) {
			delete(c.data, key)
		}
	}
	return nil
}

func errNoRows() error { return sql.ErrNoRows }

func nopLogger() *zap.Logger { return zap.NewNop() }
