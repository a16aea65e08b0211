package authz

import (
	"context"
	"sort"

	"github.com/noah-isme/program-catalog-api/internal/models"
)

// ProgramHeadReader lists the study programs headed by a lecturer.
type ProgramHeadReader interface {
	ListByHead(ctx context.Context, lecturerID int64) ([]models.StudyProgram, error)
}

// Ownership is the set of study programs an actor administers.
type Ownership struct {
	ids   map[int64]struct{}
	names map[string]struct{}
}

// OwnsProgram reports whether the program id is in the set.
func (o Ownership) OwnsProgram(id int64) bool {
	_, ok := o.ids[id]
	return ok
}

// OwnsProgramName reports whether label exactly matches the name of an owned program.
// The comparison is case-sensitive.
func (o Ownership) OwnsProgramName(label string) bool {
	_, ok := o.names[label]
	return ok
}

// ProgramIDs returns the owned program ids in ascending order.
func (o Ownership) ProgramIDs() []int64 {
	ids := make([]int64, 0, len(o.ids))
	for id := range o.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Empty reports whether the actor administers nothing.
func (o Ownership) Empty() bool {
	return len(o.ids) == 0
}

// OwnershipResolver derives the programs a hosp account heads. Results are
// recomputed on every call because headship can change between requests.
type OwnershipResolver struct {
	programs ProgramHeadReader
}

// NewOwnershipResolver constructs an OwnershipResolver.
func NewOwnershipResolver(programs ProgramHeadReader) *OwnershipResolver {
	return &OwnershipResolver{programs: programs}
}

// Resolve returns the programs headed by the actor's linked lecturer. An
// unlinked actor owns nothing and the store is not consulted. Store errors are
// returned unchanged.
func (r *OwnershipResolver) Resolve(ctx context.Context, actor Actor) (Ownership, error) {
	ownership := Ownership{ids: map[int64]struct{}{}, names: map[string]struct{}{}}
	if actor.LecturerID == nil {
		return ownership, nil
	}
	programs, err := r.programs.ListByHead(ctx, *actor.LecturerID)
	if err != nil {
		return Ownership{}, err
	}
	for _, program := range programs {
		ownership.ids[program.ID] = struct{}{}
		ownership.names[program.Name] = struct{}{}
	}
	return ownership, nil
}
