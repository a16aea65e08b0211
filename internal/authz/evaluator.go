package authz

import (
	"context"
	"fmt"

	"github.com/noah-isme/program-catalog-api/internal/models"
	appErrors "github.com/noah-isme/program-catalog-api/pkg/errors"
)

// Actor is the authenticated account a decision is made for.
type Actor struct {
	AccountID  int64
	Role       models.Role
	LecturerID *int64
}

// IsLecturer reports whether the actor is linked to the given lecturer profile.
func (a Actor) IsLecturer(lecturerID int64) bool {
	return a.LecturerID != nil && *a.LecturerID == lecturerID
}

// Target describes the resource instance or payload being accessed. For
// update paths ProgramID/ProgramLabel come from the stored resource and the
// New* fields from the payload when it moves the resource elsewhere.
type Target struct {
	ProgramID       *int64
	NewProgramID    *int64
	ProgramLabel    *string
	NewProgramLabel *string
	LecturerID      *int64
	Fields          []string
}

// Evaluator decides whether an actor may perform an action on a resource.
// It holds no mutable state.
type Evaluator struct {
	policy    *Policy
	ownership *OwnershipResolver
}

// NewEvaluator constructs an Evaluator. A nil policy uses DefaultPolicy.
func NewEvaluator(policy *Policy, ownership *OwnershipResolver) *Evaluator {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Evaluator{policy: policy, ownership: ownership}
}

// ReadScope returns the read breadth of the actor on resource.
func (e *Evaluator) ReadScope(actor Actor, resource Resource) ReadScope {
	return e.policy.ReadScope(actor.Role, resource)
}

// WritableFields returns the fields the actor may write on resource, or nil
// when every field is writable once the action is authorized.
func (e *Evaluator) WritableFields(actor Actor, resource Resource) FieldSet {
	if actor.Role.Normalize() == models.RoleLecturer && resource == ResourceLecturer {
		return e.policy.LecturerSelfFields()
	}
	return nil
}

// Precheck denies actions the actor's role may never perform on resource,
// whatever the target. Services call it before looking at the payload, so a
// role that is always denied gets Forbidden rather than a validation error.
func (e *Evaluator) Precheck(actor Actor, action Action, resource Resource) error {
	role := actor.Role.Normalize()
	if role.IsAdminEquivalent() {
		return nil
	}
	if action == ActionRead {
		if e.policy.ReadScope(actor.Role, resource) == ReadNone {
			return deny(role, action, resource, "no read access")
		}
		return nil
	}

	switch role {
	case models.RoleHoSP:
		return hospPrecheck(action, resource)
	case models.RoleLecturer:
		return lecturerPrecheck(action, resource)
	case models.RoleStudent:
		return deny(role, action, resource, "role is read-only")
	}
	return deny(role, action, resource, "role not recognised")
}

// Authorize returns nil when the action is allowed and a Forbidden error
// otherwise. Errors from the ownership store are returned unchanged.
func (e *Evaluator) Authorize(ctx context.Context, actor Actor, action Action, resource Resource, target Target) error {
	if err := e.Precheck(actor, action, resource); err != nil {
		return err
	}
	role := actor.Role.Normalize()
	if role.IsAdminEquivalent() {
		return nil
	}
	if action == ActionRead {
		return e.authorizeRead(actor, resource, target)
	}

	switch role {
	case models.RoleHoSP:
		return e.authorizeHoSP(ctx, actor, action, resource, target)
	case models.RoleLecturer:
		if resource == ResourceDomain {
			return nil
		}
		return requireSelf(actor, action, resource, target)
	}
	return deny(role, action, resource, "role not recognised")
}

func (e *Evaluator) authorizeRead(actor Actor, resource Resource, target Target) error {
	if e.policy.ReadScope(actor.Role, resource) == ReadAll {
		return nil
	}
	if target.LecturerID != nil && actor.IsLecturer(*target.LecturerID) {
		return nil
	}
	return deny(actor.Role, ActionRead, resource, "may only read own records")
}

func hospPrecheck(action Action, resource Resource) error {
	role := models.RoleHoSP
	switch resource {
	case ResourceAvailability:
		return nil
	case ResourceDomain:
		if action == ActionCreate {
			return nil
		}
		return deny(role, action, resource, "only creation is permitted")
	case ResourceProgram, ResourceSpecialization, ResourceModule, ResourceGroup:
	default:
		return deny(role, action, resource, "outside program administration")
	}

	if action == ActionDelete {
		return deny(role, action, resource, "deletion is reserved to administrators")
	}
	if resource == ResourceProgram && action == ActionCreate {
		return deny(role, action, resource, "program creation is reserved to administrators")
	}
	return nil
}

func lecturerPrecheck(action Action, resource Resource) error {
	role := models.RoleLecturer
	switch resource {
	case ResourceLecturer:
		if action == ActionUpdate {
			return nil
		}
		return deny(role, action, resource, "lecturers may only edit their own profile")
	case ResourceAvailability:
		return nil
	case ResourceDomain:
		if action == ActionCreate {
			return nil
		}
	}
	return deny(role, action, resource, "not permitted for lecturers")
}

func (e *Evaluator) authorizeHoSP(ctx context.Context, actor Actor, action Action, resource Resource, target Target) error {
	role := models.RoleHoSP
	switch resource {
	case ResourceAvailability:
		return requireSelf(actor, action, resource, target)
	case ResourceDomain:
		return nil
	}

	owned, err := e.resolve(ctx, actor)
	if err != nil {
		return err
	}
	if owned.Empty() {
		return deny(role, action, resource, "account heads no study program")
	}

	switch resource {
	case ResourceProgram:
		for _, field := range target.Fields {
			if adminOnlyProgramFields.Allows(field) {
				return deny(role, action, resource, fmt.Sprintf("field %s is reserved to administrators", field))
			}
		}
		if !ownsID(owned, target.ProgramID) {
			return deny(role, action, resource, "program is not headed by this account")
		}
	case ResourceSpecialization, ResourceModule:
		if !ownsID(owned, target.ProgramID) {
			return deny(role, action, resource, "program is not headed by this account")
		}
		if action == ActionUpdate && target.NewProgramID != nil && !owned.OwnsProgram(*target.NewProgramID) {
			return deny(role, action, resource, "destination program is not headed by this account")
		}
	case ResourceGroup:
		if !ownsLabel(owned, target.ProgramLabel) {
			return deny(role, action, resource, "group program is not headed by this account")
		}
		if action == ActionUpdate && target.NewProgramLabel != nil && !owned.OwnsProgramName(*target.NewProgramLabel) {
			return deny(role, action, resource, "destination program is not headed by this account")
		}
	}
	return nil
}

func (e *Evaluator) resolve(ctx context.Context, actor Actor) (Ownership, error) {
	if e.ownership == nil {
		return Ownership{}, nil
	}
	return e.ownership.Resolve(ctx, actor)
}

func requireSelf(actor Actor, action Action, resource Resource, target Target) error {
	if target.LecturerID != nil && actor.IsLecturer(*target.LecturerID) {
		return nil
	}
	return deny(actor.Role, action, resource, "may only modify own records")
}

func ownsID(owned Ownership, id *int64) bool {
	return id != nil && owned.OwnsProgram(*id)
}

func ownsLabel(owned Ownership, label *string) bool {
	return label != nil && owned.OwnsProgramName(*label)
}

func deny(role models.Role, action Action, resource Resource, reason string) error {
	return appErrors.Forbidden(fmt.Sprintf("%s may not %s %s: %s", role.Normalize(), action, resource, reason))
}
