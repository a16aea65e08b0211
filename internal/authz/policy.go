package authz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/program-catalog-api/internal/models"
)

// Action is the kind of access being requested.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resource names a guarded entity type.
type Resource string

const (
	ResourceProgram        Resource = "program"
	ResourceSpecialization Resource = "specialization"
	ResourceModule         Resource = "module"
	ResourceGroup          Resource = "group"
	ResourceLecturer       Resource = "lecturer"
	ResourceAvailability   Resource = "availability"
	ResourceRoom           Resource = "room"
	ResourceDomain         Resource = "domain"
	ResourceConstraintType Resource = "constraint_type"
	ResourceConstraint     Resource = "constraint"
	ResourceAccount        Resource = "account"
)

// Resources lists every guarded resource.
var Resources = []Resource{
	ResourceProgram,
	ResourceSpecialization,
	ResourceModule,
	ResourceGroup,
	ResourceLecturer,
	ResourceAvailability,
	ResourceRoom,
	ResourceDomain,
	ResourceConstraintType,
	ResourceConstraint,
	ResourceAccount,
}

// ReadScope is how much of a resource a role may read.
type ReadScope string

const (
	ReadNone ReadScope = "none"
	ReadSelf ReadScope = "self"
	ReadAll  ReadScope = "all"
)

// FieldSet is an allow-list of payload field names. A nil set allows every field.
type FieldSet map[string]struct{}

// NewFieldSet builds a set from names, trimming blanks.
func NewFieldSet(names ...string) FieldSet {
	set := make(FieldSet, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" {
			set[name] = struct{}{}
		}
	}
	return set
}

// Allows reports whether field may be written.
func (f FieldSet) Allows(field string) bool {
	if f == nil {
		return true
	}
	_, ok := f[field]
	return ok
}

// Names returns the sorted members.
func (f FieldSet) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultLecturerSelfFields are the profile fields a lecturer may edit on their own record.
var DefaultLecturerSelfFields = []string{"personal_email", "phone"}

// adminOnlyProgramFields may only be written by the admin tier.
var adminOnlyProgramFields = NewFieldSet("head_of_program_id")

// Policy holds the configurable tables consulted by the Evaluator.
type Policy struct {
	reads      map[models.Role]map[Resource]ReadScope
	selfFields FieldSet
}

func defaultReads() map[models.Role]map[Resource]ReadScope {
	reads := map[models.Role]map[Resource]ReadScope{
		models.RoleHoSP:     {},
		models.RoleLecturer: {},
		models.RoleStudent:  {},
	}
	for _, table := range reads {
		for _, resource := range Resources {
			table[resource] = ReadAll
		}
		table[ResourceAccount] = ReadNone
		table[ResourceAvailability] = ReadSelf
	}
	reads[models.RoleLecturer][ResourceLecturer] = ReadSelf
	reads[models.RoleStudent][ResourceDomain] = ReadNone
	reads[models.RoleStudent][ResourceAvailability] = ReadNone
	return reads
}

// DefaultPolicy returns the built-in read table and self-edit fields.
func DefaultPolicy() *Policy {
	return &Policy{reads: defaultReads(), selfFields: NewFieldSet(DefaultLecturerSelfFields...)}
}

// NewPolicy applies read overrides of the form "role:resource=scope" on top of
// the defaults. An empty selfFields keeps the default allow-list.
func NewPolicy(readOverrides []string, selfFields []string) (*Policy, error) {
	policy := DefaultPolicy()
	for _, raw := range readOverrides {
		role, resource, scope, err := parseOverride(raw)
		if err != nil {
			return nil, err
		}
		policy.reads[role][resource] = scope
	}
	if len(selfFields) > 0 {
		policy.selfFields = NewFieldSet(selfFields...)
	}
	return policy, nil
}

func parseOverride(raw string) (models.Role, Resource, ReadScope, error) {
	key, value, ok := strings.Cut(strings.TrimSpace(raw), "=")
	if !ok {
		return "", "", "", fmt.Errorf("read override %q: expected role:resource=scope", raw)
	}
	roleRaw, resourceRaw, ok := strings.Cut(key, ":")
	if !ok {
		return "", "", "", fmt.Errorf("read override %q: expected role:resource=scope", raw)
	}
	role, err := models.ParseRole(roleRaw)
	if err != nil {
		return "", "", "", fmt.Errorf("read override %q: %w", raw, err)
	}
	if role.IsAdminEquivalent() {
		return "", "", "", fmt.Errorf("read override %q: role %s always reads everything", raw, role)
	}
	resource := Resource(strings.ToLower(strings.TrimSpace(resourceRaw)))
	if !knownResource(resource) {
		return "", "", "", fmt.Errorf("read override %q: unknown resource %q", raw, resourceRaw)
	}
	scope := ReadScope(strings.ToLower(strings.TrimSpace(value)))
	switch scope {
	case ReadNone, ReadSelf, ReadAll:
	default:
		return "", "", "", fmt.Errorf("read override %q: unknown scope %q", raw, value)
	}
	return role, resource, scope, nil
}

func knownResource(resource Resource) bool {
	for _, r := range Resources {
		if r == resource {
			return true
		}
	}
	return false
}

// ReadScope returns the configured read breadth for a role. Unknown roles read nothing.
func (p *Policy) ReadScope(role models.Role, resource Resource) ReadScope {
	role = role.Normalize()
	if role.IsAdminEquivalent() {
		return ReadAll
	}
	table, ok := p.reads[role]
	if !ok {
		return ReadNone
	}
	if scope, ok := table[resource]; ok {
		return scope
	}
	return ReadNone
}

// LecturerSelfFields returns the lecturer self-edit allow-list.
func (p *Policy) LecturerSelfFields() FieldSet {
	return p.selfFields
}
