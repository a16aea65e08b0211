package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/program-catalog-api/internal/models"
)

func TestDefaultReadTable(t *testing.T) {
	policy := DefaultPolicy()

	cases := []struct {
		role     models.Role
		resource Resource
		want     ReadScope
	}{
		{models.RoleHoSP, ResourceProgram, ReadAll},
		{models.RoleHoSP, ResourceAvailability, ReadSelf},
		{models.RoleHoSP, ResourceAccount, ReadNone},
		{models.RoleLecturer, ResourceLecturer, ReadSelf},
		{models.RoleLecturer, ResourceModule, ReadAll},
		{models.RoleLecturer, ResourceDomain, ReadAll},
		{models.RoleStudent, ResourceGroup, ReadAll},
		{models.RoleStudent, ResourceDomain, ReadNone},
		{models.RoleStudent, ResourceAvailability, ReadNone},
		{models.RoleStudent, ResourceLecturer, ReadAll},
		{models.RoleAdmin, ResourceAccount, ReadAll},
		{"LECTURER", ResourceLecturer, ReadSelf},
		{"visitor", ResourceProgram, ReadNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, policy.ReadScope(tc.role, tc.resource), "%s/%s", tc.role, tc.resource)
	}
}

func TestNewPolicyOverrides(t *testing.T) {
	policy, err := NewPolicy([]string{"student:group=none", "Lecturer:lecturer=all"}, []string{"phone"})
	require.NoError(t, err)

	assert.Equal(t, ReadNone, policy.ReadScope(models.RoleStudent, ResourceGroup))
	assert.Equal(t, ReadAll, policy.ReadScope(models.RoleLecturer, ResourceLecturer))
	assert.Equal(t, []string{"phone"}, policy.LecturerSelfFields().Names())

	// defaults stay untouched
	assert.Equal(t, ReadSelf, DefaultPolicy().ReadScope(models.RoleLecturer, ResourceLecturer))
}

func TestNewPolicyRejectsMalformedOverrides(t *testing.T) {
	for _, raw := range []string{
		"student-group=none",
		"student:group",
		"janitor:group=all",
		"admin:group=none",
		"student:timetable=all",
		"student:group=some",
	} {
		_, err := NewPolicy([]string{raw}, nil)
		assert.Error(t, err, raw)
	}
}

func TestFieldSet(t *testing.T) {
	var unrestricted FieldSet
	assert.True(t, unrestricted.Allows("anything"))

	set := NewFieldSet(" phone ", "", "personal_email")
	assert.Equal(t, []string{"personal_email", "phone"}, set.Names())
	assert.False(t, set.Allows("title"))
}
