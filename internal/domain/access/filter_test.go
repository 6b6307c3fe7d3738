package access

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibilityFilterUnrestricted(t *testing.T) {
	for _, role := range []string{RoleDeveloper, RoleExecutive} {
		f := VisibilityFilter(NewActor("u1", "e1", []string{role}), "e", 0)
		assert.True(t, f.All, "role %s should be unrestricted", role)
		assert.Empty(t, f.Clause)
		assert.Empty(t, f.Args)
	}
}

func TestVisibilityFilterStaffIsOwnRecordsOnly(t *testing.T) {
	f := VisibilityFilter(NewActor("u-staff", "e-staff", []string{RoleStaff}), "e", 0)
	require.False(t, f.All)
	assert.Equal(t, "(e.user_id = $1)", f.Clause)
	assert.Equal(t, []any{"u-staff"}, f.Args)
}

func TestVisibilityFilterManagerN2(t *testing.T) {
	f := VisibilityFilter(NewActor("u-n2", "e-n2", []string{RoleManagerN2}), "e", 0)
	require.False(t, f.All)
	assert.Equal(t, "(e.user_id = $1 OR e.supervisor_id = $2)", f.Clause)
	assert.Equal(t, []any{"u-n2", "e-n2"}, f.Args)
}

func TestVisibilityFilterManagerN1HasTwoHopDisjunct(t *testing.T) {
	f := VisibilityFilter(NewActor("u-n1", "e-n1", []string{RoleManagerN1}), "e", 0)
	require.False(t, f.All)
	assert.Contains(t, f.Clause, "e.user_id = $1")
	assert.Contains(t, f.Clause, "e.supervisor_id = $2")
	assert.Contains(t, f.Clause, "e.supervisor_id IN (SELECT id FROM employees WHERE supervisor_id = $3")
	assert.Equal(t, []any{"u-n1", "e-n1", "e-n1", "e-n1"}, f.Args)
}

func TestVisibilityFilterRespectsArgOffset(t *testing.T) {
	f := VisibilityFilter(NewActor("u-n2", "e-n2", []string{RoleManagerN2}), "emp", 3)
	assert.Equal(t, "(emp.user_id = $4 OR emp.supervisor_id = $5)", f.Clause)
}

func TestFilterApplyComposesWithoutMutatingBase(t *testing.T) {
	base := "SELECT id FROM leave_requests lr JOIN employees e ON lr.employee_id = e.id WHERE lr.status = $1"
	baseArgs := []any{"pending"}

	f := VisibilityFilter(NewActor("u-n2", "e-n2", []string{RoleManagerN2}), "e", len(baseArgs))
	query, args := f.Apply(base, baseArgs)

	assert.True(t, strings.HasPrefix(query, base+" AND ("))
	assert.Equal(t, []any{"pending", "u-n2", "e-n2"}, args)

	// The base slice is untouched.
	assert.Equal(t, []any{"pending"}, baseArgs)

	// Further conditions can still be appended after the filter.
	query2 := query + " AND lr.created_at > $4"
	args2 := append(args, "2024-01-01")
	assert.Len(t, args2, 4)
	assert.Contains(t, query2, "AND lr.created_at")
}

func TestFilterApplyUnrestrictedPassesThrough(t *testing.T) {
	f := Filter{All: true}
	query, args := f.Apply("SELECT 1 WHERE true", []any{1})
	assert.Equal(t, "SELECT 1 WHERE true", query)
	assert.Equal(t, []any{1}, args)
}
