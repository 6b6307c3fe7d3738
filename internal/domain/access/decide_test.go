package access

import (
	"testing"

	"hrcore/internal/domain/org"
)

// Two independent chains:
//
//	n1A -> n2A -> staffA1, staffA2
//	n1B -> n2B -> staffB1
//	loner has no supervisor.
func testDirectory() *org.Directory {
	return org.NewDirectory([]org.Employee{
		{ID: "n1A", UserID: "u-n1A"},
		{ID: "n2A", UserID: "u-n2A", SupervisorID: "n1A"},
		{ID: "staffA1", UserID: "u-staffA1", SupervisorID: "n2A"},
		{ID: "staffA2", UserID: "u-staffA2", SupervisorID: "n2A"},
		{ID: "n1B", UserID: "u-n1B"},
		{ID: "n2B", UserID: "u-n2B", SupervisorID: "n1B"},
		{ID: "staffB1", UserID: "u-staffB1", SupervisorID: "n2B"},
		{ID: "loner", UserID: "u-loner"},
	})
}

func TestDeveloperAndExecutiveSeeEverything(t *testing.T) {
	dir := testDirectory()
	for _, role := range []string{RoleDeveloper, RoleExecutive} {
		actor := NewActor("u-admin", "", []string{role})
		visible := VisibleEmployees(actor, dir)
		if len(visible) != dir.Len() {
			t.Fatalf("%s: expected full visibility (%d), got %d", role, dir.Len(), len(visible))
		}
		if !Decide(actor, OpApprove, Target{EmployeeID: "staffB1", OwnerUserID: "u-staffB1"}, dir) {
			t.Fatalf("%s: expected approve on any target", role)
		}
	}
}

func TestManagerN2SeesExactlyOneLevel(t *testing.T) {
	dir := testDirectory()
	actor := NewActor("u-n2A", "n2A", []string{RoleManagerN2})

	visible := VisibleEmployees(actor, dir)
	want := map[string]bool{"n2A": true, "staffA1": true, "staffA2": true}
	if len(visible) != len(want) {
		t.Fatalf("expected visibility %v, got %v", want, visible)
	}
	for id := range want {
		if !visible[id] {
			t.Fatalf("expected %s visible to n2A", id)
		}
	}
	if visible["staffB1"] || visible["n2B"] || visible["loner"] {
		t.Fatal("n2A must not see unrelated employees")
	}
}

func TestManagerN1SeesTwoHops(t *testing.T) {
	dir := testDirectory()
	actor := NewActor("u-n1A", "n1A", []string{RoleManagerN1})

	visible := VisibleEmployees(actor, dir)
	for _, id := range []string{"n1A", "n2A", "staffA1", "staffA2"} {
		if !visible[id] {
			t.Fatalf("expected %s visible to n1A", id)
		}
	}
	for _, id := range []string{"n1B", "n2B", "staffB1", "loner"} {
		if visible[id] {
			t.Fatalf("%s belongs to an unrelated chain and must not be visible to n1A", id)
		}
	}
}

func TestIndependentChainsHaveNoCrossVisibility(t *testing.T) {
	dir := testDirectory()
	a := VisibleEmployees(NewActor("u-n1A", "n1A", []string{RoleManagerN1}), dir)
	b := VisibleEmployees(NewActor("u-n1B", "n1B", []string{RoleManagerN1}), dir)
	for id := range a {
		if b[id] {
			t.Fatalf("chains A and B must be disjoint, both see %s", id)
		}
	}
}

func TestEmployeeWithoutSupervisorIsSelfOnly(t *testing.T) {
	dir := testDirectory()

	// Nobody but the loner (and developer/executive) reaches the loner.
	for _, actor := range []Actor{
		NewActor("u-n1A", "n1A", []string{RoleManagerN1}),
		NewActor("u-n2A", "n2A", []string{RoleManagerN2}),
		NewActor("u-staffA1", "staffA1", []string{RoleStaff}),
	} {
		if VisibleEmployees(actor, dir)["loner"] {
			t.Fatalf("actor %s must not see the unsupervised employee", actor.UserID)
		}
	}

	self := NewActor("u-loner", "loner", []string{RoleStaff})
	if !Decide(self, OpView, Target{EmployeeID: "loner", OwnerUserID: "u-loner"}, dir) {
		t.Fatal("self view must be allowed")
	}
}

func TestSelfApprovalAlwaysDenied(t *testing.T) {
	dir := testDirectory()
	target := Target{EmployeeID: "n2A", OwnerUserID: "u-n2A", Pending: true}

	for _, roles := range [][]string{
		{RoleStaff},
		{RoleManagerN2},
		{RoleManagerN1},
		{RoleManagerN1, RoleManagerN2},
	} {
		actor := NewActor("u-n2A", "n2A", roles)
		if Decide(actor, OpApprove, target, dir) {
			t.Fatalf("self-approval must be denied for roles %v", roles)
		}
	}

	// The documented exception: developer/executive may approve anything,
	// including their own.
	admin := NewActor("u-n2A", "n2A", []string{RoleExecutive})
	if !Decide(admin, OpApprove, target, dir) {
		t.Fatal("executive override should permit approval")
	}
}

func TestSupervisorApprovalAllowed(t *testing.T) {
	dir := testDirectory()
	target := Target{EmployeeID: "staffA1", OwnerUserID: "u-staffA1", Pending: true}

	n2 := NewActor("u-n2A", "n2A", []string{RoleManagerN2})
	if !Decide(n2, OpApprove, target, dir) {
		t.Fatal("direct supervisor must be able to approve")
	}

	n1 := NewActor("u-n1A", "n1A", []string{RoleManagerN1})
	if !Decide(n1, OpApprove, target, dir) {
		t.Fatal("two-hop supervisor must be able to approve")
	}

	otherN2 := NewActor("u-n2B", "n2B", []string{RoleManagerN2})
	if Decide(otherN2, OpApprove, target, dir) {
		t.Fatal("unrelated manager must not approve")
	}
}

func TestManagerN2HasNoTransitiveReach(t *testing.T) {
	// n2X supervises midX who in turn supervises deepX; a Manager N-2 must
	// not reach two levels down even when the graph has such an edge.
	dir := org.NewDirectory([]org.Employee{
		{ID: "n2X", UserID: "u-n2X"},
		{ID: "midX", UserID: "u-midX", SupervisorID: "n2X"},
		{ID: "deepX", UserID: "u-deepX", SupervisorID: "midX"},
	})
	actor := NewActor("u-n2X", "n2X", []string{RoleManagerN2})
	if VisibleEmployees(actor, dir)["deepX"] {
		t.Fatal("Manager N-2 visibility is strictly one level")
	}
	if Decide(actor, OpView, Target{EmployeeID: "deepX", OwnerUserID: "u-deepX"}, dir) {
		t.Fatal("Manager N-2 must not view two levels down")
	}
}

func TestSelfEditRequiresPendingState(t *testing.T) {
	dir := testDirectory()
	actor := NewActor("u-staffA1", "staffA1", []string{RoleStaff})

	pending := Target{EmployeeID: "staffA1", OwnerUserID: "u-staffA1", Pending: true}
	approved := Target{EmployeeID: "staffA1", OwnerUserID: "u-staffA1", Pending: false}

	if !Decide(actor, OpUpdate, pending, dir) || !Decide(actor, OpDelete, pending, dir) {
		t.Fatal("owner must be able to edit/delete a pending record")
	}
	if Decide(actor, OpUpdate, approved, dir) || Decide(actor, OpDelete, approved, dir) {
		t.Fatal("owner must not edit/delete a settled record")
	}
	if !Decide(actor, OpView, approved, dir) {
		t.Fatal("owner may always view")
	}
}

func TestSupervisorCycleDoesNotGrantOrLoop(t *testing.T) {
	dir := org.NewDirectory([]org.Employee{
		{ID: "a", UserID: "u-a", SupervisorID: "b"},
		{ID: "b", UserID: "u-b", SupervisorID: "a"},
		{ID: "self", UserID: "u-self", SupervisorID: "self"},
	})

	n1 := NewActor("u-x", "x", []string{RoleManagerN1})
	if Decide(n1, OpView, Target{EmployeeID: "a", OwnerUserID: "u-a"}, dir) {
		t.Fatal("cyclic graph must not leak visibility to outsiders")
	}

	// b supervises a directly; the cycle above must not extend b's reach
	// past the fixed two tiers.
	bActor := NewActor("u-b", "b", []string{RoleManagerN1})
	if !Decide(bActor, OpView, Target{EmployeeID: "a", OwnerUserID: "u-a"}, dir) {
		t.Fatal("direct report remains visible despite the cycle")
	}
	visible := VisibleEmployees(bActor, dir)
	if visible["self"] {
		t.Fatal("self-supervising employee is not in b's chain")
	}
}

func TestRolePermissions(t *testing.T) {
	staff := NewActor("u1", "e1", []string{RoleStaff})
	if staff.Can(PermProcessPayroll) {
		t.Fatal("staff must not process payroll")
	}
	if !staff.Can(PermManageMyLeave) {
		t.Fatal("staff manages their own leave")
	}

	n2 := NewActor("u2", "e2", []string{RoleManagerN2})
	if !n2.Can(PermAccessWellbeingReports) {
		t.Fatal("managers access wellbeing reports")
	}

	dev := NewActor("u3", "e3", []string{RoleDeveloper})
	for _, perm := range []string{PermManageAllLeaves, PermProcessPayroll, PermManageEmployees} {
		if !dev.Can(perm) {
			t.Fatalf("developer missing %s", perm)
		}
	}
}
