package access

import (
	"hrcore/internal/domain/org"
)

type Op int

const (
	OpView Op = iota
	OpCreate
	OpUpdate
	OpApprove
	OpDelete
)

// Target carries the ownership and state facts a decision needs about a
// leave request or wellbeing response, resolved to its employee.
type Target struct {
	EmployeeID  string
	OwnerUserID string
	Pending     bool
}

// Decide applies the ordered rules: developer/executive override, the
// self-approval ban, self-ownership, then the bounded supervision chain.
// First match wins.
func Decide(actor Actor, op Op, target Target, dir *org.Directory) bool {
	if actor.Unrestricted() {
		return true
	}

	own := target.OwnerUserID != "" && target.OwnerUserID == actor.UserID

	// An actor never approves their own request, regardless of any
	// supervision edge that might also point at them.
	if op == OpApprove && own {
		return false
	}

	if own {
		switch op {
		case OpView, OpCreate:
			return true
		case OpUpdate, OpDelete:
			return target.Pending
		}
	}

	return supervises(actor, target.EmployeeID, dir)
}

// supervises reports whether the target employee falls inside the actor's
// supervision reach. Manager N-2 sees exactly one level down; Manager N-1
// sees its N-2s and their direct reports. No deeper tier exists, so the
// walk is two dereferences at most and cannot loop on a bad graph.
func supervises(actor Actor, employeeID string, dir *org.Directory) bool {
	if dir == nil || actor.EmployeeID == "" || employeeID == "" {
		return false
	}
	if employeeID == actor.EmployeeID {
		return true
	}

	supervisor := dir.SupervisorOf(employeeID)
	if actor.HasRole(RoleManagerN1) {
		if supervisor == actor.EmployeeID {
			return true
		}
		if dir.GrandSupervisorOf(employeeID) == actor.EmployeeID {
			return true
		}
		return false
	}
	if actor.HasRole(RoleManagerN2) {
		return supervisor == actor.EmployeeID
	}
	return false
}

// VisibleEmployees materializes the actor's visibility set over the
// directory. Listing queries should prefer VisibilityFilter; this form
// backs in-memory checks and reports.
func VisibleEmployees(actor Actor, dir *org.Directory) map[string]bool {
	visible := make(map[string]bool)
	if dir == nil {
		return visible
	}
	if actor.Unrestricted() {
		for _, id := range dir.IDs() {
			visible[id] = true
		}
		return visible
	}
	if actor.EmployeeID == "" {
		return visible
	}
	if _, ok := dir.Get(actor.EmployeeID); ok {
		visible[actor.EmployeeID] = true
	}
	if !actor.HasRole(RoleManagerN1) && !actor.HasRole(RoleManagerN2) {
		return visible
	}
	for _, id := range dir.IDs() {
		if id == actor.EmployeeID {
			continue
		}
		if supervises(actor, id, dir) {
			visible[id] = true
		}
	}
	return visible
}
