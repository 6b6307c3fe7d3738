package access

const (
	RoleDeveloper = "developer"
	RoleExecutive = "executive"
	RoleManagerN1 = "manager_n1"
	RoleManagerN2 = "manager_n2"
	RoleStaff     = "staff"
)

const (
	PermManageAllLeaves        = "manage_all_leaves"
	PermManageMyLeave          = "manage_my_leave"
	PermAccessWellbeingReports = "access_wellbeing_reports"
	PermViewMyPayslips         = "view_my_payslips"
	PermProcessPayroll         = "process_payroll"
	PermManageEmployees        = "manage_employees"
)

var RolePermissions = map[string][]string{
	RoleDeveloper: {
		PermManageAllLeaves,
		PermManageMyLeave,
		PermAccessWellbeingReports,
		PermViewMyPayslips,
		PermProcessPayroll,
		PermManageEmployees,
	},
	RoleExecutive: {
		PermManageAllLeaves,
		PermManageMyLeave,
		PermAccessWellbeingReports,
		PermViewMyPayslips,
		PermProcessPayroll,
		PermManageEmployees,
	},
	RoleManagerN1: {
		PermManageMyLeave,
		PermAccessWellbeingReports,
		PermViewMyPayslips,
	},
	RoleManagerN2: {
		PermManageMyLeave,
		PermAccessWellbeingReports,
		PermViewMyPayslips,
	},
	RoleStaff: {
		PermManageMyLeave,
		PermViewMyPayslips,
	},
}

// Actor is the capability set an authorization decision runs against: the
// authenticated user, their employee record, and the permissions granted by
// their roles. Decisions are pure functions over this plus target facts.
type Actor struct {
	UserID     string
	EmployeeID string
	Roles      []string
	Perms      map[string]bool
}

func NewActor(userID, employeeID string, roles []string) Actor {
	perms := make(map[string]bool)
	for _, role := range roles {
		for _, perm := range RolePermissions[role] {
			perms[perm] = true
		}
	}
	return Actor{UserID: userID, EmployeeID: employeeID, Roles: roles, Perms: perms}
}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a Actor) Can(perm string) bool {
	return a.Perms[perm]
}

// Unrestricted reports whether the actor bypasses all visibility scoping.
func (a Actor) Unrestricted() bool {
	return a.HasRole(RoleDeveloper) || a.HasRole(RoleExecutive)
}
