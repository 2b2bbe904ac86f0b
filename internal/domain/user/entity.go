package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Manages attendance and payroll inputs
	RoleEmployee Role = "employee" // Regular employee
	RolePending  Role = "pending"  // Still in onboarding
	RoleSystem   Role = "system"   // Scheduled jobs
)

// Actor is the caller of an engine operation, read from the access token
// claims or injected by a scheduled job.
type Actor struct {
	UserID    string
	CompanyID string
	Role      Role
}

// CanManageAttendance gates every write to attendance days, periods and
// month overrides.
func (a Actor) CanManageAttendance() bool {
	return HasPermission(a.Role, PermissionAttendanceManage)
}

func (a Actor) CanViewAttendance() bool {
	return HasPermission(a.Role, PermissionAttendanceViewAll)
}
