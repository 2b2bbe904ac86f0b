package schedule

import (
	"context"
	"time"
)

// Repository is the read-only shift reference. Shift-master CRUD lives
// outside this service.
type Repository interface {
	// GetShiftAssignments returns employee-scoped assignments for the given
	// employees and location-scoped assignments for their branches that overlap
	// [from, to].
	GetShiftAssignments(ctx context.Context, companyID string, employees []EmployeeRef, from, to time.Time) ([]ShiftAssignment, error)

	GetWeeklyOffRules(ctx context.Context, companyID string, employees []EmployeeRef) ([]WeeklyOffRule, error)

	GetHolidays(ctx context.Context, companyID string, from, to time.Time) ([]Holiday, error)

	// GetBranchTimezones maps branch id to IANA timezone name.
	GetBranchTimezones(ctx context.Context, companyID string) (map[string]string, error)
}
