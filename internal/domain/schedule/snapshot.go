package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
)

// Snapshot is the schedule reference for a set of employees over a date
// range, loaded once per request or batch chunk.
type Snapshot struct {
	Shifts   ShiftPlan
	Calendar DayCalendar
	zones    map[string]*time.Location
}

func LoadSnapshot(ctx context.Context, repo Repository, companyID string, employees []EmployeeRef, from, to time.Time) (Snapshot, error) {
	assignments, err := repo.GetShiftAssignments(ctx, companyID, employees, from, to)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load shift assignments: %w", err)
	}

	rules, err := repo.GetWeeklyOffRules(ctx, companyID, employees)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load weekly off rules: %w", err)
	}

	holidays, err := repo.GetHolidays(ctx, companyID, from, to)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load holidays: %w", err)
	}

	names, err := repo.GetBranchTimezones(ctx, companyID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load branch timezones: %w", err)
	}

	zones := make(map[string]*time.Location, len(names))
	for branchID, name := range names {
		zones[branchID] = calendar.LoadLocation(name)
	}

	return Snapshot{
		Shifts:   NewShiftPlan(assignments),
		Calendar: NewDayCalendar(rules, holidays),
		zones:    zones,
	}, nil
}

// Location returns the timezone of the employee's branch, UTC when unknown.
func (s Snapshot) Location(emp EmployeeRef) *time.Location {
	if loc, ok := s.zones[emp.BranchID]; ok {
		return loc
	}
	return time.UTC
}
