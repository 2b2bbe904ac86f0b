package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

type scheduleRepositoryImpl struct {
	db *database.DB
}

func NewScheduleRepository(db *database.DB) schedule.Repository {
	return &scheduleRepositoryImpl{db: db}
}

func splitRefs(employees []schedule.EmployeeRef) (employeeIDs, branchIDs []string) {
	seen := make(map[string]bool)
	for _, e := range employees {
		employeeIDs = append(employeeIDs, e.ID)
		if e.BranchID != "" && !seen[e.BranchID] {
			seen[e.BranchID] = true
			branchIDs = append(branchIDs, e.BranchID)
		}
	}
	return employeeIDs, branchIDs
}

// GetShiftAssignments implements schedule.Repository.
func (r *scheduleRepositoryImpl) GetShiftAssignments(ctx context.Context, companyID string, employees []schedule.EmployeeRef, from, to time.Time) ([]schedule.ShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)
	employeeIDs, branchIDs := splitRefs(employees)

	query := `
		SELECT a.id, a.scope, a.employee_id, a.branch_id, a.effective_from, a.effective_to,
			   s.id, s.company_id, s.name,
			   (EXTRACT(HOUR FROM s.start_time) * 60 + EXTRACT(MINUTE FROM s.start_time))::int,
			   (EXTRACT(HOUR FROM s.end_time) * 60 + EXTRACT(MINUTE FROM s.end_time))::int,
			   s.break_minutes, s.grace_minutes, s.ot_after_minutes,
			   s.min_half_day_minutes, s.min_full_day_minutes
		FROM shift_assignments a
		JOIN shifts s ON s.id = a.shift_id
		WHERE a.company_id = $1
		  AND a.effective_from <= $3
		  AND (a.effective_to IS NULL OR a.effective_to >= $2)
		  AND (
			(a.scope = 'employee' AND a.employee_id = ANY($4)) OR
			(a.scope = 'location' AND a.branch_id = ANY($5))
		  )
		ORDER BY a.effective_from DESC, a.id
	`

	rows, err := q.Query(ctx, query, companyID, from, to, employeeIDs, branchIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get shift assignments: %w", err)
	}
	defer rows.Close()

	var assignments []schedule.ShiftAssignment
	for rows.Next() {
		var (
			a     schedule.ShiftAssignment
			scope string
		)
		err := rows.Scan(
			&a.ID, &scope, &a.EmployeeID, &a.BranchID, &a.EffectiveFrom, &a.EffectiveTo,
			&a.Shift.ID, &a.Shift.CompanyID, &a.Shift.Name,
			&a.Shift.StartMinute, &a.Shift.EndMinute,
			&a.Shift.BreakMinutes, &a.Shift.GraceMinutes, &a.Shift.OTAfterMinutes,
			&a.Shift.MinHalfDayMinutes, &a.Shift.MinFullDayMinutes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift assignment: %w", err)
		}
		a.Scope = schedule.Scope(scope)
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shift assignments: %w", err)
	}

	return assignments, nil
}

// GetWeeklyOffRules implements schedule.Repository.
func (r *scheduleRepositoryImpl) GetWeeklyOffRules(ctx context.Context, companyID string, employees []schedule.EmployeeRef) ([]schedule.WeeklyOffRule, error) {
	q := GetQuerier(ctx, r.db)
	employeeIDs, branchIDs := splitRefs(employees)

	query := `
		SELECT id, scope, employee_id, branch_id, weekday, week_of_month, is_off
		FROM weekly_off_rules
		WHERE company_id = $1
		  AND (
			(scope = 'employee' AND employee_id = ANY($2)) OR
			(scope = 'location' AND branch_id = ANY($3))
		  )
	`

	rows, err := q.Query(ctx, query, companyID, employeeIDs, branchIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly off rules: %w", err)
	}
	defer rows.Close()

	var rules []schedule.WeeklyOffRule
	for rows.Next() {
		var (
			rule    schedule.WeeklyOffRule
			scope   string
			weekday int
		)
		if err := rows.Scan(&rule.ID, &scope, &rule.EmployeeID, &rule.BranchID, &weekday, &rule.WeekOfMonth, &rule.IsOff); err != nil {
			return nil, fmt.Errorf("failed to scan weekly off rule: %w", err)
		}
		rule.Scope = schedule.Scope(scope)
		rule.Weekday = time.Weekday(weekday)
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate weekly off rules: %w", err)
	}

	return rules, nil
}

// GetHolidays implements schedule.Repository.
func (r *scheduleRepositoryImpl) GetHolidays(ctx context.Context, companyID string, from, to time.Time) ([]schedule.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, date, name, branch_id
		FROM holidays
		WHERE company_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get holidays: %w", err)
	}
	defer rows.Close()

	var holidays []schedule.Holiday
	for rows.Next() {
		var h schedule.Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Name, &h.BranchID); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holidays: %w", err)
	}

	return holidays, nil
}

// GetBranchTimezones implements schedule.Repository.
func (r *scheduleRepositoryImpl) GetBranchTimezones(ctx context.Context, companyID string) (map[string]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT id, timezone FROM branches WHERE company_id = $1`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get branch timezones: %w", err)
	}
	defer rows.Close()

	zones := make(map[string]string)
	for rows.Next() {
		var id, tz string
		if err := rows.Scan(&id, &tz); err != nil {
			return nil, fmt.Errorf("failed to scan branch timezone: %w", err)
		}
		zones[id] = tz
	}
	return zones, rows.Err()
}
