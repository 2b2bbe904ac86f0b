package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const dayColumns = `
	d.id, d.company_id, d.employee_id, d.day, d.status, d.source,
	d.check_in_at, d.check_out_at, d.notes, d.shift_id, d.leave_type_id, d.leave_fraction,
	d.work_minutes, d.late_minutes, d.early_leave_minutes, d.ot_minutes, d.day_fraction,
	d.created_at, d.updated_at, e.full_name`

type attendanceDayRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceDayRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDay(row rowScanner) (attendance.Day, error) {
	var (
		d              attendance.Day
		status, source string
	)
	err := row.Scan(
		&d.ID, &d.CompanyID, &d.EmployeeID, &d.Date, &status, &source,
		&d.CheckInAt, &d.CheckOutAt, &d.Notes, &d.ShiftID, &d.LeaveTypeID, &d.LeaveFraction,
		&d.WorkMinutes, &d.LateMinutes, &d.EarlyLeaveMinutes, &d.OTMinutes, &d.DayFraction,
		&d.CreatedAt, &d.UpdatedAt, &d.EmployeeName,
	)
	if err != nil {
		return attendance.Day{}, err
	}
	d.Status = attendance.Status(status)
	d.Source = attendance.Source(source)
	d.Date = calendar.DateOnly(d.Date)
	return d, nil
}

func (r *attendanceDayRepository) getOne(ctx context.Context, lock string, companyID, employeeID string, date time.Time) (attendance.Day, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + dayColumns + `
		FROM attendance_days d
		LEFT JOIN employees e ON e.id = d.employee_id
		WHERE d.company_id = $1 AND d.employee_id = $2 AND d.day = $3
	` + lock

	day, err := scanDay(q.QueryRow(ctx, query, companyID, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Day{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Day{}, fmt.Errorf("failed to get attendance day: %w", err)
	}
	return day, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (r *attendanceDayRepository) GetByEmployeeAndDate(ctx context.Context, companyID, employeeID string, date time.Time) (attendance.Day, error) {
	return r.getOne(ctx, "", companyID, employeeID, date)
}

// GetForUpdate implements attendance.AttendanceRepository.
func (r *attendanceDayRepository) GetForUpdate(ctx context.Context, companyID, employeeID string, date time.Time) (attendance.Day, error) {
	return r.getOne(ctx, "FOR UPDATE OF d", companyID, employeeID, date)
}

func (r *attendanceDayRepository) listMonth(ctx context.Context, lock string, companyID string, month calendar.Month, employeeIDs []string) ([]attendance.Day, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + dayColumns + `
		FROM attendance_days d
		LEFT JOIN employees e ON e.id = d.employee_id
		WHERE d.company_id = $1
		  AND d.day BETWEEN $2 AND $3
		  AND ($4::uuid[] IS NULL OR d.employee_id = ANY($4))
		ORDER BY d.employee_id, d.day
	` + lock

	var ids []string
	if len(employeeIDs) > 0 {
		ids = employeeIDs
	}

	rows, err := q.Query(ctx, query, companyID, month.FirstDay(), month.LastDay(), ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance days: %w", err)
	}
	defer rows.Close()

	var days []attendance.Day
	for rows.Next() {
		d, err := scanDay(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance day: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance days: %w", err)
	}
	return days, nil
}

// ListByMonth implements attendance.AttendanceRepository.
func (r *attendanceDayRepository) ListByMonth(ctx context.Context, companyID string, month calendar.Month, employeeIDs []string) ([]attendance.Day, error) {
	return r.listMonth(ctx, "", companyID, month, employeeIDs)
}

// LockByMonth implements attendance.AttendanceRepository.
func (r *attendanceDayRepository) LockByMonth(ctx context.Context, companyID string, month calendar.Month, employeeIDs []string) ([]attendance.Day, error) {
	return r.listMonth(ctx, "FOR UPDATE OF d", companyID, month, employeeIDs)
}

// ListEmployeeIDs implements attendance.AttendanceRepository.
func (r *attendanceDayRepository) ListEmployeeIDs(ctx context.Context, companyID string, month calendar.Month) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT DISTINCT employee_id
		FROM attendance_days
		WHERE company_id = $1 AND day BETWEEN $2 AND $3
		ORDER BY employee_id
	`

	rows, err := q.Query(ctx, query, companyID, month.FirstDay(), month.LastDay())
	if err != nil {
		return nil, fmt.Errorf("failed to list employees with attendance: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan employee id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// maxBindParams is the PostgreSQL wire protocol limit on bind parameters in a
// single statement.
const maxBindParams = 65535

const insertDayCols = 11

// InsertMissing implements attendance.AttendanceRepository. Large inputs are
// split into several statements so each stays under maxBindParams.
func (r *attendanceDayRepository) InsertMissing(ctx context.Context, days []attendance.Day) (int64, error) {
	q := GetQuerier(ctx, r.db)

	const rowsPerStatement = maxBindParams / insertDayCols

	var inserted int64
	for start := 0; start < len(days); start += rowsPerStatement {
		end := min(start+rowsPerStatement, len(days))
		n, err := insertDays(ctx, q, days[start:end])
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	return inserted, nil
}

func insertDays(ctx context.Context, q database.Querier, days []attendance.Day) (int64, error) {
	valueStrings := make([]string, 0, len(days))
	valueArgs := make([]interface{}, 0, len(days)*insertDayCols)

	for i, d := range days {
		if d.ID == "" {
			d.ID = uuid.Must(uuid.NewV7()).String()
		}

		base := i * insertDayCols
		placeholders := make([]string, insertDayCols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ", ")+")")
		valueArgs = append(valueArgs,
			d.ID, d.CompanyID, d.EmployeeID, d.Date, string(d.Status), string(d.Source),
			d.Notes, d.ShiftID, d.WorkMinutes, d.OTMinutes, d.DayFraction,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO attendance_days (
			id, company_id, employee_id, day, status, source,
			notes, shift_id, work_minutes, ot_minutes, day_fraction
		) VALUES %s
		ON CONFLICT (employee_id, day) DO NOTHING
	`, strings.Join(valueStrings, ", "))

	tag, err := q.Exec(ctx, query, valueArgs...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert attendance days: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Update implements attendance.AttendanceRepository.
func (r *attendanceDayRepository) Update(ctx context.Context, day attendance.Day) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_days
		SET status = $1, source = $2, check_in_at = $3, check_out_at = $4, notes = $5,
			shift_id = $6, leave_type_id = $7, leave_fraction = $8,
			work_minutes = $9, late_minutes = $10, early_leave_minutes = $11, ot_minutes = $12,
			day_fraction = $13, updated_at = NOW()
		WHERE id = $14 AND company_id = $15
	`

	tag, err := q.Exec(ctx, query,
		string(day.Status), string(day.Source), day.CheckInAt, day.CheckOutAt, day.Notes,
		day.ShiftID, day.LeaveTypeID, day.LeaveFraction,
		day.WorkMinutes, day.LateMinutes, day.EarlyLeaveMinutes, day.OTMinutes,
		day.DayFraction, day.ID, day.CompanyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance day: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

// UpdateMetrics implements attendance.AttendanceRepository.
func (r *attendanceDayRepository) UpdateMetrics(ctx context.Context, days []attendance.Day) error {
	if len(days) == 0 {
		return nil
	}

	q := GetQuerier(ctx, r.db)

	const cols = 7
	valueStrings := make([]string, 0, len(days))
	valueArgs := make([]interface{}, 0, len(days)*cols)

	for i, d := range days {
		base := i * cols
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d::uuid, $%d::uuid, $%d::int, $%d::int, $%d::int, $%d::int, $%d::numeric)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		valueArgs = append(valueArgs,
			d.ID, d.ShiftID, d.WorkMinutes, d.LateMinutes, d.EarlyLeaveMinutes, d.OTMinutes, d.DayFraction,
		)
	}

	query := fmt.Sprintf(`
		UPDATE attendance_days AS d
		SET shift_id = v.shift_id,
			work_minutes = v.work_minutes,
			late_minutes = v.late_minutes,
			early_leave_minutes = v.early_leave_minutes,
			ot_minutes = v.ot_minutes,
			day_fraction = v.day_fraction,
			updated_at = NOW()
		FROM (VALUES %s) AS v(id, shift_id, work_minutes, late_minutes, early_leave_minutes, ot_minutes, day_fraction)
		WHERE d.id = v.id
	`, strings.Join(valueStrings, ", "))

	if _, err := q.Exec(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("failed to update attendance metrics: %w", err)
	}
	return nil
}

// Upsert implements attendance.AttendanceRepository.
func (r *attendanceDayRepository) Upsert(ctx context.Context, day attendance.Day) (attendance.Day, error) {
	q := GetQuerier(ctx, r.db)

	if day.ID == "" {
		day.ID = uuid.Must(uuid.NewV7()).String()
	}

	query := `
		INSERT INTO attendance_days (
			id, company_id, employee_id, day, status, source,
			check_in_at, check_out_at, notes, shift_id, leave_type_id, leave_fraction,
			work_minutes, late_minutes, early_leave_minutes, ot_minutes, day_fraction
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (employee_id, day) DO UPDATE SET
			status = EXCLUDED.status,
			source = EXCLUDED.source,
			check_in_at = EXCLUDED.check_in_at,
			check_out_at = EXCLUDED.check_out_at,
			notes = EXCLUDED.notes,
			shift_id = EXCLUDED.shift_id,
			leave_type_id = EXCLUDED.leave_type_id,
			leave_fraction = EXCLUDED.leave_fraction,
			work_minutes = EXCLUDED.work_minutes,
			late_minutes = EXCLUDED.late_minutes,
			early_leave_minutes = EXCLUDED.early_leave_minutes,
			ot_minutes = EXCLUDED.ot_minutes,
			day_fraction = EXCLUDED.day_fraction,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		day.ID, day.CompanyID, day.EmployeeID, day.Date, string(day.Status), string(day.Source),
		day.CheckInAt, day.CheckOutAt, day.Notes, day.ShiftID, day.LeaveTypeID, day.LeaveFraction,
		day.WorkMinutes, day.LateMinutes, day.EarlyLeaveMinutes, day.OTMinutes, day.DayFraction,
	).Scan(&day.ID, &day.CreatedAt, &day.UpdatedAt)
	if err != nil {
		return attendance.Day{}, fmt.Errorf("failed to upsert attendance day: %w", err)
	}

	return day, nil
}
