package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/override"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const overrideColumns = `
	id, company_id, employee_id, month, present_days, absent_days, paid_leave_days, ot_minutes,
	use_override, notes, updated_by, created_at, updated_at`

type overrideRepositoryImpl struct {
	db *database.DB
}

func NewOverrideRepository(db *database.DB) override.OverrideRepository {
	return &overrideRepositoryImpl{db: db}
}

func scanOverride(row rowScanner) (override.MonthOverride, error) {
	var (
		o     override.MonthOverride
		first time.Time
	)
	err := row.Scan(
		&o.ID, &o.CompanyID, &o.EmployeeID, &first, &o.PresentDays, &o.AbsentDays, &o.PaidLeaveDays, &o.OTMinutes,
		&o.UseOverride, &o.Notes, &o.UpdatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return override.MonthOverride{}, err
	}
	o.Month = calendar.MonthOf(first)
	return o, nil
}

// Get implements override.OverrideRepository.
func (r *overrideRepositoryImpl) Get(ctx context.Context, companyID, employeeID string, month calendar.Month) (override.MonthOverride, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + overrideColumns + `
		FROM attendance_month_overrides
		WHERE company_id = $1 AND employee_id = $2 AND month = $3
	`

	o, err := scanOverride(q.QueryRow(ctx, query, companyID, employeeID, month.FirstDay()))
	if err != nil {
		if err == pgx.ErrNoRows {
			return override.MonthOverride{}, override.ErrOverrideNotFound
		}
		return override.MonthOverride{}, fmt.Errorf("failed to get month override: %w", err)
	}
	return o, nil
}

// ListByMonth implements override.OverrideRepository.
func (r *overrideRepositoryImpl) ListByMonth(ctx context.Context, companyID string, month calendar.Month) ([]override.MonthOverride, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + overrideColumns + `
		FROM attendance_month_overrides
		WHERE company_id = $1 AND month = $2
		ORDER BY employee_id
	`

	rows, err := q.Query(ctx, query, companyID, month.FirstDay())
	if err != nil {
		return nil, fmt.Errorf("failed to list month overrides: %w", err)
	}
	defer rows.Close()

	var overrides []override.MonthOverride
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan month override: %w", err)
		}
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate month overrides: %w", err)
	}
	return overrides, nil
}

// Upsert implements override.OverrideRepository.
func (r *overrideRepositoryImpl) Upsert(ctx context.Context, o override.MonthOverride) (override.MonthOverride, error) {
	q := GetQuerier(ctx, r.db)

	if o.ID == "" {
		o.ID = uuid.Must(uuid.NewV7()).String()
	}

	query := `
		INSERT INTO attendance_month_overrides (
			id, company_id, employee_id, month, present_days, absent_days, paid_leave_days, ot_minutes,
			use_override, notes, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (employee_id, month) DO UPDATE SET
			present_days = EXCLUDED.present_days,
			absent_days = EXCLUDED.absent_days,
			paid_leave_days = EXCLUDED.paid_leave_days,
			ot_minutes = EXCLUDED.ot_minutes,
			use_override = EXCLUDED.use_override,
			notes = EXCLUDED.notes,
			updated_by = EXCLUDED.updated_by,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		o.ID, o.CompanyID, o.EmployeeID, o.Month.FirstDay(), o.PresentDays, o.AbsentDays, o.PaidLeaveDays, o.OTMinutes,
		o.UseOverride, o.Notes, o.UpdatedBy,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return override.MonthOverride{}, fmt.Errorf("failed to upsert month override: %w", err)
	}

	return o, nil
}

// Delete implements override.OverrideRepository.
func (r *overrideRepositoryImpl) Delete(ctx context.Context, companyID, employeeID string, month calendar.Month) error {
	q := GetQuerier(ctx, r.db)

	query := `
		DELETE FROM attendance_month_overrides
		WHERE company_id = $1 AND employee_id = $2 AND month = $3
	`

	tag, err := q.Exec(ctx, query, companyID, employeeID, month.FirstDay())
	if err != nil {
		return fmt.Errorf("failed to delete month override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return override.ErrOverrideNotFound
	}
	return nil
}
