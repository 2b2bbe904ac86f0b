package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
)

// AttendanceRepository defines data access methods for attendance days.
// All methods include companyID parameter to prevent cross-company data access.
type AttendanceRepository interface {
	// GetByEmployeeAndDate returns ErrAttendanceNotFound when the row is missing.
	GetByEmployeeAndDate(ctx context.Context, companyID, employeeID string, date time.Time) (Day, error)

	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, companyID, employeeID string, date time.Time) (Day, error)

	// ListByMonth returns the days of the month ordered by employee and date.
	// An empty employeeIDs means every employee.
	ListByMonth(ctx context.Context, companyID string, month calendar.Month, employeeIDs []string) ([]Day, error)

	// ListEmployeeIDs returns the employees that have at least one day in the
	// month, active or not.
	ListEmployeeIDs(ctx context.Context, companyID string, month calendar.Month) ([]string, error)

	// LockByMonth is ListByMonth with the rows locked FOR UPDATE.
	LockByMonth(ctx context.Context, companyID string, month calendar.Month, employeeIDs []string) ([]Day, error)

	// InsertMissing inserts days that do not exist yet and leaves existing
	// rows untouched. It returns the number of rows inserted.
	InsertMissing(ctx context.Context, days []Day) (int64, error)

	// Update writes status, source, timestamps, notes and metrics of a day.
	Update(ctx context.Context, day Day) error

	// UpdateMetrics writes only the derived metrics and shift of each day.
	UpdateMetrics(ctx context.Context, days []Day) error

	// Upsert creates or replaces a day written by an external collaborator.
	Upsert(ctx context.Context, day Day) (Day, error)
}
