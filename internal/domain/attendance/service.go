package attendance

import (
	"context"
)

// AttendanceService covers the per-day operations of the attendance store.
// Month-wide operations (generate, recompute, mark weekdays present) belong to
// the period controller.
type AttendanceService interface {
	// ManualEdit updates timestamps, notes and status of one day and
	// recomputes its metrics in the same transaction.
	ManualEdit(ctx context.Context, req ManualEditRequest) (DayResponse, error)

	// SyncExternalDay is the write path of the leave and holiday collaborators.
	SyncExternalDay(ctx context.Context, req SyncExternalDayRequest) (DayResponse, error)

	// GetDay returns a default unmarked day when the row does not exist.
	GetDay(ctx context.Context, employeeID string, date string) (DayResponse, error)

	ListDays(ctx context.Context, filter DayFilter) (ListDaysResponse, error)
}
