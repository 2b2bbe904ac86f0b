package override

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
)

type OverrideRepository interface {
	// Get returns ErrOverrideNotFound when the employee has no override.
	Get(ctx context.Context, companyID, employeeID string, month calendar.Month) (MonthOverride, error)

	ListByMonth(ctx context.Context, companyID string, month calendar.Month) ([]MonthOverride, error)

	// Upsert creates or replaces the override of (employee, month).
	Upsert(ctx context.Context, o MonthOverride) (MonthOverride, error)

	// Delete returns ErrOverrideNotFound when there is nothing to clear.
	Delete(ctx context.Context, companyID, employeeID string, month calendar.Month) error
}
