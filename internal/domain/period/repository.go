package period

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
)

type PeriodRepository interface {
	// Get returns NotGenerated for a month without a row.
	Get(ctx context.Context, companyID string, month calendar.Month) (Period, error)

	// GetForUpdate locks the period row; used by state transitions.
	GetForUpdate(ctx context.Context, companyID string, month calendar.Month) (Period, error)

	// GetForShare takes a shared lock so day writes block a concurrent freeze
	// until they commit.
	GetForShare(ctx context.Context, companyID string, month calendar.Month) (Period, error)

	// CreateOpen inserts the open period if it does not exist and returns the
	// stored row either way.
	CreateOpen(ctx context.Context, p Period) (Period, error)

	// UpdateStatus writes status and freeze stamp.
	UpdateStatus(ctx context.Context, p Period) error

	// TouchGenerated records the last generation time.
	TouchGenerated(ctx context.Context, p Period) error
}
