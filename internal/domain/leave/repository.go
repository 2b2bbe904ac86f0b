package leave

import "context"

type LeaveTypeRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (LeaveType, error)

	// GetPaidFlags returns the paid flag of every leave type of the company.
	GetPaidFlags(ctx context.Context, companyID string) (PaidFlags, error)
}
