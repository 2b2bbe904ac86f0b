package leave

import "time"

// LeaveType is the read-only slice of the leave-type master the attendance
// engine needs: whether a day of this leave counts as paid.
type LeaveType struct {
	ID        string
	CompanyID string
	Name      string
	Code      *string
	IsPaid    bool
	IsActive  *bool

	// Deduction Rules
	AllowHalfDay *bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PaidFlags maps leave type id to its paid flag.
type PaidFlags map[string]bool

// IsPaid treats a missing or unknown leave type as unpaid.
func (f PaidFlags) IsPaid(leaveTypeID *string) bool {
	if leaveTypeID == nil {
		return false
	}
	return f[*leaveTypeID]
}
