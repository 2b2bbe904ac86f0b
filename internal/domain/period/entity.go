package period

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
)

// Period is the per-(company, month) lock over attendance days. A month
// without a row reads as StatusNotGenerated.
type Period struct {
	ID          string
	CompanyID   string
	Month       calendar.Month
	Status      Status
	FrozenAt    *time.Time
	FrozenBy    *string
	GeneratedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Status string

const (
	StatusNotGenerated Status = "not_generated"
	StatusOpen         Status = "open"
	StatusFrozen       Status = "frozen"
)

// NotGenerated is the virtual period of a month that has no row.
func NotGenerated(companyID string, month calendar.Month) Period {
	return Period{CompanyID: companyID, Month: month, Status: StatusNotGenerated}
}

func (p Period) IsOpen() bool {
	return p.Status == StatusOpen
}

func (p Period) IsFrozen() bool {
	return p.Status == StatusFrozen
}

// RequireOpen guards every mutation of the month's days.
func (p Period) RequireOpen() error {
	if p.Status != StatusOpen {
		return ErrPeriodLocked
	}
	return nil
}

// CanGenerate allows generation before the first run and while open.
func (p Period) CanGenerate() error {
	if p.Status == StatusFrozen {
		return ErrPeriodLocked
	}
	return nil
}

// Freeze moves open to frozen.
func (p *Period) Freeze(by string, at time.Time) error {
	switch p.Status {
	case StatusFrozen:
		return ErrPeriodAlreadyFrozen
	case StatusNotGenerated:
		return ErrPeriodNotGenerated
	}
	p.Status = StatusFrozen
	p.FrozenAt = &at
	if by != "" {
		p.FrozenBy = &by
	} else {
		p.FrozenBy = nil
	}
	p.UpdatedAt = at
	return nil
}

// Unfreeze moves frozen back to open and clears the freeze stamp.
func (p *Period) Unfreeze(at time.Time) error {
	switch p.Status {
	case StatusOpen:
		return ErrPeriodNotFrozen
	case StatusNotGenerated:
		return ErrPeriodNotGenerated
	}
	p.Status = StatusOpen
	p.FrozenAt = nil
	p.FrozenBy = nil
	p.UpdatedAt = at
	return nil
}

// BatchResult summarises a chunked batch operation. Failed chunks are listed
// and can be completed by running the operation again.
type BatchResult struct {
	Total     int
	Succeeded int
	Failed    int
	Affected  int64
	Failures  []BatchFailure
}

type BatchFailure struct {
	EmployeeIDs []string
	Err         error
}

func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}
