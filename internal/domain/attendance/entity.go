package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Day is the attendance record of one employee on one calendar day.
// Date is the calendar day as UTC midnight.
type Day struct {
	ID          string
	CompanyID   string
	EmployeeID  string
	Date        time.Time
	Status      Status
	Source      Source
	CheckInAt   *time.Time
	CheckOutAt  *time.Time
	Notes       *string
	ShiftID     *string
	LeaveTypeID *string

	// LeaveFraction is the share of the day covered by leave (0.5 or 1),
	// written by leave sync.
	LeaveFraction *decimal.Decimal

	Metrics

	CreatedAt time.Time
	UpdatedAt time.Time

	// DTO
	EmployeeName *string
}

type Status string

const (
	StatusUnmarked  Status = "unmarked"
	StatusPresent   Status = "present"
	StatusAbsent    Status = "absent"
	StatusLeave     Status = "leave"
	StatusHoliday   Status = "holiday"
	StatusWeeklyOff Status = "weekly_off"
)

var Statuses = []string{
	string(StatusUnmarked),
	string(StatusPresent),
	string(StatusAbsent),
	string(StatusLeave),
	string(StatusHoliday),
	string(StatusWeeklyOff),
}

type Source string

const (
	SourceSystem          Source = "system"
	SourceManual          Source = "manual"
	SourceLeave           Source = "leave"
	SourceHolidayCalendar Source = "holiday_calendar"
	SourceWeeklyOffRule   Source = "weekly_off_rule"
)

// Immutable reports sources whose status is owned by an external writer.
func (s Source) Immutable() bool {
	return s == SourceLeave || s == SourceHolidayCalendar
}

func (d Day) HasCompleteTimes() bool {
	return d.CheckInAt != nil && d.CheckOutAt != nil
}

// CanChangeStatus reports whether a manual edit may move the day to status.
// Writing the current status again is not a change.
func (d Day) CanChangeStatus(status Status) bool {
	return status == d.Status || !d.Source.Immutable()
}

// Metrics are the values derived from check-in, check-out and the shift.
type Metrics struct {
	WorkMinutes       int
	LateMinutes       int
	EarlyLeaveMinutes int
	OTMinutes         int
	DayFraction       decimal.Decimal
}

var (
	FractionNone = decimal.Zero
	FractionHalf = decimal.NewFromFloat(0.5)
	FractionFull = decimal.NewFromInt(1)
)
