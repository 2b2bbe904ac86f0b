package reconciliation

import (
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/override"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/period"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
	"github.com/shopspring/decimal"
)

// Measures are the four monthly figures payroll consumes.
type Measures struct {
	PresentDays   decimal.Decimal
	AbsentDays    decimal.Decimal
	PaidLeaveDays decimal.Decimal
	OTMinutes     int
}

func ZeroMeasures() Measures {
	return Measures{
		PresentDays:   decimal.Zero,
		AbsentDays:    decimal.Zero,
		PaidLeaveDays: decimal.Zero,
	}
}

// OverrideMeasures holds the override value of each measure, nil when the
// measure is not overridden.
type OverrideMeasures struct {
	PresentDays   *decimal.Decimal
	AbsentDays    *decimal.Decimal
	PaidLeaveDays *decimal.Decimal
	OTMinutes     *int
}

// Aggregate sums the days of one employee's month:
//   - present days: day fraction of present days
//   - absent days: count of absent days
//   - paid leave days: day fraction of leave days whose leave type is paid
//   - OT minutes: OT of every day
func Aggregate(days []attendance.Day, paid leave.PaidFlags) Measures {
	m := ZeroMeasures()
	one := decimal.NewFromInt(1)
	for _, d := range days {
		switch d.Status {
		case attendance.StatusPresent:
			m.PresentDays = m.PresentDays.Add(d.DayFraction)
		case attendance.StatusAbsent:
			m.AbsentDays = m.AbsentDays.Add(one)
		case attendance.StatusLeave:
			if paid.IsPaid(d.LeaveTypeID) {
				m.PaidLeaveDays = m.PaidLeaveDays.Add(d.DayFraction)
			}
		}
		m.OTMinutes += d.OTMinutes
	}
	return m
}

// Resolve picks the effective value of each measure independently: the
// override value when the override is in use and that measure is set,
// otherwise the computed value.
func Resolve(computed Measures, o *override.MonthOverride) Measures {
	effective := computed
	if o == nil || !o.UseOverride {
		return effective
	}
	if o.PresentDays != nil {
		effective.PresentDays = *o.PresentDays
	}
	if o.AbsentDays != nil {
		effective.AbsentDays = *o.AbsentDays
	}
	if o.PaidLeaveDays != nil {
		effective.PaidLeaveDays = *o.PaidLeaveDays
	}
	if o.OTMinutes != nil {
		effective.OTMinutes = *o.OTMinutes
	}
	return effective
}

// MonthSummary is one row of the reconciliation view.
type MonthSummary struct {
	EmployeeID   string
	EmployeeCode string
	EmployeeName string
	Month        calendar.Month
	PeriodStatus period.Status

	Computed  Measures
	Override  OverrideMeasures
	Effective Measures

	UseOverride bool
	Notes       *string

	// AttendanceOverridden: an override row is in use and sets at least one
	// measure.
	AttendanceOverridden bool
	// AttendanceUnfrozenWarning: the period is not frozen, so the baseline can
	// still change.
	AttendanceUnfrozenWarning bool
}

// Summarize builds the summary of one employee from the month's days, the
// override row (nil when absent) and the period.
func Summarize(p period.Period, days []attendance.Day, o *override.MonthOverride, paid leave.PaidFlags) MonthSummary {
	computed := Aggregate(days, paid)
	s := MonthSummary{
		Month:                     p.Month,
		PeriodStatus:              p.Status,
		Computed:                  computed,
		Effective:                 Resolve(computed, o),
		AttendanceUnfrozenWarning: !p.IsFrozen(),
	}
	if o != nil {
		s.Override = OverrideMeasures{
			PresentDays:   o.PresentDays,
			AbsentDays:    o.AbsentDays,
			PaidLeaveDays: o.PaidLeaveDays,
			OTMinutes:     o.OTMinutes,
		}
		s.UseOverride = o.UseOverride
		s.Notes = o.Notes
		s.AttendanceOverridden = o.Active()
	}
	return s
}
