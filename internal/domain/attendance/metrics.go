package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/shopspring/decimal"
)

// ComputeMetrics derives the day metrics from check-in and check-out against
// the shift anchored on day in loc. It depends on nothing but its arguments,
// so recomputing after a shift change always yields the same result.
//
// Missing timestamps give zero metrics; the caller decides the fraction from
// the status (see Derive). Without a shift the raw duration counts as work and
// the day is a full day.
func ComputeMetrics(day time.Time, checkIn, checkOut *time.Time, shift *schedule.ShiftConfig, loc *time.Location) Metrics {
	m := Metrics{DayFraction: FractionNone}
	if checkIn == nil || checkOut == nil {
		return m
	}
	if loc == nil {
		loc = time.UTC
	}
	in := checkIn.In(loc)
	out := checkOut.In(loc)

	if shift == nil {
		m.WorkMinutes = minutes(out.Sub(in))
		m.DayFraction = FractionFull
		return m
	}

	start := shift.StartOn(day, loc)
	end := shift.EndOn(day, loc)
	lateAfter := start.Add(time.Duration(shift.GraceMinutes) * time.Minute)

	// Grace only affects lateness; work is the full attended span minus break.
	m.WorkMinutes = minutes(out.Sub(in)) - shift.BreakMinutes
	if m.WorkMinutes < 0 {
		m.WorkMinutes = 0
	}

	m.LateMinutes = minutes(in.Sub(lateAfter))

	if !shift.CrossesMidnight() || sameDate(out, end) {
		m.EarlyLeaveMinutes = minutes(end.Sub(out))
	}

	if shift.OTAfterMinutes != nil {
		m.OTMinutes = m.WorkMinutes - *shift.OTAfterMinutes
		if m.OTMinutes < 0 {
			m.OTMinutes = 0
		}
	}

	m.DayFraction = fractionFor(m.WorkMinutes, shift)
	return m
}

func fractionFor(work int, shift *schedule.ShiftConfig) decimal.Decimal {
	switch {
	case work >= shift.MinFullDayMinutes:
		return FractionFull
	case work >= shift.MinHalfDayMinutes:
		return FractionHalf
	default:
		return FractionNone
	}
}

// Derive computes the metrics of d and applies the status rule to the
// fraction:
//   - present: computed fraction, or 1 when times are incomplete
//   - leave: the leave fraction (1 when not set)
//   - unmarked: computed fraction
//   - absent, holiday, weekly_off: 0
func Derive(d Day, shift *schedule.ShiftConfig, loc *time.Location) Metrics {
	m := ComputeMetrics(d.Date, d.CheckInAt, d.CheckOutAt, shift, loc)

	switch d.Status {
	case StatusPresent:
		if !d.HasCompleteTimes() {
			m.DayFraction = FractionFull
		}
	case StatusLeave:
		m.DayFraction = FractionFull
		if d.LeaveFraction != nil {
			m.DayFraction = *d.LeaveFraction
		}
	case StatusUnmarked:
	default:
		m.DayFraction = FractionNone
	}

	return m
}

// minutes truncates to whole minutes and clamps at zero.
func minutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Rederive recomputes the metrics of d with the shift the snapshot resolves
// for the employee on that day and records which shift was used.
func Rederive(d Day, snap schedule.Snapshot, emp schedule.EmployeeRef) Day {
	shift := snap.Shifts.Resolve(emp, d.Date)
	d.Metrics = Derive(d, shift, snap.Location(emp))
	d.ShiftID = nil
	if shift != nil {
		id := shift.ID
		d.ShiftID = &id
	}
	return d
}
