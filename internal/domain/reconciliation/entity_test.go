package reconciliation

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/override"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/period"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var june = calendar.Month{Year: 2024, Month: time.June}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

func day(status attendance.Status, fraction string, ot int, leaveType *string) attendance.Day {
	return attendance.Day{
		Status:      status,
		LeaveTypeID: leaveType,
		Metrics:     attendance.Metrics{DayFraction: dec(fraction), OTMinutes: ot},
	}
}

func monthDays() []attendance.Day {
	return []attendance.Day{
		day(attendance.StatusPresent, "1", 20, nil),
		day(attendance.StatusPresent, "0.5", 0, nil),
		day(attendance.StatusPresent, "1", 45, nil),
		day(attendance.StatusAbsent, "0", 0, nil),
		day(attendance.StatusAbsent, "0", 0, nil),
		day(attendance.StatusLeave, "1", 0, strPtr("annual")),
		day(attendance.StatusLeave, "0.5", 0, strPtr("annual")),
		day(attendance.StatusLeave, "1", 0, strPtr("unpaid")),
		day(attendance.StatusLeave, "1", 0, nil),
		day(attendance.StatusHoliday, "0", 30, nil),
		day(attendance.StatusWeeklyOff, "0", 0, nil),
		day(attendance.StatusUnmarked, "1", 0, nil),
	}
}

var paidFlags = leave.PaidFlags{"annual": true, "unpaid": false}

func TestAggregate(t *testing.T) {
	m := Aggregate(monthDays(), paidFlags)

	assert.True(t, dec("2.5").Equal(m.PresentDays), m.PresentDays.String())
	assert.True(t, dec("2").Equal(m.AbsentDays), m.AbsentDays.String())
	assert.True(t, dec("1.5").Equal(m.PaidLeaveDays), m.PaidLeaveDays.String())
	assert.Equal(t, 95, m.OTMinutes)
}

func TestAggregate_Empty(t *testing.T) {
	m := Aggregate(nil, nil)

	assert.True(t, m.PresentDays.IsZero())
	assert.True(t, m.AbsentDays.IsZero())
	assert.True(t, m.PaidLeaveDays.IsZero())
	assert.Equal(t, 0, m.OTMinutes)
}

func TestResolve_PerFieldFallback(t *testing.T) {
	computed := Aggregate(monthDays(), paidFlags)
	ot := 600

	effective := Resolve(computed, &override.MonthOverride{UseOverride: true, OTMinutes: &ot})

	assert.Equal(t, 600, effective.OTMinutes)
	assert.True(t, computed.PresentDays.Equal(effective.PresentDays))
	assert.True(t, computed.AbsentDays.Equal(effective.AbsentDays))
	assert.True(t, computed.PaidLeaveDays.Equal(effective.PaidLeaveDays))
}

func TestResolve_OverrideNotInUse(t *testing.T) {
	computed := Aggregate(monthDays(), paidFlags)
	ot := 600

	effective := Resolve(computed, &override.MonthOverride{
		UseOverride: false,
		PresentDays: decPtr("22"),
		OTMinutes:   &ot,
	})

	assert.Equal(t, computed, effective)
}

func TestResolve_AllFieldsNull(t *testing.T) {
	computed := Aggregate(monthDays(), paidFlags)

	effective := Resolve(computed, &override.MonthOverride{UseOverride: true})

	assert.Equal(t, computed, effective)
}

func TestResolve_EveryField(t *testing.T) {
	computed := Aggregate(monthDays(), paidFlags)
	ot := 0

	effective := Resolve(computed, &override.MonthOverride{
		UseOverride:   true,
		PresentDays:   decPtr("21"),
		AbsentDays:    decPtr("0"),
		PaidLeaveDays: decPtr("1"),
		OTMinutes:     &ot,
	})

	assert.True(t, dec("21").Equal(effective.PresentDays))
	assert.True(t, effective.AbsentDays.IsZero())
	assert.True(t, dec("1").Equal(effective.PaidLeaveDays))
	assert.Equal(t, 0, effective.OTMinutes)
}

func TestSummarize_NoOverride(t *testing.T) {
	p := period.Period{Month: june, Status: period.StatusOpen}

	s := Summarize(p, monthDays(), nil, paidFlags)

	assert.Equal(t, s.Computed, s.Effective)
	assert.False(t, s.AttendanceOverridden)
	assert.True(t, s.AttendanceUnfrozenWarning)
	assert.Nil(t, s.Override.PresentDays)
	assert.Nil(t, s.Override.OTMinutes)
}

func TestSummarize_FrozenWithOverride(t *testing.T) {
	p := period.Period{Month: june, Status: period.StatusFrozen}
	ot := 120

	s := Summarize(p, monthDays(), &override.MonthOverride{UseOverride: true, OTMinutes: &ot}, paidFlags)

	assert.True(t, s.AttendanceOverridden)
	assert.False(t, s.AttendanceUnfrozenWarning)
	assert.Equal(t, 120, s.Effective.OTMinutes)
	assert.Equal(t, 95, s.Computed.OTMinutes)
	assert.Equal(t, period.StatusFrozen, s.PeriodStatus)
}

func TestSummarize_OverrideRowWithoutValues(t *testing.T) {
	p := period.Period{Month: june, Status: period.StatusFrozen}

	s := Summarize(p, monthDays(), &override.MonthOverride{UseOverride: true}, paidFlags)

	assert.False(t, s.AttendanceOverridden)
	assert.True(t, s.UseOverride)
}

func TestSummarize_NotGeneratedPeriodWarns(t *testing.T) {
	s := Summarize(period.NotGenerated("c-1", june), nil, nil, nil)

	assert.True(t, s.AttendanceUnfrozenWarning)
	assert.Equal(t, period.StatusNotGenerated, s.PeriodStatus)
}
