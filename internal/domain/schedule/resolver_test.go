package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestShiftPlan_EmployeeOverridesLocation(t *testing.T) {
	office := ShiftConfig{ID: "office", StartMinute: 9 * 60, EndMinute: 18 * 60}
	night := ShiftConfig{ID: "night", StartMinute: 22 * 60, EndMinute: 6 * 60}

	plan := NewShiftPlan([]ShiftAssignment{
		{Scope: ScopeLocation, BranchID: strPtr("jkt"), EffectiveFrom: date(2024, 1, 1), Shift: office},
		{Scope: ScopeEmployee, EmployeeID: strPtr("emp-2"), EffectiveFrom: date(2024, 6, 10), EffectiveTo: ptrTime(date(2024, 6, 20)), Shift: night},
	})

	emp1 := EmployeeRef{ID: "emp-1", BranchID: "jkt"}
	emp2 := EmployeeRef{ID: "emp-2", BranchID: "jkt"}

	got := plan.Resolve(emp1, date(2024, 6, 15))
	require.NotNil(t, got)
	assert.Equal(t, "office", got.ID)

	got = plan.Resolve(emp2, date(2024, 6, 15))
	require.NotNil(t, got)
	assert.Equal(t, "night", got.ID)

	// outside the employee assignment window the location default applies again
	got = plan.Resolve(emp2, date(2024, 6, 21))
	require.NotNil(t, got)
	assert.Equal(t, "office", got.ID)

	assert.Nil(t, plan.Resolve(EmployeeRef{ID: "emp-3", BranchID: "sby"}, date(2024, 6, 15)))
}

func TestShiftPlan_LatestEffectiveWins(t *testing.T) {
	plan := NewShiftPlan([]ShiftAssignment{
		{Scope: ScopeLocation, BranchID: strPtr("jkt"), EffectiveFrom: date(2024, 1, 1), Shift: ShiftConfig{ID: "old"}},
		{Scope: ScopeLocation, BranchID: strPtr("jkt"), EffectiveFrom: date(2024, 6, 1), Shift: ShiftConfig{ID: "new"}},
	})
	emp := EmployeeRef{ID: "emp-1", BranchID: "jkt"}

	assert.Equal(t, "old", plan.Resolve(emp, date(2024, 5, 31)).ID)
	assert.Equal(t, "new", plan.Resolve(emp, date(2024, 6, 1)).ID)
	assert.Nil(t, plan.Resolve(emp, date(2023, 12, 31)))
}

func TestDayCalendar_WeeklyOffChain(t *testing.T) {
	cal := NewDayCalendar([]WeeklyOffRule{
		{Scope: ScopeLocation, BranchID: strPtr("jkt"), Weekday: time.Saturday, IsOff: true},
		{Scope: ScopeLocation, BranchID: strPtr("jkt"), Weekday: time.Sunday, IsOff: true},
		// second Saturday is a working day at this location
		{Scope: ScopeLocation, BranchID: strPtr("jkt"), Weekday: time.Saturday, WeekOfMonth: intPtr(2), IsOff: false},
		// emp-2 works Sundays but is off on Mondays
		{Scope: ScopeEmployee, EmployeeID: strPtr("emp-2"), Weekday: time.Sunday, IsOff: false},
		{Scope: ScopeEmployee, EmployeeID: strPtr("emp-2"), Weekday: time.Monday, IsOff: true},
	}, nil)

	emp1 := EmployeeRef{ID: "emp-1", BranchID: "jkt"}
	emp2 := EmployeeRef{ID: "emp-2", BranchID: "jkt"}

	// June 2024: 1st is Saturday (week 1), 8th is Saturday (week 2), 2nd Sunday, 3rd Monday.
	assert.Equal(t, DayKindWeeklyOff, cal.Classify(emp1, date(2024, 6, 1)))
	assert.Equal(t, DayKindWorking, cal.Classify(emp1, date(2024, 6, 8)))
	assert.Equal(t, DayKindWeeklyOff, cal.Classify(emp1, date(2024, 6, 2)))
	assert.Equal(t, DayKindWorking, cal.Classify(emp1, date(2024, 6, 3)))

	assert.Equal(t, DayKindWorking, cal.Classify(emp2, date(2024, 6, 2)))
	assert.Equal(t, DayKindWeeklyOff, cal.Classify(emp2, date(2024, 6, 3)))
	// no employee rule for Saturday: location rule applies
	assert.Equal(t, DayKindWeeklyOff, cal.Classify(emp2, date(2024, 6, 1)))
}

func TestDayCalendar_HolidayBeatsWeeklyOff(t *testing.T) {
	cal := NewDayCalendar(
		[]WeeklyOffRule{{Scope: ScopeLocation, BranchID: strPtr("jkt"), Weekday: time.Saturday, IsOff: true}},
		[]Holiday{
			{Date: date(2024, 6, 1), Name: "Pancasila Day"},
			{Date: date(2024, 6, 17), Name: "Branch Anniversary", BranchID: strPtr("sby")},
		},
	)

	jkt := EmployeeRef{ID: "emp-1", BranchID: "jkt"}
	sby := EmployeeRef{ID: "emp-2", BranchID: "sby"}

	assert.Equal(t, DayKindHoliday, cal.Classify(jkt, date(2024, 6, 1)))
	assert.Equal(t, DayKindWorking, cal.Classify(jkt, date(2024, 6, 17)))
	assert.Equal(t, DayKindHoliday, cal.Classify(sby, date(2024, 6, 17)))
}

func TestShiftConfig_Anchors(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	night := ShiftConfig{StartMinute: 22 * 60, EndMinute: 6 * 60}
	require.True(t, night.CrossesMidnight())

	day := date(2024, 6, 3)
	assert.Equal(t, time.Date(2024, 6, 3, 22, 0, 0, 0, loc), night.StartOn(day, loc))
	assert.Equal(t, time.Date(2024, 6, 4, 6, 0, 0, 0, loc), night.EndOn(day, loc))

	office := ShiftConfig{StartMinute: 9 * 60, EndMinute: 18 * 60}
	assert.False(t, office.CrossesMidnight())
	assert.Equal(t, time.Date(2024, 6, 3, 18, 0, 0, 0, loc), office.EndOn(day, loc))
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, m)
	assert.Equal(t, "09:30", FormatClock(m))

	_, err = ParseClock("9.30")
	assert.ErrorIs(t, err, ErrInvalidShiftTime)
}

func ptrTime(t time.Time) *time.Time { return &t }
