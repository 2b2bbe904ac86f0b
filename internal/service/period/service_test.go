package period

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/period"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/batch"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-attendance-go/internal/service/servicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var june = calendar.Month{Year: 2024, Month: time.June}

func date(day int) time.Time {
	return time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func officeAssignment(grace int) schedule.ShiftAssignment {
	otAfter := 480
	return schedule.ShiftAssignment{
		ID:            "assign-1",
		Scope:         schedule.ScopeLocation,
		BranchID:      strPtr("branch-1"),
		EffectiveFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Shift: schedule.ShiftConfig{
			ID:                "office",
			StartMinute:       9 * 60,
			EndMinute:         18 * 60,
			BreakMinutes:      60,
			GraceMinutes:      grace,
			OTAfterMinutes:    &otAfter,
			MinHalfDayMinutes: 240,
			MinFullDayMinutes: 480,
		},
	}
}

func setup(t *testing.T) (*servicetest.Store, period.PeriodService) {
	t.Helper()

	store := servicetest.NewStore()
	store.AddEmployee(employee.Employee{ID: servicetest.Employee1, BranchID: "branch-1", FullName: "Budi Santoso"})
	store.AddEmployee(employee.Employee{ID: servicetest.Employee2, BranchID: "branch-1", FullName: "Siti Aminah"})
	store.AddEmployee(employee.Employee{ID: servicetest.Employee3, BranchID: "branch-1", FullName: "Agus", EmploymentStatus: employee.EmploymentStatusResigned})
	store.Timezones["branch-1"] = "UTC"
	store.Assignments = []schedule.ShiftAssignment{officeAssignment(10)}
	store.Rules = []schedule.WeeklyOffRule{
		{ID: "sat", Scope: schedule.ScopeLocation, BranchID: strPtr("branch-1"), Weekday: time.Saturday, IsOff: true},
		{ID: "sun", Scope: schedule.ScopeLocation, BranchID: strPtr("branch-1"), Weekday: time.Sunday, IsOff: true},
	}
	store.Holidays = []schedule.Holiday{{ID: "h-1", Date: date(17), Name: "Idul Adha"}}

	svc := NewPeriodService(
		store,
		store.Periods(),
		store.Attendance(),
		store.Employees(),
		store.Schedule(),
		batch.Options{ChunkSize: 1, Workers: 2, MaxAttempts: 2},
	)
	return store, svc
}

func monthReq() period.MonthRequest {
	return period.MonthRequest{Month: "2024-06"}
}

func TestGenerate_CreatesPeriodAndDays(t *testing.T) {
	store, svc := setup(t)

	resp, err := svc.Generate(servicetest.ManagerContext(), monthReq())
	require.NoError(t, err)

	assert.Equal(t, "open", resp.Period.Status)
	assert.NotNil(t, resp.Period.GeneratedAt)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 2, resp.Succeeded)
	assert.Equal(t, 0, resp.Failed)
	assert.Equal(t, int64(60), resp.Affected)
	assert.Equal(t, 60, store.DayCount())

	saturday, ok := store.Day(servicetest.Employee1, date(1))
	require.True(t, ok)
	assert.Equal(t, attendance.StatusWeeklyOff, saturday.Status)
	assert.Equal(t, attendance.SourceWeeklyOffRule, saturday.Source)

	holiday, _ := store.Day(servicetest.Employee1, date(17))
	assert.Equal(t, attendance.StatusHoliday, holiday.Status)
	assert.Equal(t, attendance.SourceHolidayCalendar, holiday.Source)
	require.NotNil(t, holiday.Notes)
	assert.Equal(t, "Idul Adha", *holiday.Notes)

	monday, _ := store.Day(servicetest.Employee2, date(3))
	assert.Equal(t, attendance.StatusUnmarked, monday.Status)
	assert.Equal(t, attendance.SourceSystem, monday.Source)
	require.NotNil(t, monday.ShiftID)
	assert.Equal(t, "office", *monday.ShiftID)

	_, ok = store.Day(servicetest.Employee3, date(3))
	assert.False(t, ok, "inactive employees are not generated")

	for _, d := range store.AllDays() {
		assert.Equal(t, servicetest.CompanyID, d.CompanyID)
		assert.Equal(t, time.June, d.Date.Month())
	}
}

func TestGenerate_IdempotentAndKeepsManualRows(t *testing.T) {
	store, svc := setup(t)

	_, err := svc.Generate(servicetest.ManagerContext(), monthReq())
	require.NoError(t, err)

	edited, _ := store.Day(servicetest.Employee1, date(3))
	edited.Status = attendance.StatusPresent
	edited.Source = attendance.SourceManual
	edited.Notes = strPtr("client visit")
	store.PutDay(edited)

	resp, err := svc.Generate(servicetest.ManagerContext(), monthReq())
	require.NoError(t, err)

	assert.Equal(t, int64(0), resp.Affected)
	assert.Equal(t, 60, store.DayCount())

	after, _ := store.Day(servicetest.Employee1, date(3))
	assert.Equal(t, attendance.StatusPresent, after.Status)
	assert.Equal(t, attendance.SourceManual, after.Source)
	assert.Equal(t, "client visit", *after.Notes)
}

func TestGenerate_FillsGapsForNewHire(t *testing.T) {
	store, svc := setup(t)
	_, err := svc.Generate(servicetest.ManagerContext(), monthReq())
	require.NoError(t, err)

	store.AddEmployee(employee.Employee{ID: servicetest.Employee4, BranchID: "branch-1", HireDate: date(10)})

	resp, err := svc.Generate(servicetest.ManagerContext(), monthReq())
	require.NoError(t, err)

	assert.Equal(t, int64(21), resp.Affected)
	_, ok := store.Day(servicetest.Employee4, date(9))
	assert.False(t, ok)
	_, ok = store.Day(servicetest.Employee4, date(10))
	assert.True(t, ok)
}

func TestGenerate_FrozenPeriod(t *testing.T) {
	store, svc := setup(t)
	store.PutPeriod(period.Period{ID: "p-1", Month: june, Status: period.StatusFrozen})

	_, err := svc.Generate(servicetest.ManagerContext(), monthReq())
	assert.ErrorIs(t, err, period.ErrPeriodLocked)
	assert.Equal(t, 0, store.DayCount())
}

func TestGenerate_PartialFailureIsReported(t *testing.T) {
	store, svc := setup(t)
	store.FailWrites(servicetest.Employee2, 2)

	resp, err := svc.Generate(servicetest.ManagerContext(), monthReq())
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, []string{servicetest.Employee2}, resp.Failures[0].EmployeeIDs)
	assert.Equal(t, 30, store.DayCount())

	// re-running completes the failed chunk
	resp, err = svc.Generate(servicetest.ManagerContext(), monthReq())
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Failed)
	assert.Equal(t, int64(30), resp.Affected)
	assert.Equal(t, 60, store.DayCount())
}

func TestGenerate_RetriesTransientFailure(t *testing.T) {
	store, svc := setup(t)
	store.FailWrites(servicetest.Employee2, 1)

	resp, err := svc.Generate(servicetest.ManagerContext(), monthReq())
	require.NoError(t, err)

	assert.Equal(t, 0, resp.Failed)
	assert.Equal(t, 60, store.DayCount())
}

func TestGenerate_RequiresManager(t *testing.T) {
	_, svc := setup(t)

	_, err := svc.Generate(servicetest.EmployeeContext(), monthReq())
	assert.ErrorIs(t, err, user.ErrAttendanceManageRequired)
}

func TestGet_NotGenerated(t *testing.T) {
	_, svc := setup(t)

	resp, err := svc.Get(servicetest.ManagerContext(), monthReq())
	require.NoError(t, err)
	assert.Equal(t, "not_generated", resp.Status)
	assert.Equal(t, "2024-06", resp.Month)
}

func TestFreezeUnfreeze_Transitions(t *testing.T) {
	_, svc := setup(t)
	ctx := servicetest.ManagerContext()

	_, err := svc.Freeze(ctx, monthReq())
	assert.ErrorIs(t, err, period.ErrPeriodNotGenerated)

	_, err = svc.Generate(ctx, monthReq())
	require.NoError(t, err)

	frozen, err := svc.Freeze(ctx, monthReq())
	require.NoError(t, err)
	assert.Equal(t, "frozen", frozen.Status)
	assert.NotNil(t, frozen.FrozenAt)
	require.NotNil(t, frozen.FrozenBy)
	assert.Equal(t, "user-1", *frozen.FrozenBy)

	_, err = svc.Freeze(ctx, monthReq())
	assert.ErrorIs(t, err, period.ErrPeriodAlreadyFrozen)

	opened, err := svc.Unfreeze(ctx, monthReq())
	require.NoError(t, err)
	assert.Equal(t, "open", opened.Status)
	assert.Nil(t, opened.FrozenAt)
	assert.Nil(t, opened.FrozenBy)

	_, err = svc.Unfreeze(ctx, monthReq())
	assert.ErrorIs(t, err, period.ErrPeriodNotFrozen)

	got, err := svc.Get(ctx, monthReq())
	require.NoError(t, err)
	assert.Equal(t, "open", got.Status)
}

func TestFreeze_ConcurrentCallsSerialize(t *testing.T) {
	store, svc := setup(t)
	store.PutPeriod(period.Period{ID: "p-1", Month: june, Status: period.StatusOpen})
	ctx := servicetest.ManagerContext()

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Freeze(ctx, monthReq())
		}(i)
	}
	wg.Wait()

	var succeeded, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, period.ErrPeriodAlreadyFrozen):
			conflicts++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicts)

	p, ok := store.Period(june)
	require.True(t, ok)
	assert.Equal(t, period.StatusFrozen, p.Status)
}

func TestFrozenPeriodLocksBatchOperations(t *testing.T) {
	store, svc := setup(t)
	ctx := servicetest.ManagerContext()

	_, err := svc.Generate(ctx, monthReq())
	require.NoError(t, err)
	_, err = svc.Freeze(ctx, monthReq())
	require.NoError(t, err)

	_, err = svc.Recompute(ctx, period.RecomputeRequest{MonthRequest: monthReq()})
	assert.ErrorIs(t, err, period.ErrPeriodLocked)

	_, err = svc.MarkWeekdaysPresent(ctx, period.MarkWeekdaysPresentRequest{MonthRequest: monthReq(), EmployeeIDs: []string{servicetest.Employee1}})
	assert.ErrorIs(t, err, period.ErrPeriodLocked)

	monday, _ := store.Day(servicetest.Employee1, date(3))
	assert.Equal(t, attendance.StatusUnmarked, monday.Status)

	_, err = svc.Unfreeze(ctx, monthReq())
	require.NoError(t, err)

	resp, err := svc.MarkWeekdaysPresent(ctx, period.MarkWeekdaysPresentRequest{MonthRequest: monthReq(), EmployeeIDs: []string{servicetest.Employee1}})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Failed)
}

func TestMarkWeekdaysPresent_OnlyUnmarkedWeekdays(t *testing.T) {
	store, svc := setup(t)
	ctx := servicetest.ManagerContext()

	_, err := svc.Generate(ctx, monthReq())
	require.NoError(t, err)

	absent, _ := store.Day(servicetest.Employee1, date(4))
	absent.Status = attendance.StatusAbsent
	absent.Source = attendance.SourceManual
	store.PutDay(absent)

	resp, err := svc.MarkWeekdaysPresent(ctx, period.MarkWeekdaysPresentRequest{MonthRequest: monthReq(), EmployeeIDs: []string{servicetest.Employee1}})
	require.NoError(t, err)

	// 20 weekdays minus the holiday and the absent day
	assert.Equal(t, int64(18), resp.Affected)

	monday, _ := store.Day(servicetest.Employee1, date(3))
	assert.Equal(t, attendance.StatusPresent, monday.Status)
	assert.Equal(t, attendance.SourceManual, monday.Source)
	assert.True(t, monday.DayFraction.Equal(attendance.FractionFull))

	stillAbsent, _ := store.Day(servicetest.Employee1, date(4))
	assert.Equal(t, attendance.StatusAbsent, stillAbsent.Status)

	holiday, _ := store.Day(servicetest.Employee1, date(17))
	assert.Equal(t, attendance.StatusHoliday, holiday.Status)

	saturday, _ := store.Day(servicetest.Employee1, date(8))
	assert.Equal(t, attendance.StatusWeeklyOff, saturday.Status)

	other, _ := store.Day(servicetest.Employee2, date(3))
	assert.Equal(t, attendance.StatusUnmarked, other.Status)
}

func TestMarkWeekdaysPresent_FailedChunkLeavesRowsUnchanged(t *testing.T) {
	store, _ := setup(t)
	svc := NewPeriodService(
		store,
		store.Periods(),
		store.Attendance(),
		store.Employees(),
		store.Schedule(),
		batch.Options{ChunkSize: 2, Workers: 1, MaxAttempts: 1},
	)
	ctx := servicetest.ManagerContext()

	_, err := svc.Generate(ctx, monthReq())
	require.NoError(t, err)

	// Employee1's weekdays are written first, then Employee2's first update fails.
	store.FailWrites(servicetest.Employee2, 1)

	resp, err := svc.MarkWeekdaysPresent(ctx, period.MarkWeekdaysPresentRequest{
		MonthRequest: monthReq(),
		EmployeeIDs:  []string{servicetest.Employee1, servicetest.Employee2},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Failed)
	assert.Equal(t, int64(0), resp.Affected)

	for _, d := range store.AllDays() {
		assert.NotEqual(t, attendance.StatusPresent, d.Status, "%s %s", d.EmployeeID, d.Date.Format(time.DateOnly))
	}
	monday, _ := store.Day(servicetest.Employee1, date(3))
	assert.Equal(t, attendance.StatusUnmarked, monday.Status)
}

func TestMarkWeekdaysPresent_UnknownEmployee(t *testing.T) {
	store, svc := setup(t)
	store.PutPeriod(period.Period{ID: "p-1", Month: june, Status: period.StatusOpen})

	_, err := svc.MarkWeekdaysPresent(servicetest.ManagerContext(), period.MarkWeekdaysPresentRequest{
		MonthRequest: monthReq(),
		EmployeeIDs:  []string{servicetest.Employee1, servicetest.UnknownEmployee},
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestRecompute_IdempotentAndSubset(t *testing.T) {
	store, svc := setup(t)
	ctx := servicetest.ManagerContext()
	store.PutPeriod(period.Period{ID: "p-1", Month: june, Status: period.StatusOpen})

	in := time.Date(2024, 6, 3, 9, 5, 0, 0, time.UTC)
	out := time.Date(2024, 6, 3, 18, 30, 0, 0, time.UTC)
	worked := attendance.DefaultDay(servicetest.CompanyID, servicetest.Employee1, date(3))
	worked.Status = attendance.StatusPresent
	worked.Source = attendance.SourceManual
	worked.CheckInAt = &in
	worked.CheckOutAt = &out
	store.PutDay(worked)

	lateIn := time.Date(2024, 6, 3, 9, 20, 0, 0, time.UTC)
	lateOut := time.Date(2024, 6, 3, 13, 0, 0, 0, time.UTC)
	late := attendance.DefaultDay(servicetest.CompanyID, servicetest.Employee2, date(3))
	late.Status = attendance.StatusPresent
	late.CheckInAt = &lateIn
	late.CheckOutAt = &lateOut
	store.PutDay(late)

	resp, err := svc.Recompute(ctx, period.RecomputeRequest{MonthRequest: monthReq()})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, int64(2), resp.Affected)

	got, _ := store.Day(servicetest.Employee1, date(3))
	assert.Equal(t, 505, got.WorkMinutes)
	assert.Equal(t, 25, got.OTMinutes)
	assert.Equal(t, attendance.StatusPresent, got.Status)
	assert.Equal(t, attendance.SourceManual, got.Source)

	got2, _ := store.Day(servicetest.Employee2, date(3))
	assert.Equal(t, 160, got2.WorkMinutes)
	assert.Equal(t, 10, got2.LateMinutes)

	again, err := svc.Recompute(ctx, period.RecomputeRequest{MonthRequest: monthReq()})
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.Affected)

	// a shift change only reaches the employees being recomputed
	store.Assignments = []schedule.ShiftAssignment{officeAssignment(0)}

	subset, err := svc.Recompute(ctx, period.RecomputeRequest{MonthRequest: monthReq(), EmployeeIDs: []string{servicetest.Employee2}})
	require.NoError(t, err)
	assert.Equal(t, 1, subset.Total)
	assert.Equal(t, int64(1), subset.Affected)

	got2, _ = store.Day(servicetest.Employee2, date(3))
	assert.Equal(t, 20, got2.LateMinutes)
	assert.Equal(t, 160, got2.WorkMinutes)

	got, _ = store.Day(servicetest.Employee1, date(3))
	assert.Equal(t, 505, got.WorkMinutes)
}

func TestRecompute_NotGenerated(t *testing.T) {
	_, svc := setup(t)

	_, err := svc.Recompute(servicetest.ManagerContext(), period.RecomputeRequest{MonthRequest: monthReq()})
	assert.ErrorIs(t, err, period.ErrPeriodLocked)
}
