package reconciliation

import (
	"bytes"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/override"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/period"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/reconciliation"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/export"
	"github.com/cmlabs-hris/hris-attendance-go/internal/service/servicetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var june = calendar.Month{Year: 2024, Month: time.June}

func strPtr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func putDay(store *servicetest.Store, employeeID string, day int, status attendance.Status, fraction string, ot int, leaveType *string) {
	store.PutDay(attendance.Day{
		EmployeeID:  employeeID,
		Date:        time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC),
		Status:      status,
		Source:      attendance.SourceManual,
		LeaveTypeID: leaveType,
		Metrics:     attendance.Metrics{DayFraction: dec(fraction), OTMinutes: ot},
	})
}

func setup(t *testing.T, status period.Status) (*servicetest.Store, reconciliation.ReconciliationService) {
	t.Helper()
	store := servicetest.NewStore()

	resigned := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	store.AddEmployee(employee.Employee{ID: servicetest.Employee1, EmployeeCode: "E001", FullName: "Budi Santoso"})
	store.AddEmployee(employee.Employee{ID: servicetest.Employee2, EmployeeCode: "E002", FullName: "Siti Aminah"})
	store.AddEmployee(employee.Employee{ID: servicetest.Employee3, EmployeeCode: "E003", FullName: "Agus Salim", EmploymentStatus: employee.EmploymentStatusResigned, ResignationDate: &resigned})
	store.AddEmployee(employee.Employee{ID: servicetest.Employee4, EmployeeCode: "E004", FullName: "Dewi", EmploymentStatus: employee.EmploymentStatusResigned})

	store.LeaveTypes["annual"] = leave.LeaveType{ID: "annual", IsPaid: true}
	store.LeaveTypes["unpaid"] = leave.LeaveType{ID: "unpaid", IsPaid: false}

	putDay(store, servicetest.Employee1, 3, attendance.StatusPresent, "1", 20, nil)
	putDay(store, servicetest.Employee1, 4, attendance.StatusPresent, "0.5", 0, nil)
	putDay(store, servicetest.Employee1, 5, attendance.StatusAbsent, "0", 0, nil)
	putDay(store, servicetest.Employee1, 6, attendance.StatusLeave, "1", 0, strPtr("annual"))
	putDay(store, servicetest.Employee1, 7, attendance.StatusLeave, "1", 0, strPtr("unpaid"))
	putDay(store, servicetest.Employee3, 3, attendance.StatusPresent, "1", 45, nil)

	ot := 600
	store.PutOverride(override.MonthOverride{ID: "o-1", EmployeeID: servicetest.Employee1, Month: june, OTMinutes: &ot, UseOverride: true, Notes: strPtr("overtime approved late")})

	if status != period.StatusNotGenerated {
		store.PutPeriod(period.Period{ID: "p-1", Month: june, Status: status})
	}

	svc := NewReconciliationService(store.Attendance(), store.Periods(), store.Overrides(), store.Employees(), store.LeaveTypeRepo())
	return store, svc
}

func TestResolveEffective_PerFieldOverride(t *testing.T) {
	_, svc := setup(t, period.StatusFrozen)

	resp, err := svc.ResolveEffective(servicetest.ManagerContext(), reconciliation.EmployeeMonthRequest{EmployeeID: servicetest.Employee1, Month: "2024-06"})
	require.NoError(t, err)

	assert.True(t, dec("1.5").Equal(resp.Computed.PresentDays))
	assert.True(t, dec("1").Equal(resp.Computed.AbsentDays))
	assert.True(t, dec("1").Equal(resp.Computed.PaidLeaveDays))
	assert.Equal(t, 20, resp.Computed.OTMinutes)

	assert.Equal(t, 600, resp.Effective.OTMinutes)
	assert.True(t, resp.Computed.PresentDays.Equal(resp.Effective.PresentDays))
	assert.Nil(t, resp.Override.PresentDays)

	assert.True(t, resp.AttendanceOverridden)
	assert.False(t, resp.AttendanceUnfrozenWarning)
	assert.Equal(t, "frozen", resp.PeriodStatus)
	assert.Equal(t, "E001", resp.EmployeeCode)
}

func TestResolveEffective_NoOverride(t *testing.T) {
	_, svc := setup(t, period.StatusOpen)

	resp, err := svc.ResolveEffective(servicetest.ManagerContext(), reconciliation.EmployeeMonthRequest{EmployeeID: servicetest.Employee3, Month: "2024-06"})
	require.NoError(t, err)

	assert.Equal(t, resp.Computed, resp.Effective)
	assert.False(t, resp.AttendanceOverridden)
	assert.True(t, resp.AttendanceUnfrozenWarning)
	assert.Equal(t, 45, resp.Effective.OTMinutes)
}

func TestResolveEffective_RequiresViewer(t *testing.T) {
	_, svc := setup(t, period.StatusOpen)

	_, err := svc.ResolveEffective(servicetest.EmployeeContext(), reconciliation.EmployeeMonthRequest{EmployeeID: servicetest.Employee1, Month: "2024-06"})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
}

func TestView_ActiveAndFormerEmployeesWithData(t *testing.T) {
	_, svc := setup(t, period.StatusNotGenerated)

	resp, err := svc.View(servicetest.ManagerContext(), reconciliation.ViewRequest{Month: "2024-06"})
	require.NoError(t, err)

	assert.Equal(t, "not_generated", resp.PeriodStatus)
	assert.True(t, resp.AttendanceUnfrozenWarning)
	require.Equal(t, 3, resp.Total)
	assert.Equal(t, servicetest.Employee1, resp.Rows[0].EmployeeID)
	assert.Equal(t, servicetest.Employee2, resp.Rows[1].EmployeeID)
	assert.Equal(t, servicetest.Employee3, resp.Rows[2].EmployeeID)

	assert.True(t, resp.Rows[1].Effective.PresentDays.IsZero())
	assert.False(t, resp.Rows[1].AttendanceOverridden)
	assert.Equal(t, 600, resp.Rows[0].Effective.OTMinutes)
}

func TestView_SelectedEmployees(t *testing.T) {
	_, svc := setup(t, period.StatusFrozen)

	resp, err := svc.View(servicetest.ManagerContext(), reconciliation.ViewRequest{Month: "2024-06", EmployeeIDs: []string{servicetest.Employee3}})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, servicetest.Employee3, resp.Rows[0].EmployeeID)

	_, err = svc.View(servicetest.ManagerContext(), reconciliation.ViewRequest{Month: "2024-06", EmployeeIDs: []string{servicetest.UnknownEmployee}})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestExport_Workbook(t *testing.T) {
	_, svc := setup(t, period.StatusFrozen)

	file, err := svc.Export(servicetest.ManagerContext(), reconciliation.ViewRequest{Month: "2024-06"})
	require.NoError(t, err)

	assert.Equal(t, "attendance_reconciliation_2024-06.xlsx", file.Filename)
	assert.Equal(t, export.ContentTypeXLSX, file.ContentType)

	f, err := excelize.OpenReader(bytes.NewReader(file.Content))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Reconciliation")
	require.NoError(t, err)
	// title, two meta rows, spacer, header, three employees
	require.Len(t, rows, 8)
	assert.Equal(t, "Attendance Reconciliation 2024-06", rows[0][0])
	assert.Equal(t, []string{"Period Status", "frozen"}, rows[1])
	assert.Equal(t, "Employee Code", rows[4][0])
	assert.Equal(t, "E001", rows[5][0])
	assert.Equal(t, "Budi Santoso", rows[5][1])
	assert.Equal(t, "600", rows[5][14])
	assert.Equal(t, "Yes", rows[5][15])
}
