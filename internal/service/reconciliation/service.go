package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"sort"
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
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type ReconciliationServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	periodRepo     period.PeriodRepository
	overrideRepo   override.OverrideRepository
	employeeRepo   employee.EmployeeRepository
	leaveTypeRepo  leave.LeaveTypeRepository
	now            func() time.Time
}

func NewReconciliationService(
	attendanceRepo attendance.AttendanceRepository,
	periodRepo period.PeriodRepository,
	overrideRepo override.OverrideRepository,
	employeeRepo employee.EmployeeRepository,
	leaveTypeRepo leave.LeaveTypeRepository,
) reconciliation.ReconciliationService {
	return &ReconciliationServiceImpl{
		attendanceRepo: attendanceRepo,
		periodRepo:     periodRepo,
		overrideRepo:   overrideRepo,
		employeeRepo:   employeeRepo,
		leaveTypeRepo:  leaveTypeRepo,
		now:            time.Now,
	}
}

// ResolveEffective implements reconciliation.ReconciliationService.
func (s *ReconciliationServiceImpl) ResolveEffective(ctx context.Context, req reconciliation.EmployeeMonthRequest) (reconciliation.SummaryResponse, error) {
	actor, err := user.ViewerFromContext(ctx)
	if err != nil {
		return reconciliation.SummaryResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return reconciliation.SummaryResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, actor.CompanyID)
	if err != nil {
		return reconciliation.SummaryResponse{}, err
	}

	m, err := s.loadMonth(ctx, actor.CompanyID, req.ParsedMonth, []string{emp.ID})
	if err != nil {
		return reconciliation.SummaryResponse{}, err
	}

	return reconciliation.ToResponse(m.summarize(emp)), nil
}

// View implements reconciliation.ReconciliationService.
func (s *ReconciliationServiceImpl) View(ctx context.Context, req reconciliation.ViewRequest) (reconciliation.ViewResponse, error) {
	actor, err := user.ViewerFromContext(ctx)
	if err != nil {
		return reconciliation.ViewResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return reconciliation.ViewResponse{}, err
	}

	summaries, p, err := s.view(ctx, actor.CompanyID, req)
	if err != nil {
		return reconciliation.ViewResponse{}, err
	}

	resp := reconciliation.ViewResponse{
		Month:                     req.ParsedMonth.String(),
		PeriodStatus:              string(p.Status),
		AttendanceUnfrozenWarning: !p.IsFrozen(),
		Total:                     len(summaries),
		Rows:                      make([]reconciliation.SummaryResponse, 0, len(summaries)),
	}
	for _, summary := range summaries {
		resp.Rows = append(resp.Rows, reconciliation.ToResponse(summary))
	}
	return resp, nil
}

// Export implements reconciliation.ReconciliationService.
func (s *ReconciliationServiceImpl) Export(ctx context.Context, req reconciliation.ViewRequest) (reconciliation.ExportFile, error) {
	actor, err := user.ViewerFromContext(ctx)
	if err != nil {
		return reconciliation.ExportFile{}, err
	}
	if err := req.Validate(); err != nil {
		return reconciliation.ExportFile{}, err
	}

	summaries, p, err := s.view(ctx, actor.CompanyID, req)
	if err != nil {
		return reconciliation.ExportFile{}, err
	}

	content, err := export.WriteXLSX(reconciliationSheet(p, summaries, s.now()))
	if err != nil {
		return reconciliation.ExportFile{}, fmt.Errorf("failed to render reconciliation export: %w", err)
	}

	return reconciliation.ExportFile{
		Filename:    fmt.Sprintf("attendance_reconciliation_%s.xlsx", req.ParsedMonth.String()),
		ContentType: export.ContentTypeXLSX,
		Content:     content,
	}, nil
}

// view returns one summary per employee, ordered by employee code.
func (s *ReconciliationServiceImpl) view(ctx context.Context, companyID string, req reconciliation.ViewRequest) ([]reconciliation.MonthSummary, period.Period, error) {
	employees, err := s.viewEmployees(ctx, companyID, req)
	if err != nil {
		return nil, period.Period{}, err
	}

	m, err := s.loadMonth(ctx, companyID, req.ParsedMonth, req.EmployeeIDs)
	if err != nil {
		return nil, period.Period{}, err
	}

	summaries := make([]reconciliation.MonthSummary, 0, len(employees))
	for _, emp := range employees {
		summaries = append(summaries, m.summarize(emp))
	}
	return summaries, m.period, nil
}

// viewEmployees picks the requested employees, or every active employee plus
// anyone with days or an override in the month.
func (s *ReconciliationServiceImpl) viewEmployees(ctx context.Context, companyID string, req reconciliation.ViewRequest) ([]employee.Employee, error) {
	if len(req.EmployeeIDs) > 0 {
		employees, err := s.employeeRepo.ListByIDs(ctx, companyID, req.EmployeeIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to list employees: %w", err)
		}
		found := make(map[string]bool, len(employees))
		for _, e := range employees {
			found[e.ID] = true
		}
		for _, id := range req.EmployeeIDs {
			if !found[id] {
				return nil, fmt.Errorf("employee %s: %w", id, employee.ErrEmployeeNotFound)
			}
		}
		return sortEmployees(employees), nil
	}

	var (
		active    []employee.Employee
		withDays  []string
		overrides []override.MonthOverride
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		active, err = s.employeeRepo.GetActiveByCompanyID(gctx, companyID)
		if err != nil {
			return fmt.Errorf("failed to list active employees: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		withDays, err = s.attendanceRepo.ListEmployeeIDs(gctx, companyID, req.ParsedMonth)
		if err != nil {
			return fmt.Errorf("failed to list employees with attendance: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		overrides, err = s.overrideRepo.ListByMonth(gctx, companyID, req.ParsedMonth)
		if err != nil {
			return fmt.Errorf("failed to list month overrides: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(active))
	employees := append([]employee.Employee(nil), active...)
	for _, e := range active {
		seen[e.ID] = true
	}

	var former []string
	for _, id := range withDays {
		if !seen[id] {
			seen[id] = true
			former = append(former, id)
		}
	}
	for _, o := range overrides {
		if !seen[o.EmployeeID] {
			seen[o.EmployeeID] = true
			former = append(former, o.EmployeeID)
		}
	}
	if len(former) > 0 {
		rest, err := s.employeeRepo.ListByIDs(ctx, companyID, former)
		if err != nil {
			return nil, fmt.Errorf("failed to list employees: %w", err)
		}
		employees = append(employees, rest...)
	}

	return sortEmployees(employees), nil
}

func sortEmployees(employees []employee.Employee) []employee.Employee {
	sort.SliceStable(employees, func(i, j int) bool {
		if employees[i].EmployeeCode != employees[j].EmployeeCode {
			return employees[i].EmployeeCode < employees[j].EmployeeCode
		}
		return employees[i].ID < employees[j].ID
	})
	return employees
}

// monthData is everything needed to summarize employees of one month.
type monthData struct {
	period    period.Period
	days      map[string][]attendance.Day
	overrides map[string]override.MonthOverride
	paid      leave.PaidFlags
}

func (m monthData) summarize(emp employee.Employee) reconciliation.MonthSummary {
	var o *override.MonthOverride
	if found, ok := m.overrides[emp.ID]; ok {
		o = &found
	}
	summary := reconciliation.Summarize(m.period, m.days[emp.ID], o, m.paid)
	summary.EmployeeID = emp.ID
	summary.EmployeeCode = emp.EmployeeCode
	summary.EmployeeName = emp.FullName
	return summary
}

// loadMonth reads the period, days, overrides and paid flags concurrently.
// An empty employeeIDs loads the whole company.
func (s *ReconciliationServiceImpl) loadMonth(ctx context.Context, companyID string, month calendar.Month, employeeIDs []string) (monthData, error) {
	var (
		m = monthData{
			days:      make(map[string][]attendance.Day),
			overrides: make(map[string]override.MonthOverride),
		}
		days      []attendance.Day
		overrides []override.MonthOverride
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.periodRepo.Get(gctx, companyID, month)
		if err != nil {
			return fmt.Errorf("failed to get attendance period: %w", err)
		}
		m.period = p
		return nil
	})
	g.Go(func() error {
		var err error
		days, err = s.attendanceRepo.ListByMonth(gctx, companyID, month, employeeIDs)
		if err != nil {
			return fmt.Errorf("failed to list attendance days: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if len(employeeIDs) == 1 {
			o, err := s.overrideRepo.Get(gctx, companyID, employeeIDs[0], month)
			if errors.Is(err, override.ErrOverrideNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to get month override: %w", err)
			}
			overrides = []override.MonthOverride{o}
			return nil
		}
		var err error
		overrides, err = s.overrideRepo.ListByMonth(gctx, companyID, month)
		if err != nil {
			return fmt.Errorf("failed to list month overrides: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		paid, err := s.leaveTypeRepo.GetPaidFlags(gctx, companyID)
		if err != nil {
			return fmt.Errorf("failed to get leave type flags: %w", err)
		}
		m.paid = paid
		return nil
	})
	if err := g.Wait(); err != nil {
		return monthData{}, err
	}

	for _, d := range days {
		m.days[d.EmployeeID] = append(m.days[d.EmployeeID], d)
	}
	for _, o := range overrides {
		m.overrides[o.EmployeeID] = o
	}
	return m, nil
}

func reconciliationSheet(p period.Period, summaries []reconciliation.MonthSummary, generatedAt time.Time) export.Sheet {
	sheet := export.Sheet{
		Name:  "Reconciliation",
		Title: "Attendance Reconciliation " + p.Month.String(),
		Meta: [][2]string{
			{"Period Status", string(p.Status)},
			{"Generated At", generatedAt.Format(time.RFC3339)},
		},
		Headers: []string{
			"Employee Code", "Employee Name",
			"Computed Present", "Computed Absent", "Computed Paid Leave", "Computed OT (min)",
			"Override Present", "Override Absent", "Override Paid Leave", "Override OT (min)",
			"Use Override",
			"Effective Present", "Effective Absent", "Effective Paid Leave", "Effective OT (min)",
			"Overridden", "Unfrozen Warning", "Notes",
		},
		Widths: map[int]float64{1: 16, 2: 28, 18: 40},
	}
	if !p.IsFrozen() {
		sheet.Meta = append(sheet.Meta, [2]string{"Warning", "Attendance period is not frozen; figures may still change"})
	}

	for _, r := range summaries {
		notes := ""
		if r.Notes != nil {
			notes = *r.Notes
		}
		sheet.Rows = append(sheet.Rows, []interface{}{
			r.EmployeeCode, r.EmployeeName,
			r.Computed.PresentDays.InexactFloat64(), r.Computed.AbsentDays.InexactFloat64(),
			r.Computed.PaidLeaveDays.InexactFloat64(), r.Computed.OTMinutes,
			optionalDays(r.Override.PresentDays), optionalDays(r.Override.AbsentDays),
			optionalDays(r.Override.PaidLeaveDays), optionalMinutes(r.Override.OTMinutes),
			yesNo(r.UseOverride),
			r.Effective.PresentDays.InexactFloat64(), r.Effective.AbsentDays.InexactFloat64(),
			r.Effective.PaidLeaveDays.InexactFloat64(), r.Effective.OTMinutes,
			yesNo(r.AttendanceOverridden), yesNo(r.AttendanceUnfrozenWarning), notes,
		})
	}
	return sheet
}

func optionalDays(v *decimal.Decimal) interface{} {
	if v == nil {
		return ""
	}
	return v.InexactFloat64()
}

func optionalMinutes(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
