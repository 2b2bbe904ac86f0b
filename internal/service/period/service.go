package period

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/period"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/batch"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

type PeriodServiceImpl struct {
	tx             database.Transactor
	periodRepo     period.PeriodRepository
	attendanceRepo attendance.AttendanceRepository
	employeeRepo   employee.EmployeeRepository
	scheduleRepo   schedule.Repository
	batchOpts      batch.Options
	now            func() time.Time
}

func NewPeriodService(
	tx database.Transactor,
	periodRepo period.PeriodRepository,
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	scheduleRepo schedule.Repository,
	batchOpts batch.Options,
) period.PeriodService {
	batchOpts.Permanent = isPermanent
	return &PeriodServiceImpl{
		tx:             tx,
		periodRepo:     periodRepo,
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		scheduleRepo:   scheduleRepo,
		batchOpts:      batchOpts,
		now:            time.Now,
	}
}

// isPermanent marks chunk errors that a retry cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, period.ErrPeriodLocked) ||
		errors.Is(err, attendance.ErrImmutableSource) ||
		errors.Is(err, context.Canceled)
}

func (s *PeriodServiceImpl) options(name string) batch.Options {
	opts := s.batchOpts
	opts.Name = name
	return opts
}

// Get implements period.PeriodService.
func (s *PeriodServiceImpl) Get(ctx context.Context, req period.MonthRequest) (period.PeriodResponse, error) {
	actor, err := user.ViewerFromContext(ctx)
	if err != nil {
		return period.PeriodResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return period.PeriodResponse{}, err
	}

	p, err := s.periodRepo.Get(ctx, actor.CompanyID, req.ParsedMonth)
	if err != nil {
		return period.PeriodResponse{}, fmt.Errorf("failed to get attendance period: %w", err)
	}
	return period.ToResponse(p), nil
}

// Generate implements period.PeriodService.
func (s *PeriodServiceImpl) Generate(ctx context.Context, req period.MonthRequest) (period.BatchResultResponse, error) {
	actor, err := user.ManagerFromContext(ctx)
	if err != nil {
		return period.BatchResultResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return period.BatchResultResponse{}, err
	}
	month := req.ParsedMonth

	var p period.Period
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.periodRepo.GetForUpdate(ctx, actor.CompanyID, month)
		if err != nil {
			return fmt.Errorf("failed to get attendance period: %w", err)
		}
		if err := current.CanGenerate(); err != nil {
			return err
		}
		if current.Status == period.StatusNotGenerated {
			current, err = s.periodRepo.CreateOpen(ctx, current)
			if err != nil {
				return fmt.Errorf("failed to create attendance period: %w", err)
			}
		}
		p = current
		return nil
	})
	if err != nil {
		return period.BatchResultResponse{}, err
	}

	employees, err := s.employeeRepo.GetActiveByCompanyID(ctx, actor.CompanyID)
	if err != nil {
		return period.BatchResultResponse{}, fmt.Errorf("failed to list active employees: %w", err)
	}
	byID := indexEmployees(employees)

	result := batch.Run(ctx, employeeIDs(employees), s.options("generate_month"), func(ctx context.Context, ids []string) (int64, error) {
		return s.generateChunk(ctx, actor.CompanyID, month, pick(byID, ids))
	})

	now := s.now()
	p.GeneratedAt = &now
	if err := s.periodRepo.TouchGenerated(ctx, p); err != nil {
		slog.Warn("Failed to record generation time", "company_id", actor.CompanyID, "month", month.String(), "error", err)
	}

	slog.Info("Attendance month generated",
		"company_id", actor.CompanyID,
		"month", month.String(),
		"employees", result.Total,
		"failed", result.Failed,
		"inserted", result.Affected,
	)

	return period.ToBatchResponse(p, toBatchResult(result)), nil
}

// generateChunk inserts the missing days of a group of employees. Rows that
// already exist are never touched.
func (s *PeriodServiceImpl) generateChunk(ctx context.Context, companyID string, month calendar.Month, employees []employee.Employee) (int64, error) {
	snap, err := schedule.LoadSnapshot(ctx, s.scheduleRepo, companyID, employee.Refs(employees), month.FirstDay(), month.LastDay())
	if err != nil {
		return 0, err
	}

	days := make([]attendance.Day, 0, len(employees)*31)
	for _, emp := range employees {
		days = append(days, defaultMonth(companyID, month, emp, snap)...)
	}

	var inserted int64
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.periodRepo.GetForShare(ctx, companyID, month)
		if err != nil {
			return fmt.Errorf("failed to get attendance period: %w", err)
		}
		if err := p.RequireOpen(); err != nil {
			return err
		}

		inserted, err = s.attendanceRepo.InsertMissing(ctx, days)
		if err != nil {
			return fmt.Errorf("failed to insert attendance days: %w", err)
		}
		return nil
	})
	return inserted, err
}

// defaultMonth builds the generated row of every employed day in the month.
func defaultMonth(companyID string, month calendar.Month, emp employee.Employee, snap schedule.Snapshot) []attendance.Day {
	ref := emp.Ref()
	var days []attendance.Day
	for _, date := range month.Days() {
		if !emp.EmployedOn(date) {
			continue
		}

		day := attendance.DefaultDay(companyID, emp.ID, date)
		switch snap.Calendar.Classify(ref, date) {
		case schedule.DayKindHoliday:
			day.Status = attendance.StatusHoliday
			day.Source = attendance.SourceHolidayCalendar
			if h, ok := snap.Calendar.HolidayOn(ref, date); ok && h.Name != "" {
				name := h.Name
				day.Notes = &name
			}
		case schedule.DayKindWeeklyOff:
			day.Status = attendance.StatusWeeklyOff
			day.Source = attendance.SourceWeeklyOffRule
		}

		days = append(days, attendance.Rederive(day, snap, ref))
	}
	return days
}

// Freeze implements period.PeriodService.
func (s *PeriodServiceImpl) Freeze(ctx context.Context, req period.MonthRequest) (period.PeriodResponse, error) {
	actor, err := user.ManagerFromContext(ctx)
	if err != nil {
		return period.PeriodResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return period.PeriodResponse{}, err
	}

	p, err := s.transition(ctx, actor.CompanyID, req.ParsedMonth, func(p *period.Period) error {
		return p.Freeze(actor.UserID, s.now().UTC())
	})
	if err != nil {
		return period.PeriodResponse{}, err
	}

	slog.Info("Attendance period frozen", "company_id", actor.CompanyID, "month", p.Month.String(), "user_id", actor.UserID)
	return period.ToResponse(p), nil
}

// Unfreeze implements period.PeriodService.
func (s *PeriodServiceImpl) Unfreeze(ctx context.Context, req period.MonthRequest) (period.PeriodResponse, error) {
	actor, err := user.ManagerFromContext(ctx)
	if err != nil {
		return period.PeriodResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return period.PeriodResponse{}, err
	}

	p, err := s.transition(ctx, actor.CompanyID, req.ParsedMonth, func(p *period.Period) error {
		return p.Unfreeze(s.now().UTC())
	})
	if err != nil {
		return period.PeriodResponse{}, err
	}

	slog.Info("Attendance period unfrozen", "company_id", actor.CompanyID, "month", p.Month.String(), "user_id", actor.UserID)
	return period.ToResponse(p), nil
}

// transition applies a state change to the period row while holding its
// exclusive lock, so concurrent transitions serialize.
func (s *PeriodServiceImpl) transition(ctx context.Context, companyID string, month calendar.Month, apply func(p *period.Period) error) (period.Period, error) {
	var p period.Period
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.periodRepo.GetForUpdate(ctx, companyID, month)
		if err != nil {
			return fmt.Errorf("failed to get attendance period: %w", err)
		}
		if err := apply(&current); err != nil {
			return err
		}
		if err := s.periodRepo.UpdateStatus(ctx, current); err != nil {
			return fmt.Errorf("failed to update attendance period: %w", err)
		}
		p = current
		return nil
	})
	return p, err
}

// Recompute implements period.PeriodService.
func (s *PeriodServiceImpl) Recompute(ctx context.Context, req period.RecomputeRequest) (period.BatchResultResponse, error) {
	actor, err := user.ManagerFromContext(ctx)
	if err != nil {
		return period.BatchResultResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return period.BatchResultResponse{}, err
	}
	month := req.ParsedMonth

	p, err := s.openPeriod(ctx, actor.CompanyID, month)
	if err != nil {
		return period.BatchResultResponse{}, err
	}

	ids := req.EmployeeIDs
	if len(ids) == 0 {
		ids, err = s.attendanceRepo.ListEmployeeIDs(ctx, actor.CompanyID, month)
		if err != nil {
			return period.BatchResultResponse{}, fmt.Errorf("failed to list employees with attendance: %w", err)
		}
	}
	employees, err := s.lookupEmployees(ctx, actor.CompanyID, ids)
	if err != nil {
		return period.BatchResultResponse{}, err
	}
	byID := indexEmployees(employees)

	result := batch.Run(ctx, employeeIDs(employees), s.options("recompute_month"), func(ctx context.Context, ids []string) (int64, error) {
		return s.recomputeChunk(ctx, actor.CompanyID, month, pick(byID, ids))
	})

	slog.Info("Attendance month recomputed",
		"company_id", actor.CompanyID,
		"month", month.String(),
		"employees", result.Total,
		"failed", result.Failed,
		"updated", result.Affected,
	)

	return period.ToBatchResponse(p, toBatchResult(result)), nil
}

// recomputeChunk re-derives metrics only. Status and source are never
// changed, so running it again or on overlapping subsets is harmless.
func (s *PeriodServiceImpl) recomputeChunk(ctx context.Context, companyID string, month calendar.Month, employees []employee.Employee) (int64, error) {
	snap, err := schedule.LoadSnapshot(ctx, s.scheduleRepo, companyID, employee.Refs(employees), month.FirstDay(), month.LastDay())
	if err != nil {
		return 0, err
	}
	byID := indexEmployees(employees)

	var changed []attendance.Day
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.periodRepo.GetForShare(ctx, companyID, month)
		if err != nil {
			return fmt.Errorf("failed to get attendance period: %w", err)
		}
		if err := p.RequireOpen(); err != nil {
			return err
		}

		days, err := s.attendanceRepo.LockByMonth(ctx, companyID, month, employeeIDs(employees))
		if err != nil {
			return fmt.Errorf("failed to lock attendance days: %w", err)
		}

		changed = changed[:0]
		for _, d := range days {
			emp, ok := byID[d.EmployeeID]
			if !ok {
				continue
			}
			updated := attendance.Rederive(d, snap, emp.Ref())
			if !sameDerivation(d, updated) {
				changed = append(changed, updated)
			}
		}
		if len(changed) == 0 {
			return nil
		}

		if err := s.attendanceRepo.UpdateMetrics(ctx, changed); err != nil {
			return fmt.Errorf("failed to update attendance metrics: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int64(len(changed)), nil
}

// MarkWeekdaysPresent implements period.PeriodService.
func (s *PeriodServiceImpl) MarkWeekdaysPresent(ctx context.Context, req period.MarkWeekdaysPresentRequest) (period.BatchResultResponse, error) {
	actor, err := user.ManagerFromContext(ctx)
	if err != nil {
		return period.BatchResultResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return period.BatchResultResponse{}, err
	}
	month := req.ParsedMonth

	p, err := s.openPeriod(ctx, actor.CompanyID, month)
	if err != nil {
		return period.BatchResultResponse{}, err
	}

	employees, err := s.lookupEmployees(ctx, actor.CompanyID, req.EmployeeIDs)
	if err != nil {
		return period.BatchResultResponse{}, err
	}
	byID := indexEmployees(employees)

	result := batch.Run(ctx, employeeIDs(employees), s.options("mark_weekdays_present"), func(ctx context.Context, ids []string) (int64, error) {
		return s.markPresentChunk(ctx, actor.CompanyID, month, pick(byID, ids))
	})

	slog.Info("Weekdays marked present",
		"company_id", actor.CompanyID,
		"month", month.String(),
		"employees", result.Total,
		"failed", result.Failed,
		"marked", result.Affected,
		"user_id", actor.UserID,
	)

	return period.ToBatchResponse(p, toBatchResult(result)), nil
}

func (s *PeriodServiceImpl) markPresentChunk(ctx context.Context, companyID string, month calendar.Month, employees []employee.Employee) (int64, error) {
	snap, err := schedule.LoadSnapshot(ctx, s.scheduleRepo, companyID, employee.Refs(employees), month.FirstDay(), month.LastDay())
	if err != nil {
		return 0, err
	}
	byID := indexEmployees(employees)

	var marked int64
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.periodRepo.GetForShare(ctx, companyID, month)
		if err != nil {
			return fmt.Errorf("failed to get attendance period: %w", err)
		}
		if err := p.RequireOpen(); err != nil {
			return err
		}

		days, err := s.attendanceRepo.LockByMonth(ctx, companyID, month, employeeIDs(employees))
		if err != nil {
			return fmt.Errorf("failed to lock attendance days: %w", err)
		}

		marked = 0
		for _, d := range days {
			if d.Status != attendance.StatusUnmarked || !calendar.IsWeekday(d.Date) {
				continue
			}
			d.Status = attendance.StatusPresent
			d.Source = attendance.SourceManual
			d = attendance.Rederive(d, snap, byID[d.EmployeeID].Ref())

			if err := s.attendanceRepo.Update(ctx, d); err != nil {
				return fmt.Errorf("failed to mark attendance day present: %w", err)
			}
			marked++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return marked, nil
}

// openPeriod rejects a batch up front when the month is not open. Every chunk
// checks again under its own lock.
func (s *PeriodServiceImpl) openPeriod(ctx context.Context, companyID string, month calendar.Month) (period.Period, error) {
	p, err := s.periodRepo.Get(ctx, companyID, month)
	if err != nil {
		return period.Period{}, fmt.Errorf("failed to get attendance period: %w", err)
	}
	if err := p.RequireOpen(); err != nil {
		return period.Period{}, err
	}
	return p, nil
}

// lookupEmployees fails when any id does not belong to the company.
func (s *PeriodServiceImpl) lookupEmployees(ctx context.Context, companyID string, ids []string) ([]employee.Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	employees, err := s.employeeRepo.ListByIDs(ctx, companyID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	found := indexEmployees(employees)
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, fmt.Errorf("employee %s: %w", id, employee.ErrEmployeeNotFound)
		}
	}
	return employees, nil
}

func sameDerivation(a, b attendance.Day) bool {
	if a.WorkMinutes != b.WorkMinutes ||
		a.LateMinutes != b.LateMinutes ||
		a.EarlyLeaveMinutes != b.EarlyLeaveMinutes ||
		a.OTMinutes != b.OTMinutes ||
		!a.DayFraction.Equal(b.DayFraction) {
		return false
	}
	if a.ShiftID == nil || b.ShiftID == nil {
		return a.ShiftID == nil && b.ShiftID == nil
	}
	return *a.ShiftID == *b.ShiftID
}

func indexEmployees(employees []employee.Employee) map[string]employee.Employee {
	byID := make(map[string]employee.Employee, len(employees))
	for _, e := range employees {
		byID[e.ID] = e
	}
	return byID
}

func employeeIDs(employees []employee.Employee) []string {
	ids := make([]string, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
	}
	return ids
}

func pick(byID map[string]employee.Employee, ids []string) []employee.Employee {
	out := make([]employee.Employee, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out
}

func toBatchResult(r batch.Result) period.BatchResult {
	out := period.BatchResult{
		Total:     r.Total,
		Succeeded: r.Succeeded,
		Failed:    r.Failed,
		Affected:  r.Affected,
	}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures, period.BatchFailure{EmployeeIDs: f.Keys, Err: f.Err})
	}
	if out.HasFailures() {
		for _, f := range out.Failures {
			slog.Warn("Attendance batch chunk failed", "employee_ids", f.EmployeeIDs, "error", f.Err)
		}
	}
	return out
}
