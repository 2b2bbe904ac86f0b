// Package servicetest holds an in-memory implementation of the repository
// interfaces for service tests.
package servicetest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/override"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/period"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
	"github.com/google/uuid"
)

const CompanyID = "company-1"

// Fixture ids. Request DTOs only accept UUIDv7 ids, the format the HR core
// issues for employees and leave types.
const (
	Employee1       = "0190a6e2-0000-7000-8000-000000000001"
	Employee2       = "0190a6e2-0000-7000-8000-000000000002"
	Employee3       = "0190a6e2-0000-7000-8000-000000000003"
	Employee4       = "0190a6e2-0000-7000-8000-000000000004"
	UnknownEmployee = "0190a6e2-0000-7000-8000-000000000404"

	AnnualLeave   = "0190a6e2-0000-7000-8000-00000000a001"
	SickLeaveFull = "0190a6e2-0000-7000-8000-00000000a002"
)

var ErrInjected = errors.New("injected failure")

type dayKey struct {
	employeeID string
	date       time.Time
}

type monthKey struct {
	id    string
	month calendar.Month
}

// Store keeps every table in memory. Only one company is modelled.
type Store struct {
	mu sync.Mutex
	// txMu serializes transactions so concurrent writers see each other's
	// committed state, like row locks held until commit.
	txMu sync.Mutex

	days      map[dayKey]attendance.Day
	periods   map[calendar.Month]period.Period
	overrides map[monthKey]override.MonthOverride
	employees map[string]employee.Employee

	Assignments []schedule.ShiftAssignment
	Rules       []schedule.WeeklyOffRule
	Holidays    []schedule.Holiday
	Timezones   map[string]string
	LeaveTypes  map[string]leave.LeaveType

	// failWrites makes day writes touching the employee fail the given
	// number of times.
	failWrites map[string]int

	Now func() time.Time
}

func NewStore() *Store {
	return &Store{
		days:       make(map[dayKey]attendance.Day),
		periods:    make(map[calendar.Month]period.Period),
		overrides:  make(map[monthKey]override.MonthOverride),
		employees:  make(map[string]employee.Employee),
		Timezones:  make(map[string]string),
		LeaveTypes: make(map[string]leave.LeaveType),
		failWrites: make(map[string]int),
		Now:        func() time.Time { return time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC) },
	}
}

// ManagerContext returns a context acting as an attendance manager.
func ManagerContext() context.Context {
	return user.WithActor(context.Background(), user.Actor{UserID: "user-1", CompanyID: CompanyID, Role: user.RoleManager})
}

// EmployeeContext returns a context without attendance permissions.
func EmployeeContext() context.Context {
	return user.WithActor(context.Background(), user.Actor{UserID: "user-2", CompanyID: CompanyID, Role: user.RoleEmployee})
}

func (s *Store) AddEmployee(e employee.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.CompanyID == "" {
		e.CompanyID = CompanyID
	}
	if e.EmploymentStatus == "" {
		e.EmploymentStatus = employee.EmploymentStatusActive
	}
	s.employees[e.ID] = e
}

func (s *Store) PutDay(d attendance.Day) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.Must(uuid.NewV7()).String()
	}
	if d.CompanyID == "" {
		d.CompanyID = CompanyID
	}
	s.days[dayKey{d.EmployeeID, d.Date}] = d
}

func (s *Store) Day(employeeID string, date time.Time) (attendance.Day, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.days[dayKey{employeeID, date}]
	return d, ok
}

func (s *Store) DayCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.days)
}

// AllDays returns a copy of every day row.
func (s *Store) AllDays() []attendance.Day {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]attendance.Day, 0, len(s.days))
	for _, d := range s.days {
		out = append(out, d)
	}
	sortDays(out)
	return out
}

func (s *Store) PutPeriod(p period.Period) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CompanyID == "" {
		p.CompanyID = CompanyID
	}
	s.periods[p.Month] = p
}

func (s *Store) Period(month calendar.Month) (period.Period, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.periods[month]
	return p, ok
}

func (s *Store) PutOverride(o override.MonthOverride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.CompanyID == "" {
		o.CompanyID = CompanyID
	}
	s.overrides[monthKey{o.EmployeeID, o.Month}] = o
}

// FailWrites makes the next n day writes of the employee fail.
func (s *Store) FailWrites(employeeID string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites[employeeID] = n
}

// consumeFailure must be called with mu held.
func (s *Store) consumeFailure(employeeID string) bool {
	if s.failWrites[employeeID] > 0 {
		s.failWrites[employeeID]--
		return true
	}
	return false
}

type txKey struct{}

type tables struct {
	days      map[dayKey]attendance.Day
	periods   map[calendar.Month]period.Period
	overrides map[monthKey]override.MonthOverride
}

// WithinTransaction implements database.Transactor. Transactions run one at a
// time and every table is restored when fn fails or panics. Nested calls join
// the outer transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	committed := false
	defer func() {
		if !committed {
			s.restore(snap)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) snapshot() tables {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := tables{
		days:      make(map[dayKey]attendance.Day, len(s.days)),
		periods:   make(map[calendar.Month]period.Period, len(s.periods)),
		overrides: make(map[monthKey]override.MonthOverride, len(s.overrides)),
	}
	for k, v := range s.days {
		t.days[k] = v
	}
	for k, v := range s.periods {
		t.periods[k] = v
	}
	for k, v := range s.overrides {
		t.overrides[k] = v
	}
	return t
}

func (s *Store) restore(t tables) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.days = t.days
	s.periods = t.periods
	s.overrides = t.overrides
}

func (s *Store) Attendance() attendance.AttendanceRepository { return attendanceRepo{s} }
func (s *Store) Periods() period.PeriodRepository            { return periodRepo{s} }
func (s *Store) Overrides() override.OverrideRepository      { return overrideRepo{s} }
func (s *Store) Employees() employee.EmployeeRepository      { return employeeRepo{s} }
func (s *Store) Schedule() schedule.Repository               { return scheduleRepo{s} }
func (s *Store) LeaveTypeRepo() leave.LeaveTypeRepository    { return leaveTypeRepo{s} }

func sortDays(days []attendance.Day) {
	sort.Slice(days, func(i, j int) bool {
		if days[i].EmployeeID != days[j].EmployeeID {
			return days[i].EmployeeID < days[j].EmployeeID
		}
		return days[i].Date.Before(days[j].Date)
	})
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------- attendance

type attendanceRepo struct{ s *Store }

func (r attendanceRepo) GetByEmployeeAndDate(ctx context.Context, companyID, employeeID string, date time.Time) (attendance.Day, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.days[dayKey{employeeID, date}]
	if !ok || d.CompanyID != companyID {
		return attendance.Day{}, attendance.ErrAttendanceNotFound
	}
	return d, nil
}

func (r attendanceRepo) GetForUpdate(ctx context.Context, companyID, employeeID string, date time.Time) (attendance.Day, error) {
	return r.GetByEmployeeAndDate(ctx, companyID, employeeID, date)
}

func (r attendanceRepo) ListByMonth(ctx context.Context, companyID string, month calendar.Month, employeeIDs []string) ([]attendance.Day, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []attendance.Day
	for _, d := range r.s.days {
		if d.CompanyID != companyID || !month.Contains(d.Date) {
			continue
		}
		if len(employeeIDs) > 0 && !contains(employeeIDs, d.EmployeeID) {
			continue
		}
		out = append(out, d)
	}
	sortDays(out)
	return out, nil
}

func (r attendanceRepo) ListEmployeeIDs(ctx context.Context, companyID string, month calendar.Month) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, d := range r.s.days {
		if d.CompanyID == companyID && month.Contains(d.Date) && !seen[d.EmployeeID] {
			seen[d.EmployeeID] = true
			out = append(out, d.EmployeeID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r attendanceRepo) LockByMonth(ctx context.Context, companyID string, month calendar.Month, employeeIDs []string) ([]attendance.Day, error) {
	return r.ListByMonth(ctx, companyID, month, employeeIDs)
}

func (r attendanceRepo) InsertMissing(ctx context.Context, days []attendance.Day) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range days {
		if r.s.consumeFailure(d.EmployeeID) {
			return 0, ErrInjected
		}
	}
	var inserted int64
	for _, d := range days {
		key := dayKey{d.EmployeeID, d.Date}
		if _, exists := r.s.days[key]; exists {
			continue
		}
		if d.ID == "" {
			d.ID = uuid.Must(uuid.NewV7()).String()
		}
		d.CreatedAt = r.s.Now()
		d.UpdatedAt = d.CreatedAt
		r.s.days[key] = d
		inserted++
	}
	return inserted, nil
}

func (r attendanceRepo) Update(ctx context.Context, day attendance.Day) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.consumeFailure(day.EmployeeID) {
		return ErrInjected
	}
	key := dayKey{day.EmployeeID, day.Date}
	if _, ok := r.s.days[key]; !ok {
		return attendance.ErrAttendanceNotFound
	}
	day.UpdatedAt = r.s.Now()
	r.s.days[key] = day
	return nil
}

func (r attendanceRepo) UpdateMetrics(ctx context.Context, days []attendance.Day) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range days {
		if r.s.consumeFailure(d.EmployeeID) {
			return ErrInjected
		}
	}
	for _, d := range days {
		key := dayKey{d.EmployeeID, d.Date}
		stored, ok := r.s.days[key]
		if !ok {
			continue
		}
		stored.Metrics = d.Metrics
		stored.ShiftID = d.ShiftID
		r.s.days[key] = stored
	}
	return nil
}

func (r attendanceRepo) Upsert(ctx context.Context, day attendance.Day) (attendance.Day, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.consumeFailure(day.EmployeeID) {
		return attendance.Day{}, ErrInjected
	}
	key := dayKey{day.EmployeeID, day.Date}
	if existing, ok := r.s.days[key]; ok {
		day.ID = existing.ID
		day.CreatedAt = existing.CreatedAt
	} else if day.ID == "" {
		day.ID = uuid.Must(uuid.NewV7()).String()
		day.CreatedAt = r.s.Now()
	}
	day.UpdatedAt = r.s.Now()
	r.s.days[key] = day
	return day, nil
}

// -------------------------------------------------------------------- period

type periodRepo struct{ s *Store }

func (r periodRepo) Get(ctx context.Context, companyID string, month calendar.Month) (period.Period, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.periods[month]
	if !ok || p.CompanyID != companyID {
		return period.NotGenerated(companyID, month), nil
	}
	return p, nil
}

func (r periodRepo) GetForUpdate(ctx context.Context, companyID string, month calendar.Month) (period.Period, error) {
	return r.Get(ctx, companyID, month)
}

func (r periodRepo) GetForShare(ctx context.Context, companyID string, month calendar.Month) (period.Period, error) {
	return r.Get(ctx, companyID, month)
}

func (r periodRepo) CreateOpen(ctx context.Context, p period.Period) (period.Period, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.periods[p.Month]; ok {
		return existing, nil
	}
	p.ID = uuid.Must(uuid.NewV7()).String()
	p.Status = period.StatusOpen
	p.CreatedAt = r.s.Now()
	p.UpdatedAt = p.CreatedAt
	r.s.periods[p.Month] = p
	return p, nil
}

func (r periodRepo) UpdateStatus(ctx context.Context, p period.Period) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.periods[p.Month]
	if !ok {
		return period.ErrPeriodNotGenerated
	}
	stored.Status = p.Status
	stored.FrozenAt = p.FrozenAt
	stored.FrozenBy = p.FrozenBy
	stored.UpdatedAt = p.UpdatedAt
	r.s.periods[p.Month] = stored
	return nil
}

func (r periodRepo) TouchGenerated(ctx context.Context, p period.Period) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.periods[p.Month]
	if !ok {
		return period.ErrPeriodNotGenerated
	}
	stored.GeneratedAt = p.GeneratedAt
	r.s.periods[p.Month] = stored
	return nil
}

// ------------------------------------------------------------------ override

type overrideRepo struct{ s *Store }

func (r overrideRepo) Get(ctx context.Context, companyID, employeeID string, month calendar.Month) (override.MonthOverride, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.overrides[monthKey{employeeID, month}]
	if !ok || o.CompanyID != companyID {
		return override.MonthOverride{}, override.ErrOverrideNotFound
	}
	return o, nil
}

func (r overrideRepo) ListByMonth(ctx context.Context, companyID string, month calendar.Month) ([]override.MonthOverride, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []override.MonthOverride
	for k, o := range r.s.overrides {
		if k.month == month && o.CompanyID == companyID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (r overrideRepo) Upsert(ctx context.Context, o override.MonthOverride) (override.MonthOverride, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := monthKey{o.EmployeeID, o.Month}
	if existing, ok := r.s.overrides[key]; ok {
		o.ID = existing.ID
		o.CreatedAt = existing.CreatedAt
	} else {
		o.ID = uuid.Must(uuid.NewV7()).String()
		o.CreatedAt = r.s.Now()
	}
	o.UpdatedAt = r.s.Now()
	r.s.overrides[key] = o
	return o, nil
}

func (r overrideRepo) Delete(ctx context.Context, companyID, employeeID string, month calendar.Month) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := monthKey{employeeID, month}
	if o, ok := r.s.overrides[key]; !ok || o.CompanyID != companyID {
		return override.ErrOverrideNotFound
	}
	delete(r.s.overrides, key)
	return nil
}

// ------------------------------------------------------------------ employee

type employeeRepo struct{ s *Store }

func (r employeeRepo) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.employees[id]
	if !ok || e.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r employeeRepo) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []employee.Employee
	for _, e := range r.s.employees {
		if e.CompanyID == companyID && e.IsActive() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r employeeRepo) ListByIDs(ctx context.Context, companyID string, ids []string) ([]employee.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []employee.Employee
	for _, id := range ids {
		if e, ok := r.s.employees[id]; ok && e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r employeeRepo) ListCompanyIDsWithActiveEmployees(ctx context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, e := range r.s.employees {
		if e.IsActive() && !seen[e.CompanyID] {
			seen[e.CompanyID] = true
			out = append(out, e.CompanyID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ------------------------------------------------------------------ schedule

type scheduleRepo struct{ s *Store }

func (r scheduleRepo) GetShiftAssignments(ctx context.Context, companyID string, employees []schedule.EmployeeRef, from, to time.Time) ([]schedule.ShiftAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]schedule.ShiftAssignment(nil), r.s.Assignments...), nil
}

func (r scheduleRepo) GetWeeklyOffRules(ctx context.Context, companyID string, employees []schedule.EmployeeRef) ([]schedule.WeeklyOffRule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]schedule.WeeklyOffRule(nil), r.s.Rules...), nil
}

func (r scheduleRepo) GetHolidays(ctx context.Context, companyID string, from, to time.Time) ([]schedule.Holiday, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []schedule.Holiday
	for _, h := range r.s.Holidays {
		if !h.Date.Before(from) && !h.Date.After(to) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r scheduleRepo) GetBranchTimezones(ctx context.Context, companyID string) (map[string]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[string]string, len(r.s.Timezones))
	for k, v := range r.s.Timezones {
		out[k] = v
	}
	return out, nil
}

// ---------------------------------------------------------------- leave type

type leaveTypeRepo struct{ s *Store }

func (r leaveTypeRepo) GetByID(ctx context.Context, id string, companyID string) (leave.LeaveType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lt, ok := r.s.LeaveTypes[id]
	if !ok {
		return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
	}
	return lt, nil
}

func (r leaveTypeRepo) GetPaidFlags(ctx context.Context, companyID string) (leave.PaidFlags, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	flags := make(leave.PaidFlags, len(r.s.LeaveTypes))
	for id, lt := range r.s.LeaveTypes {
		flags[id] = lt.IsPaid
	}
	return flags, nil
}
