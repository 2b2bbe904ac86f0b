package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/period"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

type AttendanceServiceImpl struct {
	tx             database.Transactor
	attendanceRepo attendance.AttendanceRepository
	periodRepo     period.PeriodRepository
	employeeRepo   employee.EmployeeRepository
	scheduleRepo   schedule.Repository
	leaveTypeRepo  leave.LeaveTypeRepository
}

func NewAttendanceService(
	tx database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	periodRepo period.PeriodRepository,
	employeeRepo employee.EmployeeRepository,
	scheduleRepo schedule.Repository,
	leaveTypeRepo leave.LeaveTypeRepository,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		tx:             tx,
		attendanceRepo: attendanceRepo,
		periodRepo:     periodRepo,
		employeeRepo:   employeeRepo,
		scheduleRepo:   scheduleRepo,
		leaveTypeRepo:  leaveTypeRepo,
	}
}

// ManualEdit implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ManualEdit(ctx context.Context, req attendance.ManualEditRequest) (attendance.DayResponse, error) {
	actor, err := user.ManagerFromContext(ctx)
	if err != nil {
		return attendance.DayResponse{}, err
	}

	if err := req.Validate(); err != nil {
		return attendance.DayResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, actor.CompanyID)
	if err != nil {
		return attendance.DayResponse{}, err
	}

	snap, err := schedule.LoadSnapshot(ctx, s.scheduleRepo, actor.CompanyID, []schedule.EmployeeRef{emp.Ref()}, req.Day, req.Day)
	if err != nil {
		return attendance.DayResponse{}, err
	}

	var updated attendance.Day
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.periodRepo.GetForShare(ctx, actor.CompanyID, calendar.MonthOf(req.Day))
		if err != nil {
			return fmt.Errorf("failed to get attendance period: %w", err)
		}
		if err := p.RequireOpen(); err != nil {
			return err
		}

		day, err := s.attendanceRepo.GetForUpdate(ctx, actor.CompanyID, req.EmployeeID, req.Day)
		if err != nil {
			return err
		}

		day, err = applyManualEdit(day, req)
		if err != nil {
			return err
		}

		day = attendance.Rederive(day, snap, emp.Ref())
		if err := s.attendanceRepo.Update(ctx, day); err != nil {
			return fmt.Errorf("failed to update attendance day: %w", err)
		}

		updated = day
		return nil
	})
	if err != nil {
		return attendance.DayResponse{}, err
	}

	slog.Info("Attendance day edited",
		"company_id", actor.CompanyID,
		"employee_id", updated.EmployeeID,
		"date", updated.Date.Format(calendar.DateLayout),
		"status", updated.Status,
		"user_id", actor.UserID,
	)

	updated.EmployeeName = &emp.FullName
	return attendance.ToResponse(updated), nil
}

// applyManualEdit merges the request into day. Timestamps and notes are always
// applied; status only when it does not touch a leave or holiday owned day.
func applyManualEdit(day attendance.Day, req attendance.ManualEditRequest) (attendance.Day, error) {
	if status, ok := req.NewStatus(); ok {
		if !day.CanChangeStatus(status) {
			return day, attendance.ErrImmutableSource
		}
		if status != day.Status {
			day.Status = status
			day.Source = attendance.SourceManual
			if status != attendance.StatusLeave {
				day.LeaveTypeID = nil
				day.LeaveFraction = nil
			}
		}
	}

	if req.CheckInAt != nil {
		t := req.CheckInAt.UTC()
		day.CheckInAt = &t
	}
	if req.CheckOutAt != nil {
		t := req.CheckOutAt.UTC()
		day.CheckOutAt = &t
	}
	if req.Notes != nil {
		notes := strings.TrimSpace(*req.Notes)
		day.Notes = &notes
	}

	if day.HasCompleteTimes() && !day.CheckOutAt.After(*day.CheckInAt) {
		return day, validator.ValidationErrors{{
			Field:   "check_out",
			Message: attendance.ErrCheckOutBeforeCheckIn.Error(),
		}}
	}

	return day, nil
}

// SyncExternalDay implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) SyncExternalDay(ctx context.Context, req attendance.SyncExternalDayRequest) (attendance.DayResponse, error) {
	actor, err := user.ManagerFromContext(ctx)
	if err != nil {
		return attendance.DayResponse{}, err
	}

	if err := req.Validate(); err != nil {
		return attendance.DayResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, actor.CompanyID)
	if err != nil {
		return attendance.DayResponse{}, err
	}

	if req.LeaveTypeID != nil {
		lt, err := s.leaveTypeRepo.GetByID(ctx, *req.LeaveTypeID, actor.CompanyID)
		if err != nil {
			return attendance.DayResponse{}, err
		}
		if req.DayFraction != nil && req.DayFraction.Equal(attendance.FractionHalf) &&
			lt.AllowHalfDay != nil && !*lt.AllowHalfDay {
			return attendance.DayResponse{}, leave.ErrHalfDayNotAllowed
		}
	}

	snap, err := schedule.LoadSnapshot(ctx, s.scheduleRepo, actor.CompanyID, []schedule.EmployeeRef{emp.Ref()}, req.Day, req.Day)
	if err != nil {
		return attendance.DayResponse{}, err
	}

	var saved attendance.Day
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.periodRepo.GetForShare(ctx, actor.CompanyID, calendar.MonthOf(req.Day))
		if err != nil {
			return fmt.Errorf("failed to get attendance period: %w", err)
		}
		if err := p.RequireOpen(); err != nil {
			return err
		}

		day, err := s.attendanceRepo.GetForUpdate(ctx, actor.CompanyID, req.EmployeeID, req.Day)
		if err != nil {
			if !errors.Is(err, attendance.ErrAttendanceNotFound) {
				return err
			}
			day = attendance.DefaultDay(actor.CompanyID, req.EmployeeID, req.Day)
		}

		day.Status = attendance.Status(strings.ToLower(req.Status))
		day.Source = req.Source()
		day.LeaveTypeID = nil
		day.LeaveFraction = nil
		if day.Status == attendance.StatusLeave {
			day.LeaveTypeID = req.LeaveTypeID
			day.LeaveFraction = req.DayFraction
		}
		if req.Notes != nil {
			day.Notes = req.Notes
		}

		day = attendance.Rederive(day, snap, emp.Ref())
		saved, err = s.attendanceRepo.Upsert(ctx, day)
		if err != nil {
			return fmt.Errorf("failed to save synced attendance day: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.DayResponse{}, err
	}

	slog.Info("Attendance day synced",
		"company_id", actor.CompanyID,
		"employee_id", saved.EmployeeID,
		"date", saved.Date.Format(calendar.DateLayout),
		"status", saved.Status,
		"source", saved.Source,
	)

	saved.EmployeeName = &emp.FullName
	return attendance.ToResponse(saved), nil
}

// GetDay implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetDay(ctx context.Context, employeeID string, date string) (attendance.DayResponse, error) {
	actor, err := user.ViewerFromContext(ctx)
	if err != nil {
		return attendance.DayResponse{}, err
	}

	var errs validator.ValidationErrors
	day, valid := validator.IsValidDate(date)
	if !valid {
		errs.Add("date", "date must be in YYYY-MM-DD format")
	}
	errs.AddUUID("employee_id", employeeID)
	if err := errs.Err(); err != nil {
		return attendance.DayResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, employeeID, actor.CompanyID)
	if err != nil {
		return attendance.DayResponse{}, err
	}

	d, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, actor.CompanyID, employeeID, day)
	if err != nil {
		if !errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.DayResponse{}, fmt.Errorf("failed to get attendance day: %w", err)
		}

		// A generated month reads missing days as unmarked.
		p, perr := s.periodRepo.Get(ctx, actor.CompanyID, calendar.MonthOf(day))
		if perr != nil {
			return attendance.DayResponse{}, fmt.Errorf("failed to get attendance period: %w", perr)
		}
		if p.Status == period.StatusNotGenerated {
			return attendance.DayResponse{}, err
		}
		d = attendance.DefaultDay(actor.CompanyID, employeeID, day)
	}

	d.EmployeeName = &emp.FullName
	return attendance.ToResponse(d), nil
}

// ListDays implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListDays(ctx context.Context, filter attendance.DayFilter) (attendance.ListDaysResponse, error) {
	actor, err := user.ViewerFromContext(ctx)
	if err != nil {
		return attendance.ListDaysResponse{}, err
	}

	if err := filter.Validate(); err != nil {
		return attendance.ListDaysResponse{}, err
	}

	var employeeIDs []string
	if filter.EmployeeID != nil {
		if _, err := s.employeeRepo.GetByID(ctx, *filter.EmployeeID, actor.CompanyID); err != nil {
			return attendance.ListDaysResponse{}, err
		}
		employeeIDs = []string{*filter.EmployeeID}
	}

	days, err := s.attendanceRepo.ListByMonth(ctx, actor.CompanyID, filter.ParsedMonth, employeeIDs)
	if err != nil {
		return attendance.ListDaysResponse{}, fmt.Errorf("failed to list attendance days: %w", err)
	}

	resp := attendance.ListDaysResponse{
		Month: filter.ParsedMonth.String(),
		Days:  make([]attendance.DayResponse, 0, len(days)),
	}
	for _, d := range days {
		if filter.Status != nil && string(d.Status) != strings.ToLower(*filter.Status) {
			continue
		}
		resp.Days = append(resp.Days, attendance.ToResponse(d))
	}
	resp.Total = len(resp.Days)

	return resp, nil
}
