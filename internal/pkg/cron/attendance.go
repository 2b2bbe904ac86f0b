package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/period"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
)

type AttendanceJobs struct {
	employeeRepo employee.EmployeeRepository
	periodSvc    period.PeriodService
	interval     time.Duration
	now          func() time.Time
}

func NewAttendanceJobs(employeeRepo employee.EmployeeRepository, periodSvc period.PeriodService, interval time.Duration) *AttendanceJobs {
	return &AttendanceJobs{
		employeeRepo: employeeRepo,
		periodSvc:    periodSvc,
		interval:     interval,
		now:          time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("ensure_current_attendance_period", j.interval, j.EnsureCurrentPeriods)
}

// EnsureCurrentPeriods generates the current month for every company with
// active employees. Generation only inserts missing rows, so repeated runs
// pick up new hires without touching edited days.
func (j *AttendanceJobs) EnsureCurrentPeriods(ctx context.Context) error {
	companyIDs, err := j.employeeRepo.ListCompanyIDsWithActiveEmployees(ctx)
	if err != nil {
		return fmt.Errorf("failed to list companies: %w", err)
	}

	month := calendar.MonthOf(j.now().UTC())
	slog.Info("Cron: Ensuring attendance periods", "month", month.String(), "companies", len(companyIDs))

	var failed int
	for _, companyID := range companyIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		actorCtx := user.WithActor(ctx, user.Actor{CompanyID: companyID, Role: user.RoleSystem})
		result, err := j.periodSvc.Generate(actorCtx, period.MonthRequest{Month: month.String()})
		if err != nil {
			if errors.Is(err, period.ErrPeriodLocked) {
				slog.Debug("Cron: Period frozen, skipping", "company_id", companyID, "month", month.String())
				continue
			}
			failed++
			slog.Error("Cron: Failed to generate attendance period", "company_id", companyID, "error", err)
			continue
		}

		if result.Failed > 0 {
			slog.Warn("Cron: Attendance generation partially failed",
				"company_id", companyID,
				"failed", result.Failed,
				"succeeded", result.Succeeded,
			)
		}
	}

	if failed > 0 {
		return fmt.Errorf("attendance generation failed for %d of %d companies", failed, len(companyIDs))
	}
	return nil
}
