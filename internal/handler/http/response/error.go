package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/override"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/period"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Period lock
	case errors.Is(err, period.ErrPeriodLocked):
		Locked(w, "PERIOD_LOCKED", "Attendance period is locked")
	case errors.Is(err, period.ErrPeriodAlreadyFrozen):
		Conflict(w, "Attendance period is already frozen")
	case errors.Is(err, period.ErrPeriodNotFrozen):
		Conflict(w, "Attendance period is not frozen")
	case errors.Is(err, period.ErrPeriodNotGenerated):
		NotFound(w, "Attendance period has not been generated")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrImmutableSource):
		ConflictWithCode(w, "IMMUTABLE_SOURCE", err.Error())
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrCheckOutBeforeCheckIn),
		errors.Is(err, attendance.ErrInvalidSyncStatus):
		ValidationError(w, map[string]string{"status": err.Error()})

	// Override
	case errors.Is(err, override.ErrOverrideNotFound):
		NotFound(w, "Month override not found")

	// Reference data. An unknown employee is a malformed reference, not a
	// missing resource.
	case errors.Is(err, employee.ErrEmployeeNotFound):
		ValidationError(w, map[string]string{"employee_id": err.Error()})
	case errors.Is(err, leave.ErrLeaveTypeNotFound):
		NotFound(w, "Leave type not found")
	case errors.Is(err, leave.ErrHalfDayNotAllowed),
		errors.Is(err, leave.ErrLeaveTypeNotActive):
		ValidationError(w, map[string]string{"leave_type_id": err.Error()})
	case errors.Is(err, schedule.ErrShiftNotFound):
		NotFound(w, "Shift not found")

	// Access
	case errors.Is(err, user.ErrAttendanceManageRequired),
		errors.Is(err, user.ErrInsufficientPermissions),
		errors.Is(err, user.ErrManagerAccessRequired):
		Forbidden(w, err.Error())
	case errors.Is(err, user.ErrCompanyIDRequired),
		errors.Is(err, user.ErrMissingClaims):
		Unauthorized(w, err.Error())

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
