package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// MANUAL EDIT
// ========================================

// ManualEditRequest is the HR correction of a single day. Omitted fields are
// left unchanged.
type ManualEditRequest struct {
	EmployeeID string  `json:"-"`
	Date       string  `json:"-"`                   // YYYY-MM-DD
	CheckIn    *string `json:"check_in,omitempty"`  // RFC3339
	CheckOut   *string `json:"check_out,omitempty"` // RFC3339
	Notes      *string `json:"notes,omitempty"`
	Status     *string `json:"status,omitempty"`

	// Parsed by Validate
	Day        time.Time  `json:"-"`
	CheckInAt  *time.Time `json:"-"`
	CheckOutAt *time.Time `json:"-"`
}

func (r *ManualEditRequest) Validate() error {
	var errs validator.ValidationErrors

	errs.AddUUID("employee_id", r.EmployeeID)

	if day, valid := validator.IsValidDate(r.Date); !valid {
		errs.Add("date", "date must be in YYYY-MM-DD format")
	} else {
		r.Day = day
	}

	if r.CheckIn != nil {
		if t, valid := validator.IsValidDateTime(*r.CheckIn); !valid {
			errs.Add("check_in", "check_in must be an ISO8601 timestamp")
		} else {
			r.CheckInAt = &t
		}
	}

	if r.CheckOut != nil {
		if t, valid := validator.IsValidDateTime(*r.CheckOut); !valid {
			errs.Add("check_out", "check_out must be an ISO8601 timestamp")
		} else {
			r.CheckOutAt = &t
		}
	}

	if r.CheckInAt != nil && r.CheckOutAt != nil && !r.CheckOutAt.After(*r.CheckInAt) {
		errs.Add("check_out", ErrCheckOutBeforeCheckIn.Error())
	}

	if r.Status != nil && !validator.IsInSlice(strings.ToLower(*r.Status), Statuses) {
		errs.Add("status", "status must be one of: "+strings.Join(Statuses, ", "))
	}

	if r.Notes != nil && len(*r.Notes) > 500 {
		errs.Add("notes", "notes must not exceed 500 characters")
	}

	return errs.Err()
}

// NewStatus returns the requested status, if any.
func (r *ManualEditRequest) NewStatus() (Status, bool) {
	if r.Status == nil {
		return "", false
	}
	return Status(strings.ToLower(*r.Status)), true
}

// ========================================
// EXTERNAL SYNC
// ========================================

// SyncExternalDayRequest is written by the leave and holiday collaborators.
type SyncExternalDayRequest struct {
	EmployeeID  string           `json:"-"`
	Date        string           `json:"-"`
	Status      string           `json:"status"` // leave | holiday
	LeaveTypeID *string          `json:"leave_type_id,omitempty"`
	DayFraction *decimal.Decimal `json:"day_fraction,omitempty"` // 0.5 or 1, leave only
	Notes       *string          `json:"notes,omitempty"`

	Day time.Time `json:"-"`
}

func (r *SyncExternalDayRequest) Validate() error {
	var errs validator.ValidationErrors

	errs.AddUUID("employee_id", r.EmployeeID)

	if day, valid := validator.IsValidDate(r.Date); !valid {
		errs.Add("date", "date must be in YYYY-MM-DD format")
	} else {
		r.Day = day
	}

	status := Status(strings.ToLower(r.Status))
	if status != StatusLeave && status != StatusHoliday {
		errs.Add("status", "status must be one of: leave, holiday")
	}

	if r.DayFraction != nil {
		if status != StatusLeave {
			errs.Add("day_fraction", "day_fraction only applies to leave")
		} else if !r.DayFraction.Equal(FractionHalf) && !r.DayFraction.Equal(FractionFull) {
			errs.Add("day_fraction", "day_fraction must be 0.5 or 1")
		}
	}

	if r.LeaveTypeID != nil {
		if status != StatusLeave {
			errs.Add("leave_type_id", "leave_type_id only applies to leave")
		} else {
			errs.AddUUID("leave_type_id", *r.LeaveTypeID)
		}
	}

	return errs.Err()
}

// Source maps the synced status to its provenance.
func (r *SyncExternalDayRequest) Source() Source {
	if Status(strings.ToLower(r.Status)) == StatusHoliday {
		return SourceHolidayCalendar
	}
	return SourceLeave
}

// ========================================
// READS
// ========================================

type DayFilter struct {
	Month      string  `json:"month"` // YYYY-MM
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`

	ParsedMonth calendar.Month `json:"-"`
}

func (f *DayFilter) Validate() error {
	var errs validator.ValidationErrors

	if m, err := calendar.ParseMonth(f.Month); err != nil {
		errs.Add("month", "month must be in YYYY-MM format")
	} else {
		f.ParsedMonth = m
	}

	if f.EmployeeID != nil {
		errs.AddUUID("employee_id", *f.EmployeeID)
	}

	if f.Status != nil && !validator.IsInSlice(strings.ToLower(*f.Status), Statuses) {
		errs.Add("status", "status must be one of: "+strings.Join(Statuses, ", "))
	}

	return errs.Err()
}

type DayResponse struct {
	ID                string          `json:"id,omitempty"`
	EmployeeID        string          `json:"employee_id"`
	EmployeeName      *string         `json:"employee_name,omitempty"`
	Date              string          `json:"date"`
	Status            string          `json:"status"`
	Source            string          `json:"source"`
	CheckInAt         *string         `json:"check_in_at,omitempty"`
	CheckOutAt        *string         `json:"check_out_at,omitempty"`
	Notes             *string         `json:"notes,omitempty"`
	ShiftID           *string         `json:"shift_id,omitempty"`
	LeaveTypeID       *string         `json:"leave_type_id,omitempty"`
	WorkMinutes       int             `json:"work_minutes"`
	LateMinutes       int             `json:"late_minutes"`
	EarlyLeaveMinutes int             `json:"early_leave_minutes"`
	OTMinutes         int             `json:"ot_minutes"`
	DayFraction       decimal.Decimal `json:"day_fraction"`
	UpdatedAt         *string         `json:"updated_at,omitempty"`
}

type ListDaysResponse struct {
	Month string        `json:"month"`
	Total int           `json:"total"`
	Days  []DayResponse `json:"days"`
}

// ToResponse maps a day to its API shape.
func ToResponse(d Day) DayResponse {
	resp := DayResponse{
		ID:                d.ID,
		EmployeeID:        d.EmployeeID,
		EmployeeName:      d.EmployeeName,
		Date:              d.Date.Format(calendar.DateLayout),
		Status:            string(d.Status),
		Source:            string(d.Source),
		Notes:             d.Notes,
		ShiftID:           d.ShiftID,
		LeaveTypeID:       d.LeaveTypeID,
		WorkMinutes:       d.WorkMinutes,
		LateMinutes:       d.LateMinutes,
		EarlyLeaveMinutes: d.EarlyLeaveMinutes,
		OTMinutes:         d.OTMinutes,
		DayFraction:       d.DayFraction,
	}
	if d.CheckInAt != nil {
		s := d.CheckInAt.Format(time.RFC3339)
		resp.CheckInAt = &s
	}
	if d.CheckOutAt != nil {
		s := d.CheckOutAt.Format(time.RFC3339)
		resp.CheckOutAt = &s
	}
	if !d.UpdatedAt.IsZero() {
		s := d.UpdatedAt.Format(time.RFC3339)
		resp.UpdatedAt = &s
	}
	return resp
}

// DefaultDay is what a read returns for a day that has no row yet.
func DefaultDay(companyID, employeeID string, date time.Time) Day {
	return Day{
		CompanyID:  companyID,
		EmployeeID: employeeID,
		Date:       date,
		Status:     StatusUnmarked,
		Source:     SourceSystem,
		Metrics:    Metrics{DayFraction: FractionNone},
	}
}
