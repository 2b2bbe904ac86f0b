package override

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// KeyRequest addresses the override of (employee, month).
type KeyRequest struct {
	EmployeeID string `json:"-"`
	Month      string `json:"-"`

	ParsedMonth calendar.Month `json:"-"`
}

func (r *KeyRequest) Validate() error {
	var errs validator.ValidationErrors
	r.validate(&errs)
	return errs.Err()
}

func (r *KeyRequest) validate(errs *validator.ValidationErrors) {
	errs.AddUUID("employee_id", r.EmployeeID)
	if m, err := calendar.ParseMonth(r.Month); err != nil {
		errs.Add("month", "month must be in YYYY-MM format")
	} else {
		r.ParsedMonth = m
	}
}

type UpsertOverrideRequest struct {
	KeyRequest
	PresentDays   *decimal.Decimal `json:"present_days"`
	AbsentDays    *decimal.Decimal `json:"absent_days"`
	PaidLeaveDays *decimal.Decimal `json:"paid_leave_days"`
	OTMinutes     *int             `json:"ot_minutes"`
	UseOverride   bool             `json:"use_override"`
	Notes         *string          `json:"notes,omitempty"`
}

func (r *UpsertOverrideRequest) Validate() error {
	var errs validator.ValidationErrors
	r.KeyRequest.validate(&errs)

	maxDays := decimal.NewFromInt(31)
	days := map[string]*decimal.Decimal{
		"present_days":    r.PresentDays,
		"absent_days":     r.AbsentDays,
		"paid_leave_days": r.PaidLeaveDays,
	}
	for _, field := range []string{"present_days", "absent_days", "paid_leave_days"} {
		v := days[field]
		if v == nil {
			continue
		}
		if !validator.IsHalfDayMultiple(*v) {
			errs.Add(field, field+" must be a non-negative multiple of 0.5")
		} else if v.GreaterThan(maxDays) {
			errs.Add(field, field+" must not exceed 31")
		}
	}

	if r.OTMinutes != nil && *r.OTMinutes < 0 {
		errs.Add("ot_minutes", "ot_minutes must not be negative")
	}

	if r.Notes != nil && len(*r.Notes) > 1000 {
		errs.Add("notes", "notes must not exceed 1000 characters")
	}

	return errs.Err()
}

type OverrideResponse struct {
	EmployeeID    string           `json:"employee_id"`
	Month         string           `json:"month"`
	PresentDays   *decimal.Decimal `json:"present_days"`
	AbsentDays    *decimal.Decimal `json:"absent_days"`
	PaidLeaveDays *decimal.Decimal `json:"paid_leave_days"`
	OTMinutes     *int             `json:"ot_minutes"`
	UseOverride   bool             `json:"use_override"`
	Notes         *string          `json:"notes,omitempty"`
	UpdatedBy     *string          `json:"updated_by,omitempty"`
	UpdatedAt     string           `json:"updated_at"`
}

func ToResponse(o MonthOverride) OverrideResponse {
	return OverrideResponse{
		EmployeeID:    o.EmployeeID,
		Month:         o.Month.String(),
		PresentDays:   o.PresentDays,
		AbsentDays:    o.AbsentDays,
		PaidLeaveDays: o.PaidLeaveDays,
		OTMinutes:     o.OTMinutes,
		UseOverride:   o.UseOverride,
		Notes:         o.Notes,
		UpdatedBy:     o.UpdatedBy,
		UpdatedAt:     o.UpdatedAt.Format(time.RFC3339),
	}
}
