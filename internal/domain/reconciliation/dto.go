package reconciliation

import (
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type EmployeeMonthRequest struct {
	EmployeeID string `json:"-"`
	Month      string `json:"-"`

	ParsedMonth calendar.Month `json:"-"`
}

func (r *EmployeeMonthRequest) Validate() error {
	var errs validator.ValidationErrors

	errs.AddUUID("employee_id", r.EmployeeID)
	if m, err := calendar.ParseMonth(r.Month); err != nil {
		errs.Add("month", "month must be in YYYY-MM format")
	} else {
		r.ParsedMonth = m
	}

	return errs.Err()
}

// ViewRequest selects the rows of a month. Empty EmployeeIDs means every
// employee that is active or has attendance data in the month.
type ViewRequest struct {
	Month       string   `json:"-"`
	EmployeeIDs []string `json:"employee_ids,omitempty"`

	ParsedMonth calendar.Month `json:"-"`
}

func (r *ViewRequest) Validate() error {
	var errs validator.ValidationErrors

	if m, err := calendar.ParseMonth(r.Month); err != nil {
		errs.Add("month", "month must be in YYYY-MM format")
	} else {
		r.ParsedMonth = m
	}
	for _, id := range r.EmployeeIDs {
		if !validator.IsValidUUID(id) {
			errs.Add("employee_ids", "employee_ids must contain valid UUIDs")
			break
		}
	}

	return errs.Err()
}

type MeasuresResponse struct {
	PresentDays   decimal.Decimal `json:"present_days"`
	AbsentDays    decimal.Decimal `json:"absent_days"`
	PaidLeaveDays decimal.Decimal `json:"paid_leave_days"`
	OTMinutes     int             `json:"ot_minutes"`
}

type OverrideMeasuresResponse struct {
	PresentDays   *decimal.Decimal `json:"present_days"`
	AbsentDays    *decimal.Decimal `json:"absent_days"`
	PaidLeaveDays *decimal.Decimal `json:"paid_leave_days"`
	OTMinutes     *int             `json:"ot_minutes"`
}

type SummaryResponse struct {
	EmployeeID                string                   `json:"employee_id"`
	EmployeeCode              string                   `json:"employee_code,omitempty"`
	EmployeeName              string                   `json:"employee_name,omitempty"`
	Month                     string                   `json:"month"`
	PeriodStatus              string                   `json:"period_status"`
	Computed                  MeasuresResponse         `json:"computed"`
	Override                  OverrideMeasuresResponse `json:"override"`
	Effective                 MeasuresResponse         `json:"effective"`
	UseOverride               bool                     `json:"use_override"`
	OverrideNotes             *string                  `json:"override_notes,omitempty"`
	AttendanceOverridden      bool                     `json:"attendance_overridden"`
	AttendanceUnfrozenWarning bool                     `json:"attendance_unfrozen_warning"`
}

type ViewResponse struct {
	Month                     string            `json:"month"`
	PeriodStatus              string            `json:"period_status"`
	AttendanceUnfrozenWarning bool              `json:"attendance_unfrozen_warning"`
	Total                     int               `json:"total"`
	Rows                      []SummaryResponse `json:"rows"`
}

// ExportFile is a rendered workbook ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

func toMeasuresResponse(m Measures) MeasuresResponse {
	return MeasuresResponse{
		PresentDays:   m.PresentDays,
		AbsentDays:    m.AbsentDays,
		PaidLeaveDays: m.PaidLeaveDays,
		OTMinutes:     m.OTMinutes,
	}
}

func ToResponse(s MonthSummary) SummaryResponse {
	return SummaryResponse{
		EmployeeID:   s.EmployeeID,
		EmployeeCode: s.EmployeeCode,
		EmployeeName: s.EmployeeName,
		Month:        s.Month.String(),
		PeriodStatus: string(s.PeriodStatus),
		Computed:     toMeasuresResponse(s.Computed),
		Override: OverrideMeasuresResponse{
			PresentDays:   s.Override.PresentDays,
			AbsentDays:    s.Override.AbsentDays,
			PaidLeaveDays: s.Override.PaidLeaveDays,
			OTMinutes:     s.Override.OTMinutes,
		},
		Effective:                 toMeasuresResponse(s.Effective),
		UseOverride:               s.UseOverride,
		OverrideNotes:             s.Notes,
		AttendanceOverridden:      s.AttendanceOverridden,
		AttendanceUnfrozenWarning: s.AttendanceUnfrozenWarning,
	}
}
