package period

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// MonthRequest addresses a period by its month path parameter.
type MonthRequest struct {
	Month string `json:"-"` // YYYY-MM

	ParsedMonth calendar.Month `json:"-"`
}

func (r *MonthRequest) Validate() error {
	var errs validator.ValidationErrors

	if m, err := calendar.ParseMonth(r.Month); err != nil {
		errs.Add("month", "month must be in YYYY-MM format")
	} else {
		r.ParsedMonth = m
	}

	return errs.Err()
}

// RecomputeRequest re-derives metrics. An empty EmployeeIDs recomputes the
// whole month.
type RecomputeRequest struct {
	MonthRequest
	EmployeeIDs []string `json:"employee_ids,omitempty"`
}

func (r *RecomputeRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := r.MonthRequest.Validate(); err != nil {
		errs = append(errs, err.(validator.ValidationErrors)...)
	}
	validateIDs(&errs, r.EmployeeIDs)
	return errs.Err()
}

type MarkWeekdaysPresentRequest struct {
	MonthRequest
	EmployeeIDs []string `json:"employee_ids"`
}

func (r *MarkWeekdaysPresentRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := r.MonthRequest.Validate(); err != nil {
		errs = append(errs, err.(validator.ValidationErrors)...)
	}
	if len(r.EmployeeIDs) == 0 {
		errs.Add("employee_ids", "employee_ids is required")
	}
	validateIDs(&errs, r.EmployeeIDs)
	return errs.Err()
}

func validateIDs(errs *validator.ValidationErrors, ids []string) {
	for _, id := range ids {
		if !validator.IsValidUUID(id) {
			errs.Add("employee_ids", "employee_ids must contain valid UUIDs")
			return
		}
	}
}

type PeriodResponse struct {
	Month       string  `json:"month"`
	Status      string  `json:"status"`
	FrozenAt    *string `json:"frozen_at,omitempty"`
	FrozenBy    *string `json:"frozen_by,omitempty"`
	GeneratedAt *string `json:"generated_at,omitempty"`
}

func ToResponse(p Period) PeriodResponse {
	resp := PeriodResponse{
		Month:    p.Month.String(),
		Status:   string(p.Status),
		FrozenBy: p.FrozenBy,
	}
	if p.FrozenAt != nil {
		s := p.FrozenAt.Format(time.RFC3339)
		resp.FrozenAt = &s
	}
	if p.GeneratedAt != nil {
		s := p.GeneratedAt.Format(time.RFC3339)
		resp.GeneratedAt = &s
	}
	return resp
}

type BatchFailureResponse struct {
	EmployeeIDs []string `json:"employee_ids"`
	Error       string   `json:"error"`
}

type BatchResultResponse struct {
	Period    PeriodResponse         `json:"period"`
	Total     int                    `json:"total"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Affected  int64                  `json:"affected_rows"`
	Failures  []BatchFailureResponse `json:"failures"`
}

func ToBatchResponse(p Period, r BatchResult) BatchResultResponse {
	resp := BatchResultResponse{
		Period:    ToResponse(p),
		Total:     r.Total,
		Succeeded: r.Succeeded,
		Failed:    r.Failed,
		Affected:  r.Affected,
		Failures:  make([]BatchFailureResponse, 0, len(r.Failures)),
	}
	for _, f := range r.Failures {
		resp.Failures = append(resp.Failures, BatchFailureResponse{
			EmployeeIDs: f.EmployeeIDs,
			Error:       f.Err.Error(),
		})
	}
	return resp
}
