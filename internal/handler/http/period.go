package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/period"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PeriodHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	Generate(w http.ResponseWriter, r *http.Request)
	Freeze(w http.ResponseWriter, r *http.Request)
	Unfreeze(w http.ResponseWriter, r *http.Request)
	Recompute(w http.ResponseWriter, r *http.Request)
	MarkWeekdaysPresent(w http.ResponseWriter, r *http.Request)
}

type periodHandlerImpl struct {
	periodService period.PeriodService
}

func NewPeriodHandler(periodService period.PeriodService) PeriodHandler {
	return &periodHandlerImpl{
		periodService: periodService,
	}
}

func monthRequest(r *http.Request) period.MonthRequest {
	return period.MonthRequest{Month: chi.URLParam(r, "month")}
}

// decodeOptionalJSON accepts an empty body.
func decodeOptionalJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Get implements PeriodHandler.
func (h *periodHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	req := monthRequest(r)
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.periodService.Get(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Generate implements PeriodHandler.
func (h *periodHandlerImpl) Generate(w http.ResponseWriter, r *http.Request) {
	req := monthRequest(r)
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.periodService.Generate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, batchMessage("Attendance period generated", result), result)
}

// Freeze implements PeriodHandler.
func (h *periodHandlerImpl) Freeze(w http.ResponseWriter, r *http.Request) {
	req := monthRequest(r)
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.periodService.Freeze(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance period frozen", result)
}

// Unfreeze implements PeriodHandler.
func (h *periodHandlerImpl) Unfreeze(w http.ResponseWriter, r *http.Request) {
	req := monthRequest(r)
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.periodService.Unfreeze(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance period unfrozen", result)
}

// Recompute implements PeriodHandler.
func (h *periodHandlerImpl) Recompute(w http.ResponseWriter, r *http.Request) {
	var req period.RecomputeRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.MonthRequest = monthRequest(r)

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.periodService.Recompute(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, batchMessage("Attendance metrics recomputed", result), result)
}

// MarkWeekdaysPresent implements PeriodHandler.
func (h *periodHandlerImpl) MarkWeekdaysPresent(w http.ResponseWriter, r *http.Request) {
	var req period.MarkWeekdaysPresentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.MonthRequest = monthRequest(r)

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.periodService.MarkWeekdaysPresent(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, batchMessage("Weekdays marked present", result), result)
}

func batchMessage(done string, result period.BatchResultResponse) string {
	if result.Failed > 0 {
		return done + " with partial failures"
	}
	return done
}
