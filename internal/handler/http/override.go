package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/override"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type OverrideHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	Upsert(w http.ResponseWriter, r *http.Request)
	Clear(w http.ResponseWriter, r *http.Request)
}

type overrideHandlerImpl struct {
	overrideService override.OverrideService
}

func NewOverrideHandler(overrideService override.OverrideService) OverrideHandler {
	return &overrideHandlerImpl{
		overrideService: overrideService,
	}
}

func overrideKey(r *http.Request) override.KeyRequest {
	return override.KeyRequest{
		EmployeeID: chi.URLParam(r, "employee_id"),
		Month:      chi.URLParam(r, "month"),
	}
}

// Get implements OverrideHandler.
func (h *overrideHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.overrideService.Get(r.Context(), overrideKey(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Upsert implements OverrideHandler.
func (h *overrideHandlerImpl) Upsert(w http.ResponseWriter, r *http.Request) {
	var req override.UpsertOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.KeyRequest = overrideKey(r)

	result, err := h.overrideService.Upsert(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Month override saved", result)
}

// Clear implements OverrideHandler.
func (h *overrideHandlerImpl) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.overrideService.Clear(r.Context(), overrideKey(r)); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Month override cleared", nil)
}
