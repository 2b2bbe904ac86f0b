package http

import (
	"net/http"
	"strings"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/reconciliation"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ReconciliationHandler interface {
	View(w http.ResponseWriter, r *http.Request)
	GetEmployee(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
}

type reconciliationHandlerImpl struct {
	reconciliationService reconciliation.ReconciliationService
}

func NewReconciliationHandler(reconciliationService reconciliation.ReconciliationService) ReconciliationHandler {
	return &reconciliationHandlerImpl{
		reconciliationService: reconciliationService,
	}
}

// viewRequest reads ?employee_ids=a,b in addition to the month path param.
func viewRequest(r *http.Request) reconciliation.ViewRequest {
	req := reconciliation.ViewRequest{Month: chi.URLParam(r, "month")}
	if ids := r.URL.Query().Get("employee_ids"); ids != "" {
		for _, id := range strings.Split(ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				req.EmployeeIDs = append(req.EmployeeIDs, id)
			}
		}
	}
	return req
}

// View implements ReconciliationHandler.
func (h *reconciliationHandlerImpl) View(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconciliationService.View(r.Context(), viewRequest(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetEmployee implements ReconciliationHandler.
func (h *reconciliationHandlerImpl) GetEmployee(w http.ResponseWriter, r *http.Request) {
	req := reconciliation.EmployeeMonthRequest{
		EmployeeID: chi.URLParam(r, "employee_id"),
		Month:      chi.URLParam(r, "month"),
	}

	result, err := h.reconciliationService.ResolveEffective(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Export implements ReconciliationHandler.
func (h *reconciliationHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	file, err := h.reconciliationService.Export(r.Context(), viewRequest(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.File(w, file.Filename, file.ContentType, file.Content)
}
