package reconciliation

import "context"

// ReconciliationService is the read-only view payroll consumes. It has no
// mutation operations.
type ReconciliationService interface {
	// ResolveEffective returns the summary of one employee's month.
	ResolveEffective(ctx context.Context, req EmployeeMonthRequest) (SummaryResponse, error)

	View(ctx context.Context, req ViewRequest) (ViewResponse, error)

	// Export renders the view of a month as an xlsx workbook.
	Export(ctx context.Context, req ViewRequest) (ExportFile, error)
}
