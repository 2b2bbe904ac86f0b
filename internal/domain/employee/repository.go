package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	GetActiveByCompanyID(ctx context.Context, companyID string) ([]Employee, error)

	// ListByIDs returns the employees of the company among ids, active or not.
	ListByIDs(ctx context.Context, companyID string, ids []string) ([]Employee, error)

	// ListCompanyIDsWithActiveEmployees is used by the period scheduler.
	ListCompanyIDsWithActiveEmployees(ctx context.Context) ([]string, error)
}
