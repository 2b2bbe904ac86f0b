package employee

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
)

// Employee is the read-only projection of the employee master that the
// attendance engine needs. Employee CRUD lives outside this service.
type Employee struct {
	ID               string
	CompanyID        string
	BranchID         string
	EmployeeCode     string
	FullName         string
	PositionName     *string
	EmploymentStatus EmploymentStatus
	HireDate         time.Time
	ResignationDate  *time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}

// EmployedOn reports whether day falls between hire and resignation dates.
func (e Employee) EmployedOn(day time.Time) bool {
	if !e.HireDate.IsZero() && day.Before(e.HireDate) {
		return false
	}
	return e.ResignationDate == nil || !day.After(*e.ResignationDate)
}

// Ref is the projection the schedule resolvers work on.
func (e Employee) Ref() schedule.EmployeeRef {
	return schedule.EmployeeRef{ID: e.ID, BranchID: e.BranchID}
}

func Refs(employees []Employee) []schedule.EmployeeRef {
	refs := make([]schedule.EmployeeRef, len(employees))
	for i, e := range employees {
		refs[i] = e.Ref()
	}
	return refs
}
