package override

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
	"github.com/shopspring/decimal"
)

// MonthOverride is the HR correction of one employee's monthly totals. Each
// nil field means "no override for this measure".
type MonthOverride struct {
	ID            string
	CompanyID     string
	EmployeeID    string
	Month         calendar.Month
	PresentDays   *decimal.Decimal
	AbsentDays    *decimal.Decimal
	PaidLeaveDays *decimal.Decimal
	OTMinutes     *int
	UseOverride   bool
	Notes         *string
	UpdatedBy     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasValues reports whether at least one measure is overridden.
func (o MonthOverride) HasValues() bool {
	return o.PresentDays != nil || o.AbsentDays != nil || o.PaidLeaveDays != nil || o.OTMinutes != nil
}

// Active reports an override that changes at least one effective value.
func (o MonthOverride) Active() bool {
	return o.UseOverride && o.HasValues()
}
