package attendance

import (
	"testing"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const employeeID = "0190a6e2-0000-7000-8000-000000000001"

func strPtr(s string) *string { return &s }

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	return verrs.ToMap()
}

func TestManualEditRequest_Validate(t *testing.T) {
	req := ManualEditRequest{
		EmployeeID: employeeID,
		Date:       "2024-06-03",
		CheckIn:    strPtr("2024-06-03T09:00:00+07:00"),
		CheckOut:   strPtr("2024-06-03T18:00:00+07:00"),
		Status:     strPtr("Present"),
	}
	require.NoError(t, req.Validate())
	assert.Equal(t, june3, req.Day)

	status, ok := req.NewStatus()
	assert.True(t, ok)
	assert.Equal(t, StatusPresent, status)
}

func TestManualEditRequest_RejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		req   ManualEditRequest
		field string
		msg   string
	}{
		{
			name:  "employee id is not a uuid",
			req:   ManualEditRequest{EmployeeID: "not-a-uuid", Date: "2024-06-03"},
			field: "employee_id",
			msg:   "employee_id must be a valid UUID",
		},
		{
			name:  "employee id missing",
			req:   ManualEditRequest{Date: "2024-06-03"},
			field: "employee_id",
			msg:   "employee_id is required",
		},
		{
			name:  "bad date",
			req:   ManualEditRequest{EmployeeID: employeeID, Date: "03-06-2024"},
			field: "date",
		},
		{
			name: "check out before check in",
			req: ManualEditRequest{
				EmployeeID: employeeID,
				Date:       "2024-06-03",
				CheckIn:    strPtr("2024-06-03T18:00:00Z"),
				CheckOut:   strPtr("2024-06-03T09:00:00Z"),
			},
			field: "check_out",
		},
		{
			name:  "unknown status",
			req:   ManualEditRequest{EmployeeID: employeeID, Date: "2024-06-03", Status: strPtr("sick")},
			field: "status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validationFields(t, tt.req.Validate())
			require.Contains(t, fields, tt.field)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, fields[tt.field])
			}
		})
	}
}

func TestSyncExternalDayRequest_LeaveTypeMustBeUUID(t *testing.T) {
	req := SyncExternalDayRequest{
		EmployeeID:  employeeID,
		Date:        "2024-06-03",
		Status:      "leave",
		LeaveTypeID: strPtr("annual"),
	}

	fields := validationFields(t, req.Validate())
	assert.Equal(t, "leave_type_id must be a valid UUID", fields["leave_type_id"])
}

func TestDayFilter_RejectsMalformedEmployeeID(t *testing.T) {
	f := DayFilter{Month: "2024-06", EmployeeID: strPtr("42")}

	fields := validationFields(t, f.Validate())
	assert.Contains(t, fields, "employee_id")
}
