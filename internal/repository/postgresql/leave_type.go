package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveTypeRepositoryImpl struct {
	db *database.DB
}

func NewLeaveTypeRepository(db *database.DB) leave.LeaveTypeRepository {
	return &leaveTypeRepositoryImpl{db: db}
}

// GetByID implements leave.LeaveTypeRepository.
func (l *leaveTypeRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (leave.LeaveType, error) {
	q := GetQuerier(ctx, l.db)
	query := `
		SELECT id, company_id, name, code, is_paid, is_active, allow_half_day, created_at, updated_at
		FROM leave_types
		WHERE id = $1 AND company_id = $2
	`
	var lt leave.LeaveType
	err := q.QueryRow(ctx, query, id, companyID).Scan(
		&lt.ID, &lt.CompanyID, &lt.Name, &lt.Code, &lt.IsPaid, &lt.IsActive, &lt.AllowHalfDay,
		&lt.CreatedAt, &lt.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
		}
		return leave.LeaveType{}, fmt.Errorf("failed to get leave type: %w", err)
	}
	return lt, nil
}

// GetPaidFlags implements leave.LeaveTypeRepository.
func (l *leaveTypeRepositoryImpl) GetPaidFlags(ctx context.Context, companyID string) (leave.PaidFlags, error) {
	q := GetQuerier(ctx, l.db)
	query := `SELECT id, is_paid FROM leave_types WHERE company_id = $1`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get leave type paid flags: %w", err)
	}
	defer rows.Close()

	flags := make(leave.PaidFlags)
	for rows.Next() {
		var (
			id     string
			isPaid bool
		)
		if err := rows.Scan(&id, &isPaid); err != nil {
			return nil, fmt.Errorf("failed to scan leave type paid flag: %w", err)
		}
		flags[id] = isPaid
	}
	return flags, rows.Err()
}
