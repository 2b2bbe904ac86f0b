package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/period"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type periodRepositoryImpl struct {
	db *database.DB
}

func NewPeriodRepository(db *database.DB) period.PeriodRepository {
	return &periodRepositoryImpl{db: db}
}

func (r *periodRepositoryImpl) get(ctx context.Context, lock string, companyID string, month calendar.Month) (period.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, month, status, frozen_at, frozen_by, generated_at, created_at, updated_at
		FROM attendance_periods
		WHERE company_id = $1 AND month = $2
	` + lock

	var (
		p      period.Period
		first  time.Time
		status string
	)
	err := q.QueryRow(ctx, query, companyID, month.FirstDay()).Scan(
		&p.ID, &p.CompanyID, &first, &status, &p.FrozenAt, &p.FrozenBy, &p.GeneratedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return period.NotGenerated(companyID, month), nil
		}
		return period.Period{}, fmt.Errorf("failed to get attendance period: %w", err)
	}

	p.Month = calendar.MonthOf(first)
	p.Status = period.Status(status)
	return p, nil
}

// Get implements period.PeriodRepository.
func (r *periodRepositoryImpl) Get(ctx context.Context, companyID string, month calendar.Month) (period.Period, error) {
	return r.get(ctx, "", companyID, month)
}

// GetForUpdate implements period.PeriodRepository.
func (r *periodRepositoryImpl) GetForUpdate(ctx context.Context, companyID string, month calendar.Month) (period.Period, error) {
	return r.get(ctx, "FOR UPDATE", companyID, month)
}

// GetForShare implements period.PeriodRepository.
func (r *periodRepositoryImpl) GetForShare(ctx context.Context, companyID string, month calendar.Month) (period.Period, error) {
	return r.get(ctx, "FOR SHARE", companyID, month)
}

// CreateOpen implements period.PeriodRepository.
func (r *periodRepositoryImpl) CreateOpen(ctx context.Context, p period.Period) (period.Period, error) {
	q := GetQuerier(ctx, r.db)

	if p.ID == "" {
		p.ID = uuid.Must(uuid.NewV7()).String()
	}

	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO attendance_periods (id, company_id, month, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (company_id, month) DO UPDATE SET company_id = EXCLUDED.company_id
		RETURNING id, status, frozen_at, frozen_by, generated_at, created_at, updated_at
	`

	var status string
	err := q.QueryRow(ctx, query, p.ID, p.CompanyID, p.Month.FirstDay(), string(period.StatusOpen)).Scan(
		&p.ID, &status, &p.FrozenAt, &p.FrozenBy, &p.GeneratedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return period.Period{}, fmt.Errorf("failed to create attendance period: %w", err)
	}

	p.Status = period.Status(status)
	return p, nil
}

// UpdateStatus implements period.PeriodRepository.
func (r *periodRepositoryImpl) UpdateStatus(ctx context.Context, p period.Period) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_periods
		SET status = $1, frozen_at = $2, frozen_by = $3, updated_at = NOW()
		WHERE company_id = $4 AND month = $5
	`

	tag, err := q.Exec(ctx, query, string(p.Status), p.FrozenAt, p.FrozenBy, p.CompanyID, p.Month.FirstDay())
	if err != nil {
		return fmt.Errorf("failed to update attendance period status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return period.ErrPeriodNotGenerated
	}
	return nil
}

// TouchGenerated implements period.PeriodRepository.
func (r *periodRepositoryImpl) TouchGenerated(ctx context.Context, p period.Period) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_periods
		SET generated_at = $1, updated_at = NOW()
		WHERE company_id = $2 AND month = $3
	`

	tag, err := q.Exec(ctx, query, p.GeneratedAt, p.CompanyID, p.Month.FirstDay())
	if err != nil {
		return fmt.Errorf("failed to record attendance generation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return period.ErrPeriodNotGenerated
	}
	return nil
}
