package override

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/override"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
)

type OverrideServiceImpl struct {
	overrideRepo override.OverrideRepository
	employeeRepo employee.EmployeeRepository
}

func NewOverrideService(overrideRepo override.OverrideRepository, employeeRepo employee.EmployeeRepository) override.OverrideService {
	return &OverrideServiceImpl{
		overrideRepo: overrideRepo,
		employeeRepo: employeeRepo,
	}
}

// Get implements override.OverrideService.
func (s *OverrideServiceImpl) Get(ctx context.Context, req override.KeyRequest) (override.OverrideResponse, error) {
	actor, err := user.ViewerFromContext(ctx)
	if err != nil {
		return override.OverrideResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return override.OverrideResponse{}, err
	}

	o, err := s.overrideRepo.Get(ctx, actor.CompanyID, req.EmployeeID, req.ParsedMonth)
	if err != nil {
		return override.OverrideResponse{}, err
	}
	return override.ToResponse(o), nil
}

// Upsert implements override.OverrideService. The attendance period lock is
// intentionally not consulted.
func (s *OverrideServiceImpl) Upsert(ctx context.Context, req override.UpsertOverrideRequest) (override.OverrideResponse, error) {
	actor, err := user.ManagerFromContext(ctx)
	if err != nil {
		return override.OverrideResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return override.OverrideResponse{}, err
	}

	// Former employees keep their overrides editable for late payroll runs.
	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, actor.CompanyID); err != nil {
		return override.OverrideResponse{}, err
	}

	o := override.MonthOverride{
		CompanyID:     actor.CompanyID,
		EmployeeID:    req.EmployeeID,
		Month:         req.ParsedMonth,
		PresentDays:   req.PresentDays,
		AbsentDays:    req.AbsentDays,
		PaidLeaveDays: req.PaidLeaveDays,
		OTMinutes:     req.OTMinutes,
		UseOverride:   req.UseOverride,
	}
	if req.Notes != nil {
		notes := strings.TrimSpace(*req.Notes)
		o.Notes = &notes
	}
	if actor.UserID != "" {
		by := actor.UserID
		o.UpdatedBy = &by
	}

	saved, err := s.overrideRepo.Upsert(ctx, o)
	if err != nil {
		return override.OverrideResponse{}, fmt.Errorf("failed to save month override: %w", err)
	}

	slog.Info("Month override saved",
		"company_id", actor.CompanyID,
		"employee_id", saved.EmployeeID,
		"month", saved.Month.String(),
		"use_override", saved.UseOverride,
		"user_id", actor.UserID,
	)

	return override.ToResponse(saved), nil
}

// Clear implements override.OverrideService.
func (s *OverrideServiceImpl) Clear(ctx context.Context, req override.KeyRequest) error {
	actor, err := user.ManagerFromContext(ctx)
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	if err := s.overrideRepo.Delete(ctx, actor.CompanyID, req.EmployeeID, req.ParsedMonth); err != nil {
		if errors.Is(err, override.ErrOverrideNotFound) {
			return err
		}
		return fmt.Errorf("failed to clear month override: %w", err)
	}

	slog.Info("Month override cleared",
		"company_id", actor.CompanyID,
		"employee_id", req.EmployeeID,
		"month", req.ParsedMonth.String(),
		"user_id", actor.UserID,
	)
	return nil
}
