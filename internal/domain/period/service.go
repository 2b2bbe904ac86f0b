package period

import "context"

// PeriodService is the attendance period controller. Generation, recompute and
// mark-weekdays-present are chunked batches that report partial failure in
// the result instead of failing the call.
type PeriodService interface {
	Get(ctx context.Context, req MonthRequest) (PeriodResponse, error)
	Generate(ctx context.Context, req MonthRequest) (BatchResultResponse, error)
	Freeze(ctx context.Context, req MonthRequest) (PeriodResponse, error)
	Unfreeze(ctx context.Context, req MonthRequest) (PeriodResponse, error)
	Recompute(ctx context.Context, req RecomputeRequest) (BatchResultResponse, error)
	MarkWeekdaysPresent(ctx context.Context, req MarkWeekdaysPresentRequest) (BatchResultResponse, error)
}
