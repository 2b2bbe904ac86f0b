package override

import "context"

// OverrideService writes month overrides. None of its operations depend on
// the attendance period lock: an override corrects payroll input on top of a
// frozen baseline and never mutates the baseline itself.
type OverrideService interface {
	Get(ctx context.Context, req KeyRequest) (OverrideResponse, error)
	Upsert(ctx context.Context, req UpsertOverrideRequest) (OverrideResponse, error)
	Clear(ctx context.Context, req KeyRequest) error
}
