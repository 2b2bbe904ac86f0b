package period

import "errors"

var (
	// ErrPeriodLocked is returned for any day mutation while the month is
	// not open. It reflects an operator lock and is never retried.
	ErrPeriodLocked = errors.New("attendance period is locked")

	ErrPeriodAlreadyFrozen = errors.New("attendance period is already frozen")
	ErrPeriodNotFrozen     = errors.New("attendance period is not frozen")
	ErrPeriodNotGenerated  = errors.New("attendance period has not been generated")
)
