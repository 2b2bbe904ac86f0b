package leave

import "errors"

var (
	ErrLeaveTypeNotFound  = errors.New("leave type not found")
	ErrHalfDayNotAllowed  = errors.New("leave type does not allow half days")
	ErrLeaveTypeNotActive = errors.New("leave type is not active")
)
