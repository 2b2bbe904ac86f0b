package schedule

import "errors"

var (
	ErrShiftNotFound    = errors.New("shift not found")
	ErrInvalidShiftTime = errors.New("invalid shift time, use HH:MM")
)
