package user

import "errors"

var (
	ErrManagerAccessRequired    = errors.New("manager access required")
	ErrInsufficientPermissions  = errors.New("insufficient permissions")
	ErrAttendanceManageRequired = errors.New("attendance management permission required")
	ErrCompanyIDRequired        = errors.New("company ID is required")
	ErrMissingClaims            = errors.New("access token claims missing")
)
