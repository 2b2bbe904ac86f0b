package attendance

import "errors"

// Attendance domain errors
var (
	ErrAttendanceNotFound = errors.New("attendance record not found")

	// ErrImmutableSource rejects a status change on a day whose status is
	// owned by leave or holiday sync.
	ErrImmutableSource = errors.New("status of a leave or holiday day cannot be changed manually")

	ErrCheckOutBeforeCheckIn = errors.New("check_out must be after check_in")
	ErrInvalidSyncStatus     = errors.New("external sync only writes leave or holiday days")
)
