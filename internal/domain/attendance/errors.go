package attendance

import "errors"

// Attendance domain errors
var (
	ErrAlreadyOpen      = errors.New("an open attendance session already exists")
	ErrNoOpenSession    = errors.New("no open attendance session to close")
	ErrClockOutBeforeIn = errors.New("clock-out time is before clock-in time")
)
