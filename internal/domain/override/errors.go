package override

import "errors"

var (
	ErrOverrideNotFound = errors.New("month override not found")
)
