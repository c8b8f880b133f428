package domain

import "errors"

// ErrInvalidParameter is returned when any input is outside its documented domain.
// Validation always happens before sampling starts, so no partial results exist.
var ErrInvalidParameter = errors.New("invalid parameter")
