package sim

import "errors"

// Errors returned when a factory definition or edit is rejected.
var (
	ErrInvalidID       = errors.New("invalid id")
	ErrDuplicateID     = errors.New("duplicate id")
	ErrUnknownItem     = errors.New("unknown item")
	ErrUnknownMachine  = errors.New("unknown machine")
	ErrItemInUse       = errors.New("item referenced by a machine port")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidDuration = errors.New("invalid operation duration")
	ErrDanglingLink    = errors.New("topology link does not resolve to a port")
	ErrInvalidHorizon  = errors.New("invalid horizon")
)
