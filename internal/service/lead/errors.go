package lead

import "errors"

// Sentinel errors for the lead service layer.
var (
	ErrNotFound          = errors.New("lead not found")
	ErrDuplicate         = errors.New("lead already exists for email and service type")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("unknown lead status")
	ErrInvalidService    = errors.New("unknown service type")
)
