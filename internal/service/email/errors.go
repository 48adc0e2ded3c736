package email

import "errors"

// Sentinel errors for the email service layer.
var (
	ErrNotFound          = errors.New("email not found")
	ErrLeadNotFound      = errors.New("lead not found for email")
	ErrInvalidTransition = errors.New("invalid email status transition")
	ErrInvalidStatus     = errors.New("unknown email status")
)
