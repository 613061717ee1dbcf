package service

import "errors"

// Outcomes the HTTP layer maps to specific statuses.  Anything else a
// service returns is a store or collaborator failure.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("user already exists")
	ErrSessionRequired    = errors.New("session identity required")
	ErrSlotFull           = errors.New("slot is full")
	ErrTooLateToCancel    = errors.New("too late to cancel")
	ErrSlotNotFound       = errors.New("no matching booking")
	ErrNoCreditsLeft      = errors.New("no credits left")
	ErrMenuNotAvailable   = errors.New("previous menu not available")
	ErrTrafficUnavailable = errors.New("current traffic unavailable")
)
