package domain

import "errors"

// Sentinel errors shared by services and repos. Transport maps them to
// response codes in exactly one place.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrExternalService   = errors.New("external service failure")
)
