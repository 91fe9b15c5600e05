package model

import "errors"

var (
	// ErrConsentNotFound is returned when no consent matches the lookup.
	ErrConsentNotFound = errors.New("consent not found")
	// ErrConcurrentUpdate is returned when the consent changed between read and guarded write.
	ErrConcurrentUpdate = errors.New("consent was modified concurrently")
)
