package service

import "fmt"

// ValidationError rejects a malformed request before anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports a duplicate device identifier.
type ConflictError struct {
	DeviceID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("device %s already registered", e.DeviceID)
}

// NotFoundError reports an operation against an unknown device.
type NotFoundError struct {
	DeviceID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("device %s not found", e.DeviceID)
}
