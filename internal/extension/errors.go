package extension

import (
	"errors"
	"fmt"
)

// Extension subsystem errors.
var (
	// ErrInvalidExtension is matched by every ValidationError.
	ErrInvalidExtension = errors.New("invalid extension")

	// ErrModuleNotFound is returned when no loader can resolve an extension's module.
	ErrModuleNotFound = errors.New("extension module not found")

	// ErrActivation wraps failures returned (or panics raised) by Activate.
	ErrActivation = errors.New("extension activation failed")

	// ErrDispose wraps failures returned (or panics raised) by Dispose.
	ErrDispose = errors.New("extension dispose failed")

	// ErrRegistryClosed is returned when an extension finishes loading after
	// the registry was disposed.
	ErrRegistryClosed = errors.New("extension registry disposed")
)

// ValidationError reports a missing or invalid manifest field or a missing
// runtime capability. It is fatal to a single extension load, never to the host.
type ValidationError struct {
	Field  string // "name", "version", "activate", "dispose", ...
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("extension %s is required", e.Field)
	}
	return fmt.Sprintf("extension %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidExtension) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidExtension
}
