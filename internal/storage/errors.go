package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no context exists under the given id.
	ErrNotFound = errors.New("context not found")

	// ErrCircuitOpen is returned by a breaker-wrapped adapter while the
	// backend is considered down.
	ErrCircuitOpen = errors.New("storage circuit open")
)

// ConfigError reports an unusable storage configuration: an unknown or
// malformed connection URI, or a backend with no registered opener. It
// is raised at construction time, never during reads or writes.
type ConfigError struct {
	Scheme string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Scheme == "" {
		return fmt.Sprintf("storage config: %s", e.Reason)
	}
	return fmt.Sprintf("storage config: scheme %q: %s", e.Scheme, e.Reason)
}

// StorageError wraps a failure while talking to a backend, tagged with
// the backend name and, when known, the context id and field being
// processed.
type StorageError struct {
	Backend string
	ID      string
	Field   string
	Err     error
}

func (e *StorageError) Error() string {
	msg := fmt.Sprintf("%s storage", e.Backend)
	if e.ID != "" {
		msg += fmt.Sprintf(": id %s", e.ID)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(": field %s", e.Field)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// storageErr builds a StorageError unless err already is one (or is a
// sentinel that must stay unwrapped for errors.Is checks at call sites).
func storageErr(backend, id, field string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return &StorageError{Backend: backend, ID: id, Field: field, Err: err}
}
