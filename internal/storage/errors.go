package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the row does not exist. Callers treat it as "absent".
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a uniqueness constraint rejected a write.
	ErrConflict = errors.New("record already exists")
	// ErrUnauthorized means the store refused the caller's credentials.
	ErrUnauthorized = errors.New("not authorized")
	// ErrTransport covers connection failures and anything unclassified.
	ErrTransport = errors.New("store unavailable")
)

// Wrap tags err with kind and the failing operation. The original error
// stays reachable through errors.Is/As.
func Wrap(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// Kind returns the taxonomy sentinel carried by err, or ErrTransport when
// err carries none.
func Kind(err error) error {
	for _, kind := range []error{ErrNotFound, ErrConflict, ErrUnauthorized, ErrTransport} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrTransport
}

// IsNotFound reports whether err means the row is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// Classify maps errors that every backend shares (context expiry) and
// otherwise defers to the backend-specific classifier.
func Classify(op string, err error, backend func(error) error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Wrap(op, ErrTransport, err)
	}
	for _, kind := range []error{ErrNotFound, ErrConflict, ErrUnauthorized, ErrTransport} {
		if errors.Is(err, kind) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return Wrap(op, backend(err), err)
}
