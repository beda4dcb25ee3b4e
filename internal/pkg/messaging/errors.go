package messaging

import (
	"errors"
	"fmt"
)

// PermanentError marks a failure that no amount of redelivery can fix:
// malformed payload, unknown message type, missing correlation data,
// entity not found, entity in an invalid state. The consumer
// dead-letters on it. Every other handler error is treated as
// transient and the message is abandoned for redelivery.
type PermanentError struct {
	Reason string
	Err    error
}

func (e *PermanentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err as a permanent failure with a human-readable
// reason that ends up on the dead-letter record.
func Permanent(reason string, err error) error {
	return &PermanentError{Reason: reason, Err: err}
}

// Permanentf builds a permanent failure from a format string.
func Permanentf(format string, args ...interface{}) error {
	return &PermanentError{Reason: fmt.Sprintf(format, args...)}
}

// AsPermanent extracts the dead-letter reason when err is permanent.
func AsPermanent(err error) (string, bool) {
	var pe *PermanentError
	if errors.As(err, &pe) {
		return pe.Reason, true
	}
	return "", false
}
