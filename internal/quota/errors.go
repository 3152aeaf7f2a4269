package quota

import (
	"errors"
	"fmt"
)

// MissingIdentifierError indicates that a required identifier could not be
// resolved for an entry. It fails the single fetch, never the batch.
type MissingIdentifierError struct {
	Field string
}

func (e *MissingIdentifierError) Error() string {
	return fmt.Sprintf("missing %s", e.Field)
}

// RequestFailedError indicates a non-2xx status or transport error reported
// by the generic authenticated call.
type RequestFailedError struct {
	StatusCode int
	Message    string
}

func (e *RequestFailedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return "request failed"
}

// IsMissingIdentifier reports whether err is a MissingIdentifierError.
func IsMissingIdentifier(err error) bool {
	var mi *MissingIdentifierError
	return errors.As(err, &mi)
}
