package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a remote failure.
type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindLookupFailed      Kind = "LOOKUP_FAILED"
	KindComputationFailed Kind = "COMPUTATION_FAILED"
	KindServer            Kind = "SERVER"
	KindTransport         Kind = "TRANSPORT"
)

// Error is a classified gateway failure.
//
// Message is the structured message supplied by the remote side, if any; it is
// safe to show to the end user verbatim. Err carries the underlying cause.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain, or KindTransport
// for unclassified errors.
func KindOf(err error) Kind {
	if ge := (*Error)(nil); errors.As(err, &ge) {
		return ge.Kind
	}
	return KindTransport
}

// IsUnauthorized reports whether the remote side rejected the session token.
func IsUnauthorized(err error) bool {
	ge := (*Error)(nil)
	return errors.As(err, &ge) && ge.Kind == KindUnauthorized
}

// UserMessage returns the structured remote message carried by err, or fallback
// when none is available.
func UserMessage(err error, fallback string) string {
	if ge := (*Error)(nil); errors.As(err, &ge) && ge.Message != "" {
		return ge.Message
	}
	return fallback
}
