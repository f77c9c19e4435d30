package booking

import (
	"errors"
	"strings"
)

var (
	// ErrSubmitInFlight is returned by Submit while another submission is running.
	ErrSubmitInFlight = errors.New("booking submission already in flight")
)

// ValidationError reports which inputs prevent a submission. Fields lists
// every offending side; Missing holds those with blank text and Unresolved
// those whose text has no resolved coordinate.
type ValidationError struct {
	Fields     []string
	Missing    []string
	Unresolved []string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return "missing or unresolved: " + strings.Join(e.Fields, ", ")
}

// UserMessage names the fields the rider has to fix, e.g.
// "Please resolve the dropoff location".
func (e *ValidationError) UserMessage() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "enter the "+locations(e.Missing))
	}
	if len(e.Unresolved) > 0 {
		parts = append(parts, "resolve the "+locations(e.Unresolved))
	}
	if len(parts) == 0 {
		return MsgMissingInputs
	}
	return "Please " + strings.Join(parts, " and ")
}

func locations(fields []string) string {
	if len(fields) == 1 {
		return fields[0] + " location"
	}
	return strings.Join(fields, " and ") + " locations"
}
