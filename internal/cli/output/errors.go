package output

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
)

// Exit code constants
const (
	ExitSuccess     = 0
	ExitGeneral     = 1
	ExitUsageError  = 2
	ExitConfigError = 4
	ExitAuthError   = 5
)

// CLIError is a structured error with user-facing context
type CLIError struct {
	Summary    string
	Detail     string
	Suggestion string
	ExitCode   int

	// Reported marks errors whose message already reached the user as a notification.
	Reported bool
}

// Error implements the error interface, returning the summary
func (e *CLIError) Error() string {
	return e.Summary
}

// ExitCodeOf returns the exit code carried by err
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if ce := (*CLIError)(nil); errors.As(err, &ce) && ce.ExitCode != 0 {
		return ce.ExitCode
	}
	return ExitGeneral
}

// FormatError prints a structured error message to stderr
func (p *Printer) FormatError(e *CLIError) {
	if p.useColors {
		color.New(color.FgRed, color.Bold).Fprintf(p.err, "Error: %s\n", e.Summary)
		if e.Detail != "" {
			fmt.Fprintf(p.err, "  Cause: %s\n", e.Detail)
		}
		if e.Suggestion != "" {
			color.New(color.FgCyan).Fprintf(p.err, "  Suggestion: %s\n", e.Suggestion)
		}
	} else {
		fmt.Fprintf(p.err, "[ERROR] %s\n", e.Summary)
		if e.Detail != "" {
			fmt.Fprintf(p.err, "  Cause: %s\n", e.Detail)
		}
		if e.Suggestion != "" {
			fmt.Fprintf(p.err, "  Suggestion: %s\n", e.Suggestion)
		}
	}
}

// Report prints err unless it was already shown to the user
func (p *Printer) Report(err error) {
	if err == nil {
		return
	}
	if ce := (*CLIError)(nil); errors.As(err, &ce) {
		if !ce.Reported {
			p.FormatError(ce)
		}
		return
	}
	p.Error("%s", err.Error())
}
