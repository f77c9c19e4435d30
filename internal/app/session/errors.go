package session

import "errors"

var (
	// ErrNotAuthenticated is returned when an operation needs a live session and there is none.
	ErrNotAuthenticated = errors.New("not authenticated")
)
