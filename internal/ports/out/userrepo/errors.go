package userrepo

import "errors"

var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrEmailTaken indicates another account already uses the email address.
	ErrEmailTaken = errors.New("email already in use")
)
