package riderepo

import "errors"

// ErrAlreadyExists indicates a ride with the same ID was already stored.
var ErrAlreadyExists = errors.New("ride already exists")
