package tokenstore

import "errors"

// ErrEmptyToken is returned by Save when asked to persist an empty token.
var ErrEmptyToken = errors.New("empty session token")
