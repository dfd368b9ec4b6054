package repl

import "errors"

// Sentinel errors.
//
//nolint:gochecknoglobals
var (
	ErrOutOfBounds  = errors.New("index out of range")
	ErrEditDeclined = errors.New("decline edit")
)
