package repl

import "errors"

// Sentinel errors.
var (
	ErrOutOfBounds  = errors.New("history index out of range")
	ErrEditDeclined = errors.New("decline edit")
	ErrPreload      = errors.New("preload source")
)
