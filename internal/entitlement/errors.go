package entitlement

import "errors"

var (
	// ErrNotFound means the caller holds no grant for the tool.
	ErrNotFound = errors.New("entitlement not found")
	// ErrInvalidCaller means the caller key or tool is empty.
	ErrInvalidCaller = errors.New("caller key and tool are required")
)
