package scoring

import "errors"

var (
	// ErrInvalidInput marks extraction data the scorer refuses to score.
	ErrInvalidInput = errors.New("invalid scoring input")
	// ErrInvalidWeights marks a weight table that does not cover every dimension or sum to 1.
	ErrInvalidWeights = errors.New("invalid weight table")
)
