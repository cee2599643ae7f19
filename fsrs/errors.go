package fsrs

import "errors"

// Sentinel errors for the fsrs package.
// Use errors.Is to check: errors.Is(err, fsrs.ErrInvalidRating)
var (
	ErrInvalidRating = errors.New("fsrs: invalid rating")
	ErrInvalidConfig = errors.New("fsrs: invalid config")
)
