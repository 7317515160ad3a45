package processor

import "errors"

// Error kinds surfaced by the pipeline. Per-timestamp kinds
// (ErrMalformedRow, ErrInsufficientLevels, ErrInvalidPrice) are recovered
// locally by excluding the timestamp and counting the skip;
// ErrInsufficientData aborts the run.
var (
	ErrMalformedRow       = errors.New("malformed row")
	ErrInsufficientLevels = errors.New("insufficient levels")
	ErrInvalidPrice       = errors.New("invalid price")
	ErrInsufficientData   = errors.New("insufficient data")
)
