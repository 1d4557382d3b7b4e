package metric

import "errors"

// Configuration errors. They are returned before any distance is computed.
var (
	ErrShape        = errors.New("output buffer has wrong shape")
	ErrEmpty        = errors.New("query and reference collections must be non-empty")
	ErrChunkSize    = errors.New("chunk size must not be negative")
	ErrSpecMismatch = errors.New("query and reference k-mer specs differ")
)
