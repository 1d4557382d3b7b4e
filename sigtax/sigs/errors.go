package sigs

import "errors"

var (
	ErrUnsorted       = errors.New("signature is not strictly ascending")
	ErrNegative       = errors.New("signature contains a negative code")
	ErrOutOfRange     = errors.New("signature code exceeds k-mer universe")
	ErrOverflow       = errors.New("signature code does not fit in target width")
	ErrInvalidBounds  = errors.New("invalid signature bounds")
	ErrIndexRange     = errors.New("signature index out of range")
	ErrUnknownWidth   = errors.New("unknown signature width")
	ErrUniverseTooBig = errors.New("k-mer universe too large for dense encoding")
)
