package sigs

import (
	"fmt"

	"github.com/ZanzyTHEbar/sigtax/sigtax/kmers"
)

// Validate checks that sig is strictly ascending and every code lies in spec's universe.
func Validate[T Code](spec kmers.KmerSpec, sig []T) error {
	maxCode := spec.MaxCode()
	var zero T
	for i, v := range sig {
		if v < zero {
			return fmt.Errorf("%w: %d at position %d", ErrNegative, v, i)
		}
		if uint64(v) > maxCode {
			return fmt.Errorf("%w: %d > %d at position %d", ErrOutOfRange, v, maxCode, i)
		}
		if i > 0 && sig[i-1] >= v {
			return fmt.Errorf("%w: position %d", ErrUnsorted, i)
		}
	}
	return nil
}

// ValidateAll validates every signature of a collection.
func ValidateAll[T Code](s Signatures[T]) error {
	spec := s.KmerSpec()
	for i := range s.Len() {
		if err := Validate(spec, s.At(i)); err != nil {
			return fmt.Errorf("signature %d: %w", i, err)
		}
	}
	return nil
}
