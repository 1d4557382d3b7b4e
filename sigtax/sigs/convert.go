package sigs

import "fmt"

// Convert copies src into a new array with element type To. A code that does not fit in To
// is an error; values are never truncated.
func Convert[To, From Code](src Signatures[From]) (*SignatureArray[To], error) {
	n := src.Len()
	total := 0
	for i := range n {
		total += len(src.At(i))
	}

	limit := WidthOf[To]().Max()
	var zero From
	values := make([]To, 0, total)
	bounds := make([]Bound, 1, n+1)
	for i := range n {
		for _, v := range src.At(i) {
			if v < zero {
				return nil, fmt.Errorf("signature %d: %w: %d", i, ErrNegative, v)
			}
			if uint64(v) > limit {
				return nil, fmt.Errorf("signature %d: %w: %d exceeds %s", i, ErrOverflow, v, WidthOf[To]())
			}
			values = append(values, To(v))
		}
		bounds = append(bounds, Bound(len(values)))
	}
	return &SignatureArray[To]{values: values, bounds: bounds, spec: src.KmerSpec()}, nil
}
