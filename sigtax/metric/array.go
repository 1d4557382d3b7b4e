package metric

import (
	"fmt"

	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs"
)

// JaccardDistArray computes the distance from query to every signature in refs.
// If out is non-nil it must have length refs.Len() and receives the result.
func JaccardDistArray[Q, R sigs.Code](query []Q, refs sigs.Signatures[R], out []Score) ([]Score, error) {
	n := refs.Len()
	if out == nil {
		out = make([]Score, n)
	} else if len(out) != n {
		return nil, fmt.Errorf("%w: got length %d, want %d", ErrShape, len(out), n)
	}
	for i := range out {
		out[i] = JaccardDist(query, refs.At(i))
	}
	return out, nil
}
