// Package sigs stores k-mer signatures: sorted sets of k-mer codes, one per genome.
//
// Collections of signatures share the Signatures capability regardless of where the data
// lives (a ragged in-memory array, a list of slices, a memory-mapped file or a view over
// another collection). The metric engine only depends on that capability.
package sigs

import (
	"fmt"

	"github.com/ZanzyTHEbar/sigtax/sigtax/kmers"
)

// Signatures is an indexable, read-only collection of signatures with element type T.
// Slices returned by At must not be modified.
type Signatures[T Code] interface {
	Len() int
	At(i int) []T
	KmerSpec() kmers.KmerSpec
	// Slice returns the contiguous sub-collection [start, end).
	Slice(start, end int) Signatures[T]
}

// SignatureArray stores signatures contiguously as one values buffer plus bounds, where
// signature i is values[bounds[i]:bounds[i+1]].
type SignatureArray[T Code] struct {
	values []T
	bounds []Bound
	spec   kmers.KmerSpec
}

// NewSignatureArray copies a list of signatures into ragged storage.
func NewSignatureArray[T Code](spec kmers.KmerSpec, list [][]T) *SignatureArray[T] {
	total := 0
	for _, s := range list {
		total += len(s)
	}
	values := make([]T, 0, total)
	bounds := make([]Bound, 1, len(list)+1)
	for _, s := range list {
		values = append(values, s...)
		bounds = append(bounds, Bound(len(values)))
	}
	return &SignatureArray[T]{values: values, bounds: bounds, spec: spec}
}

// FromArrays wraps existing buffers without copying after checking the bounds invariants:
// bounds[0] == 0, bounds non-decreasing and bounds[N] == len(values).
func FromArrays[T Code](spec kmers.KmerSpec, values []T, bounds []Bound) (*SignatureArray[T], error) {
	if err := checkBounds(bounds, len(values)); err != nil {
		return nil, err
	}
	return &SignatureArray[T]{values: values, bounds: bounds, spec: spec}, nil
}

// Collect materializes any collection as a SignatureArray. Arrays are returned as is.
func Collect[T Code](src Signatures[T]) *SignatureArray[T] {
	if a, ok := src.(*SignatureArray[T]); ok {
		return a
	}
	n := src.Len()
	list := make([][]T, n)
	for i := range n {
		list[i] = src.At(i)
	}
	return NewSignatureArray(src.KmerSpec(), list)
}

func checkBounds(bounds []Bound, nvalues int) error {
	if len(bounds) == 0 {
		return fmt.Errorf("%w: bounds must have at least one element", ErrInvalidBounds)
	}
	if bounds[0] != 0 {
		return fmt.Errorf("%w: bounds[0] = %d", ErrInvalidBounds, bounds[0])
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i] < bounds[i-1] {
			return fmt.Errorf("%w: bounds decrease at %d", ErrInvalidBounds, i)
		}
	}
	if last := bounds[len(bounds)-1]; last != Bound(nvalues) {
		return fmt.Errorf("%w: last bound %d != %d values", ErrInvalidBounds, last, nvalues)
	}
	return nil
}

func (a *SignatureArray[T]) Len() int { return len(a.bounds) - 1 }

func (a *SignatureArray[T]) At(i int) []T {
	return a.values[a.bounds[i]:a.bounds[i+1]:a.bounds[i+1]]
}

func (a *SignatureArray[T]) KmerSpec() kmers.KmerSpec { return a.spec }

// SizeOf returns the number of codes in signature i without slicing.
func (a *SignatureArray[T]) SizeOf(i int) int { return int(a.bounds[i+1] - a.bounds[i]) }

// Values returns the flat values buffer.
func (a *SignatureArray[T]) Values() []T { return a.values }

// Bounds returns the bounds buffer of length Len()+1.
func (a *SignatureArray[T]) Bounds() []Bound { return a.bounds }

// Slice shares the values buffer; the bounds are rebased so the result starts at zero.
func (a *SignatureArray[T]) Slice(start, end int) Signatures[T] {
	checkSlice(start, end, a.Len())
	lo, hi := a.bounds[start], a.bounds[end]
	bounds := make([]Bound, end-start+1)
	for i := range bounds {
		bounds[i] = a.bounds[start+i] - lo
	}
	return &SignatureArray[T]{values: a.values[lo:hi:hi], bounds: bounds, spec: a.spec}
}

func checkSlice(start, end, n int) {
	if start < 0 || end > n || start > end {
		panic(fmt.Sprintf("sigs: slice [%d:%d] out of range for %d signatures", start, end, n))
	}
}

// SignatureList holds signatures as independent slices.
type SignatureList[T Code] struct {
	list [][]T
	spec kmers.KmerSpec
}

// NewSignatureList wraps list without copying.
func NewSignatureList[T Code](spec kmers.KmerSpec, list [][]T) *SignatureList[T] {
	return &SignatureList[T]{list: list, spec: spec}
}

func (l *SignatureList[T]) Len() int                  { return len(l.list) }
func (l *SignatureList[T]) At(i int) []T              { return l.list[i] }
func (l *SignatureList[T]) KmerSpec() kmers.KmerSpec { return l.spec }

func (l *SignatureList[T]) Slice(start, end int) Signatures[T] {
	checkSlice(start, end, l.Len())
	return &SignatureList[T]{list: l.list[start:end:end], spec: l.spec}
}

// Subset is an ordered view of selected signatures of a parent collection.
type Subset[T Code] struct {
	parent  Signatures[T]
	indices []int
}

// NewSubset returns the view of parent at indices, in the given order.
func NewSubset[T Code](parent Signatures[T], indices []int) (*Subset[T], error) {
	n := parent.Len()
	for _, i := range indices {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexRange, i, n)
		}
	}
	return &Subset[T]{parent: parent, indices: indices}, nil
}

func (s *Subset[T]) Len() int                  { return len(s.indices) }
func (s *Subset[T]) At(i int) []T              { return s.parent.At(s.indices[i]) }
func (s *Subset[T]) KmerSpec() kmers.KmerSpec { return s.parent.KmerSpec() }

// Indices returns the parent indices of the view.
func (s *Subset[T]) Indices() []int { return s.indices }

func (s *Subset[T]) Slice(start, end int) Signatures[T] {
	checkSlice(start, end, s.Len())
	return &Subset[T]{parent: s.parent, indices: s.indices[start:end:end]}
}

// Equal reports whether two collections hold the same logical sets under the same k-mer spec,
// regardless of their element widths.
func Equal[A, B Code](a Signatures[A], b Signatures[B]) bool {
	if a.KmerSpec() != b.KmerSpec() || a.Len() != b.Len() {
		return false
	}
	for i := range a.Len() {
		sa, sb := a.At(i), b.At(i)
		if len(sa) != len(sb) {
			return false
		}
		for j := range sa {
			if uint64(sa[j]) != uint64(sb[j]) {
				return false
			}
		}
	}
	return true
}
