package sigs

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/bits-and-blooms/bitset"

	"github.com/ZanzyTHEbar/sigtax/sigtax/kmers"
)

// MaxDenseK bounds the universe of dense encodings to 4^14 bits (32 MiB per signature).
const MaxDenseK = 14

// ToBitSet encodes sig as a dense bit vector with one bit per k-mer in spec's universe.
func ToBitSet[T Code](spec kmers.KmerSpec, sig []T) (*bitset.BitSet, error) {
	if spec.K > MaxDenseK {
		return nil, fmt.Errorf("%w: k=%d", ErrUniverseTooBig, spec.K)
	}
	bs := bitset.New(uint(spec.NKmers()))
	for _, v := range sig {
		bs.Set(uint(v))
	}
	return bs, nil
}

// FromBitSet decodes a dense bit vector into a sorted signature.
func FromBitSet[T Code](bs *bitset.BitSet) []T {
	out := make([]T, 0, bs.Count())
	for i, ok := bs.NextSet(0); ok; i, ok = bs.NextSet(i + 1) {
		out = append(out, T(i))
	}
	return out
}

// ToBitmap encodes sig as a compressed bitmap. Unlike ToBitSet it works for any k.
func ToBitmap[T Code](sig []T) *roaring64.Bitmap {
	bm := roaring64.New()
	for _, v := range sig {
		bm.Add(uint64(v))
	}
	return bm
}
