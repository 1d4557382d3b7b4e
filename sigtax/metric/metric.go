// Package metric computes Jaccard similarity and distance between k-mer signatures.
//
// Signatures may be stored in different integer widths; codes are always compared by value
// after widening to uint64, so narrow and wide encodings of one set give identical results.
//
// Two empty signatures are considered identical: their score is 1 and their distance 0.
package metric

import (
	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/bits-and-blooms/bitset"
	"github.com/emirpasic/gods/sets/hashset"

	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs"
)

// Score is the floating type of every score, distance and distance buffer.
type Score = float64

// score converts intersection and union sizes into a Jaccard index.
func score(inter, union uint64) Score {
	if union == 0 {
		return 1
	}
	return Score(inter) / Score(union)
}

// counts merge-scans two sorted signatures.
func counts[A, B sigs.Code](a []A, b []B) (inter, union uint64) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		x, y := uint64(a[i]), uint64(b[j])
		switch {
		case x < y:
			i++
		case x > y:
			j++
		default:
			inter++
			i++
			j++
		}
	}
	union = uint64(len(a)) + uint64(len(b)) - inter
	return inter, union
}

// Jaccard returns |a ∩ b| / |a ∪ b| for two sorted signatures.
func Jaccard[A, B sigs.Code](a []A, b []B) Score {
	return score(counts(a, b))
}

// JaccardDist returns 1 - Jaccard(a, b).
func JaccardDist[A, B sigs.Code](a []A, b []B) Score {
	return 1 - score(counts(a, b))
}

// JaccardBits computes the Jaccard index of two dense bit-vector encodings.
func JaccardBits(a, b *bitset.BitSet) Score {
	return score(uint64(a.IntersectionCardinality(b)), uint64(a.UnionCardinality(b)))
}

// JaccardBitmap computes the Jaccard index of two compressed bitmap encodings.
func JaccardBitmap(a, b *roaring64.Bitmap) Score {
	return score(a.AndCardinality(b), a.OrCardinality(b))
}

// JaccardGeneric is a hash-set implementation used to check the merge-scan. Inputs need
// not be sorted and duplicates are ignored.
func JaccardGeneric[A, B sigs.Code](a []A, b []B) Score {
	setA := hashset.New()
	for _, v := range a {
		setA.Add(uint64(v))
	}
	setB := hashset.New()
	var inter uint64
	for _, v := range b {
		x := uint64(v)
		if setB.Contains(x) {
			continue
		}
		setB.Add(x)
		if setA.Contains(x) {
			inter++
		}
	}
	return score(inter, uint64(setA.Size()+setB.Size())-inter)
}
