// Package sigtest builds deterministic random signature collections for tests.
package sigtest

import (
	"math/rand/v2"
	"slices"

	"github.com/ZanzyTHEbar/sigtax/sigtax/kmers"
	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs"
)

// poolSize is the number of distinct codes random signatures draw from, small enough that
// pairs overlap and Jaccard scores are spread over (0, 1).
const poolSize = 2000

// Random returns n signatures over spec stored as T. Signature 1 is empty when n > 2 so the
// empty-set convention is always exercised. The same seed yields the same collection.
func Random[T sigs.Code](seed uint64, spec kmers.KmerSpec, n int) *sigs.SignatureArray[T] {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	universe := spec.MaxCode()
	if m := sigs.WidthOf[T]().Max(); m < universe {
		universe = m
	}

	pool := make(map[uint64]struct{}, poolSize)
	for len(pool) < poolSize && uint64(len(pool)) < universe {
		pool[rng.Uint64N(universe)] = struct{}{}
	}
	codes := make([]uint64, 0, len(pool))
	for c := range pool {
		codes = append(codes, c)
	}
	slices.Sort(codes)

	list := make([][]T, n)
	for i := range list {
		if i == 1 && n > 2 {
			list[i] = []T{}
			continue
		}
		p := 0.05 + 0.5*rng.Float64()
		sig := make([]T, 0, int(p*float64(len(codes)))+1)
		for _, c := range codes {
			if rng.Float64() < p {
				sig = append(sig, T(c))
			}
		}
		list[i] = sig
	}
	return sigs.NewSignatureArray(spec, list)
}

// Spec returns a k-mer spec for tests, panicking on invalid input.
func Spec(k uint8, prefix string) kmers.KmerSpec {
	spec, err := kmers.NewKmerSpec(k, prefix)
	if err != nil {
		panic(err)
	}
	return spec
}
