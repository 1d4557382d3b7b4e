// Package kmers describes the parameters used to extract k-mer signatures from sequences.
package kmers

import (
	"errors"
	"fmt"
	"strings"
)

// MaxK is the largest k whose codes fit in 64 bits (two bits per nucleotide).
const MaxK = 32

// Nucleotides is the alphabet k-mers are encoded over, in code order.
const Nucleotides = "ACGT"

var (
	ErrInvalidK      = errors.New("k must be between 1 and 32")
	ErrInvalidPrefix = errors.New("prefix must be a non-empty nucleotide string")
)

// KmerSpec defines the length of the k-mers and the prefix sequence that precedes each
// extracted k-mer. Codes index the 4^K possible k-mers, so they range over [0, 4^K).
type KmerSpec struct {
	K      uint8
	Prefix string
}

// NewKmerSpec validates and returns a spec. The prefix is upper-cased.
func NewKmerSpec(k uint8, prefix string) (KmerSpec, error) {
	spec := KmerSpec{K: k, Prefix: strings.ToUpper(prefix)}
	if err := spec.Validate(); err != nil {
		return KmerSpec{}, err
	}
	return spec, nil
}

// Validate checks k and the prefix alphabet.
func (s KmerSpec) Validate() error {
	if s.K < 1 || s.K > MaxK {
		return fmt.Errorf("%w: got %d", ErrInvalidK, s.K)
	}
	if s.Prefix == "" {
		return ErrInvalidPrefix
	}
	for _, c := range s.Prefix {
		if !strings.ContainsRune(Nucleotides, c) {
			return fmt.Errorf("%w: %q", ErrInvalidPrefix, s.Prefix)
		}
	}
	return nil
}

// TotalLen is the length of prefix plus k-mer.
func (s KmerSpec) TotalLen() int { return len(s.Prefix) + int(s.K) }

// Bits is the number of bits needed to store one code.
func (s KmerSpec) Bits() int { return 2 * int(s.K) }

// NKmers is the universe size, 4^K. It overflows to 0 for K == 32; use MaxCode there.
func (s KmerSpec) NKmers() uint64 {
	if s.K >= MaxK {
		return 0
	}
	return uint64(1) << s.Bits()
}

// MaxCode is the largest valid code, 4^K - 1.
func (s KmerSpec) MaxCode() uint64 {
	if s.K >= MaxK {
		return ^uint64(0)
	}
	return s.NKmers() - 1
}

// CodeBytes is the byte width of the narrowest unsigned integer holding every code.
func (s KmerSpec) CodeBytes() int {
	switch b := s.Bits(); {
	case b <= 8:
		return 1
	case b <= 16:
		return 2
	case b <= 32:
		return 4
	default:
		return 8
	}
}

// String renders s as PREFIX/k.
func (s KmerSpec) String() string {
	return fmt.Sprintf("%s/%d", s.Prefix, s.K)
}

// Encode returns the code of a k-mer string, or false if it contains a non-ACGT character.
func (s KmerSpec) Encode(kmer string) (uint64, bool) {
	if len(kmer) != int(s.K) {
		return 0, false
	}
	var code uint64
	for i := 0; i < len(kmer); i++ {
		v := strings.IndexByte(Nucleotides, kmer[i]&^0x20)
		if v < 0 {
			return 0, false
		}
		code = code<<2 | uint64(v)
	}
	return code, true
}

// Decode is the inverse of Encode.
func (s KmerSpec) Decode(code uint64) string {
	buf := make([]byte, s.K)
	for i := int(s.K) - 1; i >= 0; i-- {
		buf[i] = Nucleotides[code&3]
		code >>= 2
	}
	return string(buf)
}
