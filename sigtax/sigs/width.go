package sigs

import (
	"fmt"
	"unsafe"
)

// Code is the set of integer types a signature may be stored in. Codes are k-mer indices and
// are never negative, so signed types are accepted only for interoperability with existing
// collections.
type Code interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int16 | ~int32 | ~int64
}

// Bound is the offset type of ragged-array bounds, fixed so persisted collections agree.
type Bound = uint64

// Width describes how signature elements are stored.
type Width struct {
	Bytes  uint8
	Signed bool
}

var (
	U1 = Width{Bytes: 1}
	U2 = Width{Bytes: 2}
	U4 = Width{Bytes: 4}
	U8 = Width{Bytes: 8}
	I2 = Width{Bytes: 2, Signed: true}
	I4 = Width{Bytes: 4, Signed: true}
	I8 = Width{Bytes: 8, Signed: true}
)

// WidthOf reports the storage width of T.
func WidthOf[T Code]() Width {
	var z T
	return Width{
		Bytes:  uint8(unsafe.Sizeof(z)),
		Signed: z-1 < z,
	}
}

// UnsignedWidth returns the unsigned width with the given byte size.
func UnsignedWidth(bytes int) (Width, error) {
	w := Width{Bytes: uint8(bytes)}
	if !w.Valid() {
		return Width{}, fmt.Errorf("%w: %d bytes", ErrUnknownWidth, bytes)
	}
	return w, nil
}

// ParseWidth parses the short form produced by String ("u2", "i4", ...).
func ParseWidth(s string) (Width, error) {
	if len(s) != 2 || (s[0] != 'u' && s[0] != 'i') || s[1] < '1' || s[1] > '8' {
		return Width{}, fmt.Errorf("%w: %q", ErrUnknownWidth, s)
	}
	w := Width{Bytes: s[1] - '0', Signed: s[0] == 'i'}
	if !w.Valid() {
		return Width{}, fmt.Errorf("%w: %q", ErrUnknownWidth, s)
	}
	return w, nil
}

// Valid reports whether w is one of the widths a Code type can have.
func (w Width) Valid() bool {
	switch w.Bytes {
	case 1:
		return !w.Signed
	case 2, 4, 8:
		return true
	}
	return false
}

// Max is the largest non-negative value representable in w.
func (w Width) Max() uint64 {
	bits := uint(w.Bytes) * 8
	if w.Signed {
		bits--
	}
	if bits >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<bits - 1
}

func (w Width) String() string {
	if w.Signed {
		return fmt.Sprintf("i%d", w.Bytes)
	}
	return fmt.Sprintf("u%d", w.Bytes)
}

// Fits reports whether every code of a k-mer universe with maxCode fits in w.
func (w Width) Fits(maxCode uint64) bool { return maxCode <= w.Max() }
