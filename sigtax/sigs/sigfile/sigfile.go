// Package sigfile persists signature collections in a flat binary file that can be memory
// mapped and used in place.
//
// Format (little-endian):
//
//	[magic 'SGTX'] [u32 version] [u8 width] [u8 k] [u16 prefix len] [prefix]
//	[u64 n] [u64 ids len] [ids, newline separated] [pad to 8]
//	[u64 bounds x n+1] [values]
//
// The width byte holds the element size in bytes with the high bit set for signed types.
package sigfile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unsafe"

	"github.com/ZanzyTHEbar/sigtax/sigtax/kmers"
	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs"
)

const (
	Magic   = "SGTX"
	Version = 1

	signedBit = 0x80
)

var (
	ErrBadMagic      = errors.New("sigfile: not a signature file")
	ErrVersion       = errors.New("sigfile: unsupported version")
	ErrCorrupt       = errors.New("sigfile: corrupt file")
	ErrWidthMismatch = errors.New("sigfile: stored width differs from requested type")
	ErrInvalidID     = errors.New("sigfile: invalid id")
)

// Header describes a stored collection.
type Header struct {
	Version uint32
	Width   sigs.Width
	Spec    kmers.KmerSpec
	Count   int
	// IDs are the genome ids in storage order, or nil if none were written
	IDs []string

	boundsOff int
	valuesOff int
}

// Write stores src and its ids at path. ids may be nil; otherwise it must hold one id per
// signature and no id may contain a newline. Signatures that fail sigs.Validate are rejected
// before the file is created.
func Write[T sigs.Code](path string, src sigs.Signatures[T], ids []string) error {
	spec := src.KmerSpec()
	if err := spec.Validate(); err != nil {
		return err
	}
	n := src.Len()
	if ids != nil && len(ids) != n {
		return fmt.Errorf("%w: %d ids for %d signatures", ErrInvalidID, len(ids), n)
	}
	for i, id := range ids {
		if strings.ContainsAny(id, "\n") || id == "" {
			return fmt.Errorf("%w: ids[%d] = %q", ErrInvalidID, i, id)
		}
	}
	if len(spec.Prefix) > math.MaxUint16 {
		return fmt.Errorf("%w: prefix too long", kmers.ErrInvalidPrefix)
	}
	if err := sigs.ValidateAll(src); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := encode(w, src, ids); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encode[T sigs.Code](w *bufio.Writer, src sigs.Signatures[T], ids []string) error {
	spec := src.KmerSpec()
	n := src.Len()
	width := sigs.WidthOf[T]()
	blob := strings.Join(ids, "\n")

	var head bytes.Buffer
	head.WriteString(Magic)
	put := func(v any) { _ = binary.Write(&head, binary.LittleEndian, v) }
	put(uint32(Version))
	put(widthCode(width))
	put(spec.K)
	put(uint16(len(spec.Prefix)))
	head.WriteString(spec.Prefix)
	put(uint64(n))
	put(uint64(len(blob)))
	head.WriteString(blob)
	head.Write(make([]byte, pad8(head.Len())))
	if _, err := w.Write(head.Bytes()); err != nil {
		return err
	}

	bounds := make([]uint64, n+1)
	for i := range n {
		bounds[i+1] = bounds[i] + uint64(len(src.At(i)))
	}
	if err := binary.Write(w, binary.LittleEndian, bounds); err != nil {
		return err
	}
	for i := range n {
		if err := binary.Write(w, binary.LittleEndian, src.At(i)); err != nil {
			return err
		}
	}
	return nil
}

// ReadHeader reads the header of the file at path without loading the signatures.
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// fixed fields, then prefix and counts, then the id blob
	r := bufio.NewReader(f)
	var fixed [12]byte
	if _, err := readFull(r, fixed[:]); err != nil {
		return nil, err
	}
	if string(fixed[:4]) != Magic {
		return nil, ErrBadMagic
	}
	plen := int(binary.LittleEndian.Uint16(fixed[10:12]))
	rest := make([]byte, plen+16)
	if _, err := readFull(r, rest); err != nil {
		return nil, err
	}
	idsLen := binary.LittleEndian.Uint64(rest[plen+8:])
	if idsLen > math.MaxInt32 {
		return nil, fmt.Errorf("%w: id blob of %d bytes", ErrCorrupt, idsLen)
	}
	blob := make([]byte, idsLen)
	if _, err := readFull(r, blob); err != nil {
		return nil, err
	}

	data := make([]byte, 0, len(fixed)+len(rest)+len(blob))
	data = append(append(append(data, fixed[:]...), rest...), blob...)
	return parseHeader(data, -1)
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return n, nil
}

// parseHeader decodes the header at the start of data. When size is not negative it is the
// full file size and the section offsets are checked against it.
func parseHeader(data []byte, size int) (*Header, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("%w: short header", ErrCorrupt)
	}
	if string(data[:4]) != Magic {
		return nil, ErrBadMagic
	}
	h := &Header{Version: binary.LittleEndian.Uint32(data[4:8])}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	h.Width = decodeWidth(data[8])
	if !h.Width.Valid() {
		return nil, fmt.Errorf("%w: %s", sigs.ErrUnknownWidth, h.Width)
	}
	k := data[9]
	plen := int(binary.LittleEndian.Uint16(data[10:12]))
	off := 12
	if len(data) < off+plen+16 {
		return nil, fmt.Errorf("%w: short header", ErrCorrupt)
	}
	spec, err := kmers.NewKmerSpec(k, string(data[off:off+plen]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	h.Spec = spec
	off += plen

	n := binary.LittleEndian.Uint64(data[off:])
	idsLen := binary.LittleEndian.Uint64(data[off+8:])
	off += 16
	if n > math.MaxInt32 || idsLen > uint64(len(data)-off) {
		return nil, fmt.Errorf("%w: bad counts", ErrCorrupt)
	}
	h.Count = int(n)
	if idsLen > 0 {
		h.IDs = strings.Split(string(data[off:off+int(idsLen)]), "\n")
	}
	if h.IDs != nil && len(h.IDs) != h.Count {
		return nil, fmt.Errorf("%w: %d ids for %d signatures", ErrCorrupt, len(h.IDs), h.Count)
	}
	off += int(idsLen)
	off += pad8(off)

	h.boundsOff = off
	h.valuesOff = off + 8*(h.Count+1)
	if size >= 0 && size < h.valuesOff {
		return nil, fmt.Errorf("%w: truncated bounds", ErrCorrupt)
	}
	return h, nil
}

// File is an opened signature file. It holds a mapping of the file and must be closed;
// signatures returned by it are invalid after Close.
type File[T sigs.Code] struct {
	*sigs.SignatureArray[T]
	Header Header

	release func() error
}

// Open maps the file at path as signatures of type T. Every stored signature is validated.
func Open[T sigs.Code](path string) (*File[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := int(st.Size())
	data, release, err := mapFile(f, size)
	if err != nil {
		return nil, fmt.Errorf("sigfile: map %s: %w", path, err)
	}

	sf, err := fromBytes[T](data, release)
	if err != nil {
		_ = release()
		return nil, fmt.Errorf("sigfile: %s: %w", path, err)
	}
	return sf, nil
}

func fromBytes[T sigs.Code](data []byte, release func() error) (*File[T], error) {
	h, err := parseHeader(data, len(data))
	if err != nil {
		return nil, err
	}
	if want := sigs.WidthOf[T](); h.Width != want {
		return nil, fmt.Errorf("%w: file has %s, type is %s", ErrWidthMismatch, h.Width, want)
	}

	bounds := view[uint64](data[h.boundsOff:h.valuesOff], h.Count+1)
	body := data[h.valuesOff:]
	width := int(h.Width.Bytes)
	if len(body)%width != 0 {
		return nil, fmt.Errorf("%w: trailing bytes", ErrCorrupt)
	}
	values := view[T](body, len(body)/width)

	arr, err := sigs.FromArrays(h.Spec, values, bounds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := sigs.ValidateAll[T](arr); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return &File[T]{SignatureArray: arr, Header: *h, release: release}, nil
}

// IDs returns the stored genome ids, or nil.
func (f *File[T]) IDs() []string { return f.Header.IDs }

// Close releases the mapping. It is safe to call more than once.
func (f *File[T]) Close() error {
	if f.release == nil {
		return nil
	}
	err := f.release()
	f.release = nil
	return err
}

var littleEndian = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// view reinterprets b as n little-endian elements of type E, copying only on big-endian hosts.
func view[E sigs.Code](b []byte, n int) []E {
	if n == 0 {
		return nil
	}
	if littleEndian {
		return unsafe.Slice((*E)(unsafe.Pointer(unsafe.SliceData(b))), n)
	}
	size := len(b) / n
	out := make([]E, n)
	var buf [8]byte
	for i := range out {
		copy(buf[:], b[i*size:(i+1)*size])
		out[i] = E(binary.LittleEndian.Uint64(buf[:]))
		clear(buf[:])
	}
	return out
}

func widthCode(w sigs.Width) uint8 {
	if w.Signed {
		return w.Bytes | signedBit
	}
	return w.Bytes
}

func decodeWidth(c uint8) sigs.Width {
	return sigs.Width{Bytes: c &^ signedBit, Signed: c&signedBit != 0}
}

func pad8(n int) int { return (8 - n%8) % 8 }
