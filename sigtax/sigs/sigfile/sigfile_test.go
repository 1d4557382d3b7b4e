package sigfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs"
	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs/sigtest"
)

func testIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("GCF_%06d.1", i)
	}
	return ids
}

func checkRoundTrip[T sigs.Code](t *testing.T) {
	spec := sigtest.Spec(11, "ATGAC")
	src := sigtest.Random[T](7, spec, 25)
	ids := testIDs(src.Len())
	path := filepath.Join(t.TempDir(), "refs.sgtx")

	require.NoError(t, Write[T](path, src, ids))

	f, err := Open[T](path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, spec, f.KmerSpec())
	assert.Equal(t, ids, f.IDs())
	assert.Equal(t, sigs.WidthOf[T](), f.Header.Width)
	assert.Equal(t, src.Len(), f.Header.Count)
	assert.True(t, sigs.Equal[T, T](src, f))
	assert.Empty(t, f.At(1))

	sub := f.Slice(3, 6)
	for i := range sub.Len() {
		assert.Equal(t, src.At(3+i), sub.At(i))
	}
}

func TestRoundTrip(t *testing.T) {
	t.Run("u2", checkRoundTrip[uint16])
	t.Run("u4", checkRoundTrip[uint32])
	t.Run("i4", checkRoundTrip[int32])
	t.Run("u8", checkRoundTrip[uint64])
}

func TestWithoutIDs(t *testing.T) {
	src := sigs.NewSignatureArray(sigtest.Spec(4, "AT"), [][]uint16{{1, 2, 3}, {4}})
	path := filepath.Join(t.TempDir(), "noids.sgtx")
	require.NoError(t, Write[uint16](path, src, nil))

	f, err := Open[uint16](path)
	require.NoError(t, err)
	defer f.Close()
	assert.Nil(t, f.IDs())
	assert.Equal(t, []uint16{4}, f.At(1))
}

func TestEmptyCollection(t *testing.T) {
	src := sigs.NewSignatureArray[uint32](sigtest.Spec(8, "A"), nil)
	path := filepath.Join(t.TempDir(), "empty.sgtx")
	require.NoError(t, Write[uint32](path, src, []string{}))

	f, err := Open[uint32](path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, 0, f.Len())
}

func TestReadHeader(t *testing.T) {
	spec := sigtest.Spec(9, "ATG")
	src := sigtest.Random[uint32](3, spec, 4)
	path := filepath.Join(t.TempDir(), "h.sgtx")
	require.NoError(t, Write[uint32](path, src, testIDs(4)))

	h, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(Version), h.Version)
	assert.Equal(t, sigs.U4, h.Width)
	assert.Equal(t, spec, h.Spec)
	assert.Equal(t, 4, h.Count)
	assert.Equal(t, testIDs(4), h.IDs)
}

func TestOpenWidthMismatch(t *testing.T) {
	src := sigtest.Random[uint32](1, sigtest.Spec(8, "GC"), 3)
	path := filepath.Join(t.TempDir(), "w.sgtx")
	require.NoError(t, Write[uint32](path, src, nil))

	_, err := Open[uint16](path)
	assert.ErrorIs(t, err, ErrWidthMismatch)
	_, err = Open[int32](path)
	assert.ErrorIs(t, err, ErrWidthMismatch)
}

func TestWriteInvalidIDs(t *testing.T) {
	src := sigs.NewSignatureArray(sigtest.Spec(4, "AT"), [][]uint8{{1}, {2}})
	dir := t.TempDir()

	tests := map[string][]string{
		"count":   {"a"},
		"newline": {"a", "b\nc"},
		"empty":   {"a", ""},
	}
	for name, ids := range tests {
		t.Run(name, func(t *testing.T) {
			err := Write[uint8](filepath.Join(dir, name), src, ids)
			assert.ErrorIs(t, err, ErrInvalidID)
		})
	}
}

func TestOpenCorrupt(t *testing.T) {
	src := sigs.NewSignatureArray(sigtest.Spec(6, "AC"), [][]uint16{{1, 2}, {3, 4, 5}})
	dir := t.TempDir()
	good := filepath.Join(dir, "good.sgtx")
	require.NoError(t, Write[uint16](good, src, []string{"x", "y"}))
	raw, err := os.ReadFile(good)
	require.NoError(t, err)

	mutate := func(name string, fn func([]byte) []byte) string {
		b := fn(append([]byte(nil), raw...))
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, b, 0o644))
		return p
	}

	magic := mutate("magic", func(b []byte) []byte { b[0] = 'X'; return b })
	_, err = Open[uint16](magic)
	assert.ErrorIs(t, err, ErrBadMagic)
	_, err = ReadHeader(magic)
	assert.ErrorIs(t, err, ErrBadMagic)

	version := mutate("version", func(b []byte) []byte {
		binary.LittleEndian.PutUint32(b[4:], 9)
		return b
	})
	_, err = Open[uint16](version)
	assert.ErrorIs(t, err, ErrVersion)

	truncated := mutate("truncated", func(b []byte) []byte { return b[:len(b)-2] })
	_, err = Open[uint16](truncated)
	assert.ErrorIs(t, err, ErrCorrupt)

	short := mutate("short", func(b []byte) []byte { return b[:10] })
	_, err = Open[uint16](short)
	assert.ErrorIs(t, err, ErrCorrupt)
	_, err = ReadHeader(short)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = Open[uint16](filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// writeUnchecked stores src without validating it.
func writeUnchecked[T sigs.Code](t *testing.T, path string, src sigs.Signatures[T]) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := bufio.NewWriter(f)
	require.NoError(t, encode(w, src, nil))
	require.NoError(t, w.Flush())
}

func TestInvalidSignatures(t *testing.T) {
	spec := sigtest.Spec(4, "AT")
	dir := t.TempDir()

	tests := []struct {
		name string
		sigs [][]uint16
		want error
	}{
		{"unsorted", [][]uint16{{1, 2}, {3, 2}}, sigs.ErrUnsorted},
		{"duplicate", [][]uint16{{5, 5}}, sigs.ErrUnsorted},
		{"out of range", [][]uint16{{1, 256}}, sigs.ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := sigs.NewSignatureArray(spec, tt.sigs)

			path := filepath.Join(dir, tt.name+".sgtx")
			err := Write[uint16](path, src, nil)
			assert.ErrorIs(t, err, tt.want)
			assert.NoFileExists(t, path)

			writeUnchecked[uint16](t, path, src)
			_, err = Open[uint16](path)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}

	negative := sigs.NewSignatureArray(spec, [][]int16{{-1, 3}})
	err := Write[int16](filepath.Join(dir, "negative.sgtx"), negative, nil)
	assert.ErrorIs(t, err, sigs.ErrNegative)
}

func TestCloseTwice(t *testing.T) {
	src := sigs.NewSignatureArray(sigtest.Spec(4, "AT"), [][]uint8{{1}})
	path := filepath.Join(t.TempDir(), "c.sgtx")
	require.NoError(t, Write[uint8](path, src, nil))

	f, err := Open[uint8](path)
	require.NoError(t, err)
	assert.NoError(t, f.Close())
	assert.NoError(t, f.Close())
}

func TestPad8(t *testing.T) {
	for n, want := range map[int]int{0: 0, 1: 7, 7: 1, 8: 0, 13: 3} {
		assert.Equal(t, want, pad8(n), "pad8(%d)", n)
	}
}
