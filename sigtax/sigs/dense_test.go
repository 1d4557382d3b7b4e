package sigs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/sigtax/sigtax/kmers"
)

func TestDenseRoundTrip(t *testing.T) {
	spec := kmers.KmerSpec{K: 6, Prefix: "ATG"}
	sig := []uint16{0, 7, 300, 4095}

	bs, err := ToBitSet(spec, sig)
	require.NoError(t, err)
	assert.Equal(t, uint(4096), bs.Len())
	assert.Equal(t, uint(len(sig)), bs.Count())
	assert.Equal(t, sig, FromBitSet[uint16](bs))

	empty, err := ToBitSet(spec, []uint16{})
	require.NoError(t, err)
	assert.Empty(t, FromBitSet[uint16](empty))

	_, err = ToBitSet(kmers.KmerSpec{K: 20, Prefix: "A"}, sig)
	assert.ErrorIs(t, err, ErrUniverseTooBig)
}

func TestToBitmap(t *testing.T) {
	sig := []uint64{3, 1 << 40, 1<<62 + 5}
	bm := ToBitmap(sig)
	assert.Equal(t, uint64(3), bm.GetCardinality())
	assert.True(t, bm.Contains(1<<40))
	assert.Equal(t, sig, bm.ToArray())
}
