package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs"
	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs/sigtest"
)

func TestJaccardDistArray(t *testing.T) {
	set := sigtest.Random[uint32](3, sigtest.Spec(9, "ATGAC"), 30)

	for i := range set.Len() {
		dists, err := JaccardDistArray(set.At(i), sigs.Signatures[uint32](set), nil)
		require.NoError(t, err)
		require.Len(t, dists, set.Len())
		for j := range set.Len() {
			assert.Equal(t, JaccardDist(set.At(i), set.At(j)), dists[j])
		}
	}
}

func TestJaccardDistArrayAltTypes(t *testing.T) {
	set := sigtest.Random[uint32](4, sigtest.Spec(9, "ATGAC"), 30)
	refs := set.Slice(5, 30)
	q := refs.At(0)

	want, err := JaccardDistArray(q, refs, nil)
	require.NoError(t, err)

	list := make([][]uint32, refs.Len())
	for i := range list {
		list[i] = refs.At(i)
	}
	got, err := JaccardDistArray(q, sigs.Signatures[uint32](sigs.NewSignatureList(set.KmerSpec(), list)), nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	idx := make([]int, refs.Len())
	for i := range idx {
		idx[i] = i + 5
	}
	sub, err := sigs.NewSubset[uint32](set, idx)
	require.NoError(t, err)
	got, err = JaccardDistArray(q, sigs.Signatures[uint32](sub), nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestJaccardDistArrayPreallocated(t *testing.T) {
	set := sigtest.Random[uint16](5, sigtest.Spec(7, "ATG"), 20)
	var refs sigs.Signatures[uint16] = set

	out := make([]Score, set.Len())
	got, err := JaccardDistArray(set.At(0), refs, out)
	require.NoError(t, err)
	assert.Same(t, &out[0], &got[0], "result is written into out")

	want, err := JaccardDistArray(set.At(0), refs, nil)
	require.NoError(t, err)
	assert.Equal(t, want, out)

	// Wrong size fails before writing anything
	out2 := make([]Score, set.Len()+1)
	_, err = JaccardDistArray(set.At(0), refs, out2)
	assert.ErrorIs(t, err, ErrShape)
	assert.Equal(t, make([]Score, set.Len()+1), out2)
}
