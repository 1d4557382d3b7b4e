package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ZanzyTHEbar/sigtax/sigtax/metric"
	"github.com/ZanzyTHEbar/sigtax/sigtax/refdb"
	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs"
	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs/sigfile"
	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs/sigtest"
	"github.com/ZanzyTHEbar/sigtax/sigtax/taxonomy"
)

func ptr[T any](v T) *T { return &v }

type workspace struct {
	dir     string
	config  string
	refs    string
	queries string
}

func seq(lo, hi int, extra ...int) []int {
	var out []int
	for c := lo; c <= hi; c++ {
		out = append(out, c)
	}
	return append(out, extra...)
}

func asCodes[T sigs.Code](list ...[]int) [][]T {
	out := make([][]T, len(list))
	for i, s := range list {
		out[i] = make([]T, len(s))
		for j, v := range s {
			out[i][j] = T(v)
		}
	}
	return out
}

// newWorkspace writes a reference database, u4 reference signatures, u2 query signatures
// and a config file pointing at them.
func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	w := &workspace{
		dir:     dir,
		config:  filepath.Join(dir, "config.yaml"),
		refs:    filepath.Join(dir, "refs.sgtx"),
		queries: filepath.Join(dir, "queries.sgtx"),
	}
	dbPath := filepath.Join(dir, "refs.db")

	db, err := refdb.Open(ctx, "sqlite", dbPath)
	require.NoError(t, err)
	store, err := refdb.New(ctx, db, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.AddTaxa(ctx, []taxonomy.Record{
		{ID: 1, Key: "root", Name: "Root"},
		{ID: 2, Key: "root/a", Name: "A", Rank: "genus", ParentID: ptr[int64](1), DistanceThreshold: ptr(0.5), Report: true},
		{ID: 3, Key: "root/a/a1", Name: "A1", Rank: "species", ParentID: ptr[int64](2), DistanceThreshold: ptr(0.2), Report: true},
		{ID: 4, Key: "root/a/a2", Name: "A2", Rank: "species", ParentID: ptr[int64](2), DistanceThreshold: ptr(0.2), Report: true},
	}))
	require.NoError(t, store.AddGenomes(ctx, []refdb.GenomeRecord{
		{ID: 1, Key: "g1", Description: "genome one", TaxonID: ptr[int64](3)},
		{ID: 2, Key: "g2", Description: "genome two", TaxonID: ptr[int64](4)},
	}))
	require.NoError(t, store.Close())

	spec := sigtest.Spec(5, "ATG")
	refs := sigs.NewSignatureArray(spec, asCodes[uint32](seq(1, 10), seq(1, 9, 11)))
	require.NoError(t, sigfile.Write[uint32](w.refs, refs, []string{"g1", "g2"}))
	queries := sigs.NewSignatureArray(spec, asCodes[uint16](seq(1, 10), seq(1, 5), seq(200, 220)))
	require.NoError(t, sigfile.Write[uint16](w.queries, queries, []string{"q0", "q1", "q2"}))

	cfg := fmt.Sprintf(`database:
  dsn: %s
  type: sqlite
signatures:
  path: %s
metric:
  chunkSize: 1
  workers: 2
log:
  level: error
`, dbPath, w.refs)
	require.NoError(t, os.WriteFile(w.config, []byte(cfg), 0o644))
	return w
}

func (w *workspace) run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), append([]string{"--config", w.config}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

type queryDoc struct {
	ID    string `json:"id"`
	Items []struct {
		Query          string `json:"query"`
		Success        bool   `json:"success"`
		PredictedTaxon *struct {
			Name string `json:"name"`
		} `json:"predicted_taxon"`
		Warnings []string `json:"warnings"`
	} `json:"items"`
}

func TestQueryCommand(t *testing.T) {
	w := newWorkspace(t)

	stdout, stderr, code := w.run(t, "query", "--strict", w.queries)
	require.Equal(t, 0, code, stderr)

	var doc queryDoc
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	require.Len(t, doc.Items, 3)

	assert.Equal(t, "q0", doc.Items[0].Query)
	require.NotNil(t, doc.Items[0].PredictedTaxon)
	assert.Equal(t, "A", doc.Items[0].PredictedTaxon.Name)
	assert.Len(t, doc.Items[0].Warnings, 1)

	require.NotNil(t, doc.Items[1].PredictedTaxon)
	assert.Equal(t, "A", doc.Items[1].PredictedTaxon.Name)
	assert.Nil(t, doc.Items[2].PredictedTaxon)
}

func TestQueryCommandNonStrictToFile(t *testing.T) {
	w := newWorkspace(t)
	out := filepath.Join(w.dir, "out.json")

	_, stderr, code := w.run(t, "query", "-o", out, w.queries)
	require.Equal(t, 0, code, stderr)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc queryDoc
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.NotNil(t, doc.Items[0].PredictedTaxon)
	assert.Equal(t, "A1", doc.Items[0].PredictedTaxon.Name)
	assert.Empty(t, doc.Items[0].Warnings)
}

func TestQueryCommandErrors(t *testing.T) {
	w := newWorkspace(t)

	_, stderr, code := w.run(t, "query")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "accepts 1 arg")

	_, stderr, code = w.run(t, "query", filepath.Join(w.dir, "missing.sgtx"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "missing.sgtx")

	noIDs := filepath.Join(w.dir, "noids.sgtx")
	require.NoError(t, sigfile.Write[uint32](noIDs,
		sigs.NewSignatureArray(sigtest.Spec(5, "ATG"), asCodes[uint32](seq(1, 3))), nil))
	_, stderr, code = w.run(t, "query", "--sigs", noIDs, w.queries)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, errNoReferenceIDs.Error())
}

func TestDistCommand(t *testing.T) {
	w := newWorkspace(t)

	stdout, stderr, code := w.run(t, "dist", "--precision", "3", w.queries, w.refs)
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "query\tg1\tg2", lines[0])
	assert.Equal(t, "q0\t0.000\t0.182", lines[1])
	assert.Equal(t, "q1\t0.500\t0.545", lines[2])
	assert.Equal(t, "q2\t1.000\t1.000", lines[3])
}

func TestTaxonomyCommand(t *testing.T) {
	w := newWorkspace(t)

	stdout, stderr, code := w.run(t, "taxonomy")
	require.Equal(t, 0, code, stderr)
	assert.Regexp(t, `taxa\s+4`, stdout)
	assert.Regexp(t, `genomes\s+2`, stdout)
	assert.Regexp(t, `rank species\s+2`, stdout)

	stdout, stderr, code = w.run(t, "taxonomy", "--prefix", "root/a/")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Root;A;A1")
	assert.Contains(t, stdout, "Root;A;A2")
	assert.NotContains(t, stdout, "root/a ")
}

func TestInfoCommand(t *testing.T) {
	w := newWorkspace(t)

	stdout, stderr, code := w.run(t, "info", w.refs, w.queries)
	require.Equal(t, 0, code, stderr)
	assert.Regexp(t, `refs\.sgtx\s+ATG/5\s+u4\s+2\s+true`, stdout)
	assert.Regexp(t, `queries\.sgtx\s+ATG/5\s+u2\s+3\s+true`, stdout)
}

func TestUnknownLogLevel(t *testing.T) {
	w := newWorkspace(t)

	_, stderr, code := w.run(t, "--log-level", "chatty", "info", w.refs)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "unknown log level, using info")
	assert.Contains(t, stderr, `"log_level":"chatty"`)
}

func TestSpecMismatch(t *testing.T) {
	w := newWorkspace(t)

	// a larger k is rejected before its codes are converted to the references' width
	other := filepath.Join(w.dir, "k7.sgtx")
	require.NoError(t, sigfile.Write[uint16](other,
		sigs.NewSignatureArray(sigtest.Spec(7, "ATG"), asCodes[uint16](seq(1000, 1010))), []string{"q"}))

	_, stderr, code := w.run(t, "dist", other, w.refs)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, metric.ErrSpecMismatch.Error())

	_, stderr, code = w.run(t, "query", other)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, metric.ErrSpecMismatch.Error())
}

func TestInvalidSignatureFile(t *testing.T) {
	w := newWorkspace(t)

	raw, err := os.ReadFile(w.queries)
	require.NoError(t, err)
	// the last two u2 codes of q2 are 219, 220; swap them
	n := len(raw)
	raw[n-4], raw[n-2] = raw[n-2], raw[n-4]
	bad := filepath.Join(w.dir, "unsorted.sgtx")
	require.NoError(t, os.WriteFile(bad, raw, 0o644))

	_, stderr, code := w.run(t, "dist", bad, w.refs)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, sigs.ErrUnsorted.Error())
}

func TestElemOf(t *testing.T) {
	for _, w := range []sigs.Width{sigs.U1, sigs.U2, sigs.U4, sigs.U8, sigs.I2, sigs.I4, sigs.I8} {
		et, err := elemOf(w)
		require.NoError(t, err, w.String())
		assert.NotNil(t, et)
	}
	_, err := elemOf(sigs.Width{Bytes: 3})
	assert.ErrorIs(t, err, sigs.ErrUnknownWidth)

	w := newWorkspace(t)
	queries, ids, err := loadAs[uint64](w.queries, sigtest.Spec(5, "ATG"))
	require.NoError(t, err)
	assert.Equal(t, []string{"q0", "q1", "q2"}, ids)
	assert.Equal(t, asCodes[uint64](seq(1, 5))[0], queries.At(1))
}
