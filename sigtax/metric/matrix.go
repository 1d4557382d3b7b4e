package metric

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/mat"

	"github.com/ZanzyTHEbar/sigtax/sigtax/progress"
	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs"
)

// MatrixOptions configures JaccardDistMatrix. The zero value computes against all
// references in a single chunk using one worker per CPU.
type MatrixOptions struct {
	// RefIndices selects and orders the reference columns. Nil means all references.
	RefIndices []int
	// ChunkSize is the number of references per unit of work. Zero disables chunking.
	// The result does not depend on it.
	ChunkSize int
	// Out receives the distances if set. It must be queries.Len() x len(columns).
	Out *mat.Dense
	// Progress is notified with the matrix size up front, then with the number of cells
	// completed by each (query, chunk) task.
	Progress progress.Sink
	// Workers bounds concurrency. Zero means GOMAXPROCS.
	Workers int
}

// JaccardDistMatrix computes distances between every query and every selected reference.
//
// Work is split into (query, reference chunk) tasks run on a bounded pool. Each task owns
// a disjoint block of the output. Cancelling ctx stops outstanding tasks before they start;
// blocks already written are complete, and the context error is returned.
func JaccardDistMatrix[Q, R sigs.Code](ctx context.Context, queries sigs.Signatures[Q], refs sigs.Signatures[R], opts MatrixOptions) (*mat.Dense, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if queries.KmerSpec() != refs.KmerSpec() {
		return nil, fmt.Errorf("%w: %s vs %s", ErrSpecMismatch, queries.KmerSpec(), refs.KmerSpec())
	}

	cols := refs
	if opts.RefIndices != nil {
		sub, err := sigs.NewSubset(refs, opts.RefIndices)
		if err != nil {
			return nil, err
		}
		cols = sub
	}

	m, n := queries.Len(), cols.Len()
	if m == 0 || n == 0 {
		return nil, fmt.Errorf("%w: %d queries, %d references", ErrEmpty, m, n)
	}
	if opts.ChunkSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrChunkSize, opts.ChunkSize)
	}

	out := opts.Out
	if out == nil {
		out = mat.NewDense(m, n, nil)
	} else if r, c := out.Dims(); r != m || c != n {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrShape, r, c, m, n)
	}

	chunk := opts.ChunkSize
	if chunk == 0 || chunk > n {
		chunk = n
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	rep := progress.NewReporter(opts.Progress, m*n)
	defer rep.Close()

	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx).WithFirstError()

submit:
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		block := cols.Slice(lo, hi)
		for qi := range m {
			if ctx.Err() != nil {
				break submit
			}
			p.Go(func(ctx context.Context) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				q := queries.At(qi)
				row := out.RawRowView(qi)[lo:hi]
				for j := range row {
					row[j] = JaccardDist(q, block.At(j))
				}
				rep.Add(len(row))
				return nil
			})
		}
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
