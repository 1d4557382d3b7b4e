// Package query runs batch classification: distances from each query to every reference
// genome, then a taxonomy prediction per query.
package query

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/ZanzyTHEbar/sigtax/sigtax/classify"
	"github.com/ZanzyTHEbar/sigtax/sigtax/metric"
	"github.com/ZanzyTHEbar/sigtax/sigtax/progress"
	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs"
	"github.com/ZanzyTHEbar/sigtax/sigtax/taxonomy"
)

var (
	ErrReferenceMismatch = errors.New("query: signature and genome counts differ")
	ErrQueryIDs          = errors.New("query: query id count differs from query count")
)

// ReferenceSet pairs reference signatures with their annotated genomes, index for index.
type ReferenceSet[R sigs.Code] struct {
	Signatures sigs.Signatures[R]
	Genomes    []classify.ReferenceGenome
}

// NewReferenceSet checks that signatures and genomes line up.
func NewReferenceSet[R sigs.Code](signatures sigs.Signatures[R], genomes []classify.ReferenceGenome) (*ReferenceSet[R], error) {
	if signatures.Len() != len(genomes) {
		return nil, fmt.Errorf("%w: %d signatures, %d genomes", ErrReferenceMismatch, signatures.Len(), len(genomes))
	}
	return &ReferenceSet[R]{Signatures: signatures, Genomes: genomes}, nil
}

// Params controls a run.
type Params struct {
	Strict    bool
	ChunkSize int
	Workers   int
	// Progress receives distance matrix progress. Nil disables reporting.
	Progress progress.Sink
}

// Result is the classification of one query.
type Result struct {
	Query  string
	Index  int
	Result *classify.ClassifierResult
	// ReportTaxon is the reportable ancestor of the prediction, or nil
	ReportTaxon *taxonomy.Taxon
}

// Results holds the outcome of one run.
type Results struct {
	ID        uuid.UUID
	Timestamp time.Time
	Params    Params
	Items     []Result
}

// Summary counts results by outcome.
type Summary struct {
	Total        int
	Predicted    int
	NoPrediction int
	Failed       int
	Warned       int
}

// Summary tallies the results.
func (r *Results) Summary() Summary {
	s := Summary{Total: len(r.Items)}
	for _, it := range r.Items {
		switch {
		case !it.Result.Success:
			s.Failed++
		case it.Result.PredictedTaxon != nil:
			s.Predicted++
		default:
			s.NoPrediction++
		}
		if len(it.Result.Warnings) > 0 {
			s.Warned++
		}
	}
	return s
}

// Run classifies every query against refs. queryIDs labels the queries and may be nil.
func Run[Q, R sigs.Code](ctx context.Context, log zerolog.Logger, queries sigs.Signatures[Q], queryIDs []string, refs *ReferenceSet[R], params Params) (*Results, error) {
	if queryIDs != nil && len(queryIDs) != queries.Len() {
		return nil, fmt.Errorf("%w: %d ids, %d queries", ErrQueryIDs, len(queryIDs), queries.Len())
	}

	res := &Results{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Params:    params,
	}
	log = log.With().Str("run", res.ID.String()).Logger()
	log.Info().
		Int("queries", queries.Len()).
		Int("references", refs.Signatures.Len()).
		Bool("strict", params.Strict).
		Msg("starting query run")

	start := time.Now()
	dists, err := metric.JaccardDistMatrix(ctx, queries, refs.Signatures, metric.MatrixOptions{
		ChunkSize: params.ChunkSize,
		Workers:   params.Workers,
		Progress:  params.Progress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute distances: %w", err)
	}
	log.Debug().Dur("elapsed", time.Since(start)).Msg("distance matrix complete")

	res.Items = make([]Result, queries.Len())
	workers := params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx).WithFirstError()
	for i := range res.Items {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cr, err := classify.Classify(refs.Genomes, dists.RawRowView(i), params.Strict)
			if err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			item := Result{Index: i, Result: cr, ReportTaxon: classify.ReportableTaxon(cr.PredictedTaxon)}
			if queryIDs != nil {
				item.Query = queryIDs[i]
			}
			res.Items[i] = item
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	// logged after the pool so warnings come out in query order
	for _, it := range res.Items {
		for _, w := range it.Result.Warnings {
			log.Warn().Str("query", it.label()).Msg(w)
		}
		if !it.Result.Success {
			log.Warn().Str("query", it.label()).Str("error", it.Result.Error).Msg("classification failed")
		}
	}

	s := res.Summary()
	log.Info().
		Int("predicted", s.Predicted).
		Int("no_prediction", s.NoPrediction).
		Int("failed", s.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("query run complete")
	return res, nil
}

func (r Result) label() string {
	if r.Query != "" {
		return r.Query
	}
	return fmt.Sprintf("#%d", r.Index)
}
