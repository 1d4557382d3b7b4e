package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/sigtax/sigtax/classify"
	"github.com/ZanzyTHEbar/sigtax/sigtax/progress"
	"github.com/ZanzyTHEbar/sigtax/sigtax/query"
	"github.com/ZanzyTHEbar/sigtax/sigtax/refdb"
	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs"
	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs/sigfile"
)

var errNoReferenceIDs = errors.New("reference signature file has no genome ids")

type dbOptions struct {
	dsn    string
	driver string
}

func (o *dbOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.dsn, "db", "", "reference database DSN (default from config)")
	cmd.Flags().StringVar(&o.driver, "driver", "", `database driver, "sqlite" or "libsql" (default from config)`)
}

func (o *dbOptions) resolve(e *env) {
	if o.dsn == "" {
		o.dsn = e.cfg.Database.DSN
	}
	if o.driver == "" {
		o.driver = e.cfg.Database.Type
	}
}

func (o dbOptions) open(ctx context.Context, e *env) (*refdb.Store, error) {
	db, err := refdb.Open(ctx, o.driver, o.dsn)
	if err != nil {
		return nil, err
	}
	store, err := refdb.New(ctx, db, e.log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// engineOptions are the distance engine flags shared by query and dist.
type engineOptions struct {
	chunkSize int
	workers   int
	progress  bool
}

func (o *engineOptions) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.chunkSize, "chunk-size", 0, "references per unit of work, 0 for no chunking (default from config)")
	cmd.Flags().IntVarP(&o.workers, "workers", "j", 0, "worker goroutines, 0 for one per CPU (default from config)")
	cmd.Flags().BoolVar(&o.progress, "progress", false, "show a progress bar on stderr")
}

func (o *engineOptions) resolve(cmd *cobra.Command, e *env) error {
	if !cmd.Flags().Changed("chunk-size") {
		o.chunkSize = e.cfg.Metric.ChunkSize
	}
	if !cmd.Flags().Changed("workers") {
		o.workers = e.cfg.Metric.Workers
	}
	if !cmd.Flags().Changed("progress") {
		o.progress = e.cfg.Progress.Enabled
	}
	if o.chunkSize < 0 || o.workers < 0 {
		return fmt.Errorf("chunk size and workers must not be negative")
	}
	return nil
}

func (o engineOptions) sink(e *env, desc string) progress.Sink {
	if !o.progress {
		return nil
	}
	return progress.NewBar(e.stderr, desc)
}

type queryOptions struct {
	dbOptions
	engineOptions
	sigsPath string
	output   string
	strict   bool
}

func newQueryCmd(e *env) *cobra.Command {
	var o queryOptions
	cmd := &cobra.Command{
		Use:   "query QUERYFILE",
		Short: "Predict the taxonomy of each signature in QUERYFILE",
		Long: `Predict the taxonomy of each signature in QUERYFILE.

Distances from every query to every reference signature are computed, then each query is
classified against the reference taxonomy. Results are written as JSON.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.dbOptions.resolve(e)
			if err := o.engineOptions.resolve(cmd, e); err != nil {
				return err
			}
			if o.sigsPath == "" {
				o.sigsPath = e.cfg.Signatures.Path
			}
			if !cmd.Flags().Changed("strict") {
				o.strict = e.cfg.Classify.Strict
			}
			return runQuery(cmd.Context(), e, o, args[0])
		},
	}
	o.dbOptions.register(cmd)
	o.engineOptions.register(cmd)
	cmd.Flags().StringVarP(&o.sigsPath, "sigs", "s", "", "reference signature file (default from config)")
	cmd.Flags().StringVarP(&o.output, "output", "o", "-", `output file ("-" for stdout)`)
	cmd.Flags().BoolVar(&o.strict, "strict", false, "reconcile every significant match instead of using only the closest")
	return cmd
}

func runQuery(ctx context.Context, e *env, o queryOptions, queryPath string) error {
	et, _, err := elemAt(o.sigsPath)
	if err != nil {
		return err
	}
	return et.query(ctx, e, o, queryPath)
}

// queryWith runs a query against references stored as R. Queries are converted to R.
func queryWith[R sigs.Code](ctx context.Context, e *env, o queryOptions, queryPath string) error {
	refs, err := sigfile.Open[R](o.sigsPath)
	if err != nil {
		return err
	}
	defer refs.Close()
	if refs.IDs() == nil {
		return fmt.Errorf("%s: %w", o.sigsPath, errNoReferenceIDs)
	}

	queries, queryIDs, err := loadAs[R](queryPath, refs.KmerSpec())
	if err != nil {
		return err
	}

	store, err := o.dbOptions.open(ctx, e)
	if err != nil {
		return err
	}
	defer store.Close()

	tree, err := store.LoadTaxonomy(ctx)
	if err != nil {
		return err
	}
	annotated, err := store.LoadGenomes(ctx, tree, refs.IDs())
	if err != nil {
		return err
	}
	genomes := make([]classify.ReferenceGenome, len(annotated))
	for i, g := range annotated {
		genomes[i] = g
	}
	set, err := query.NewReferenceSet[R](refs, genomes)
	if err != nil {
		return err
	}

	res, err := query.Run[R, R](ctx, e.log, queries, labels(queryIDs, queries.Len()), set, query.Params{
		Strict:    o.strict,
		ChunkSize: o.chunkSize,
		Workers:   o.workers,
		Progress:  o.sink(e, "distances"),
	})
	if err != nil {
		return err
	}

	return writeOutput(e, o.output, func(w io.Writer) error { return query.WriteJSON(w, res) })
}

// writeOutput runs fn against stdout for "-" or an empty path, else against a new file.
func writeOutput(e *env, path string, fn func(io.Writer) error) error {
	if path == "" || path == "-" {
		return fn(e.stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
