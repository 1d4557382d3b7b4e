package cli

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/sigtax/sigtax/metric"
	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs"
	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs/sigfile"
)

type distOptions struct {
	engineOptions
	output    string
	precision int
}

func newDistCmd(e *env) *cobra.Command {
	var o distOptions
	cmd := &cobra.Command{
		Use:   "dist QUERYFILE REFFILE",
		Short: "Write the Jaccard distance matrix between two signature files as TSV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.engineOptions.resolve(cmd, e); err != nil {
				return err
			}
			return runDist(cmd.Context(), e, o, args[0], args[1])
		},
	}
	o.engineOptions.register(cmd)
	cmd.Flags().StringVarP(&o.output, "output", "o", "-", `output file ("-" for stdout)`)
	cmd.Flags().IntVar(&o.precision, "precision", -1, "digits after the decimal point, -1 for shortest exact form")
	return cmd
}

func runDist(ctx context.Context, e *env, o distOptions, queryPath, refPath string) error {
	et, _, err := elemAt(refPath)
	if err != nil {
		return err
	}
	return et.dist(ctx, e, o, queryPath, refPath)
}

func distWith[R sigs.Code](ctx context.Context, e *env, o distOptions, queryPath, refPath string) error {
	refs, err := sigfile.Open[R](refPath)
	if err != nil {
		return err
	}
	defer refs.Close()

	queries, queryIDs, err := loadAs[R](queryPath, refs.KmerSpec())
	if err != nil {
		return err
	}

	dists, err := metric.JaccardDistMatrix[R, R](ctx, queries, refs, metric.MatrixOptions{
		ChunkSize: o.chunkSize,
		Workers:   o.workers,
		Progress:  o.sink(e, "distances"),
	})
	if err != nil {
		return err
	}
	e.log.Info().Int("queries", queries.Len()).Int("references", refs.Len()).Msg("distance matrix complete")

	rowIDs := labels(queryIDs, queries.Len())
	colIDs := labels(refs.IDs(), refs.Len())
	return writeOutput(e, o.output, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		cw.Comma = '\t'
		row := append([]string{"query"}, colIDs...)
		if err := cw.Write(row); err != nil {
			return err
		}
		for i, id := range rowIDs {
			row[0] = id
			for j, d := range dists.RawRowView(i) {
				row[j+1] = strconv.FormatFloat(d, 'f', o.precision, 64)
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}
