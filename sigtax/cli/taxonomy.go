package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/sigtax/sigtax/taxonomy"
)

func newTaxonomyCmd(e *env) *cobra.Command {
	var (
		o      dbOptions
		prefix string
		list   bool
	)
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Summarize the reference taxonomy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.resolve(e)
			ctx := cmd.Context()
			store, err := o.open(ctx, e)
			if err != nil {
				return err
			}
			defer store.Close()

			tree, err := store.LoadTaxonomy(ctx)
			if err != nil {
				return err
			}
			_, ngenomes, err := store.Counts(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
			if list || prefix != "" {
				writeTaxa(tw, tree.WithKeyPrefix(prefix))
			} else {
				writeMetrics(tw, tree.Metrics(), ngenomes)
			}
			return tw.Flush()
		},
	}
	o.register(cmd)
	cmd.Flags().StringVar(&prefix, "prefix", "", "list taxa whose key starts with prefix")
	cmd.Flags().BoolVar(&list, "list", false, "list every taxon")
	return cmd
}

func writeMetrics(tw *tabwriter.Writer, m taxonomy.TreeMetrics, genomes int) {
	fmt.Fprintf(tw, "taxa\t%d\n", m.TotalTaxa)
	fmt.Fprintf(tw, "roots\t%d\n", m.Roots)
	fmt.Fprintf(tw, "leaves\t%d\n", m.Leaves)
	fmt.Fprintf(tw, "max depth\t%d\n", m.MaxDepth)
	fmt.Fprintf(tw, "with threshold\t%d\n", m.WithThreshold)
	fmt.Fprintf(tw, "reportable\t%d\n", m.Reportable)
	fmt.Fprintf(tw, "genomes\t%d\n", genomes)
	for _, rank := range slices.Sorted(maps.Keys(m.RankCounts)) {
		fmt.Fprintf(tw, "rank %s\t%d\n", rank, m.RankCounts[rank])
	}
}

func writeTaxa(tw *tabwriter.Writer, taxa []*taxonomy.Taxon) {
	fmt.Fprintln(tw, "key\ttaxon\trank\tthreshold\tlineage")
	for _, t := range taxa {
		thr := "-"
		if d, ok := t.Threshold(); ok {
			thr = fmt.Sprintf("%g", d)
		}
		names := make([]string, 0, t.Depth()+1)
		for _, a := range t.Lineage() {
			names = append(names, a.Name)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Key, t.ShortRepr(), t.Rank, thr, strings.Join(names, ";"))
	}
}
