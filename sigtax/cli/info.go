package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs/sigfile"
)

func newInfoCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE...",
		Short: "Describe signature files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "file\tkmers\twidth\tcount\tids")
			for _, path := range args {
				h, err := sigfile.ReadHeader(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\n", path, h.Spec, h.Width, h.Count, h.IDs != nil)
			}
			return tw.Flush()
		},
	}
}
