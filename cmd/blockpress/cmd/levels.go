package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arloliu/blockpress/app"
	"github.com/arloliu/blockpress/format"
)

func newLevelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "Print the compression level table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LEVEL\tTRANSFORM\tCODEC\t")
			for _, l := range app.Levels() {
				marker := ""
				if l.Level == app.DefaultLevel {
					marker = "(default)"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", l.Level, format.FormatTransformChain(l.Transforms), l.Compression, marker)
			}

			return tw.Flush()
		},
	}
}
