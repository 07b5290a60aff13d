package cmd

import (
	"github.com/spf13/cobra"

	"github.com/arloliu/blockpress/app"
	"github.com/arloliu/blockpress/config"
)

func newDecompressCommand(g *globalFlags) *cobra.Command {
	c := &cobra.Command{
		Use:   "decompress",
		Short: "Decompress a blockpress container",
		Long: `Decompress a blockpress container from a file or STDIN.

Example:
  blockpress decompress -i data.bin.bpk
  blockpress decompress -i data.bin.bpk -o NONE -j 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, metricsFile, err := g.options(cmd, (*config.Config).DecompressOptions)
			if err != nil {
				return err
			}

			setString(cmd, opts, "input", app.KeyInput)
			setString(cmd, opts, "output", app.KeyOutput)

			return run(cmd, "decompress", opts, metricsFile,
				func(opts map[string]string, runOpts ...app.Option) (runner, error) {
					return app.NewDecompressor(opts, runOpts...)
				})
		},
	}

	flags := c.Flags()
	flags.StringP("input", "i", "", "input container, or STDIN")
	flags.StringP("output", "o", "", "output file, STDOUT or NONE (default: input without "+app.Extension+")")

	return c
}
