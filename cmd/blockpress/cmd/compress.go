package cmd

import (
	"github.com/spf13/cobra"

	"github.com/arloliu/blockpress/app"
	"github.com/arloliu/blockpress/config"
)

func newCompressCommand(g *globalFlags) *cobra.Command {
	c := &cobra.Command{
		Use:   "compress",
		Short: "Compress a file",
		Long: `Compress a file or STDIN into a blockpress container.

Example:
  blockpress compress -i data.bin -l 5 -x
  tar c dir | blockpress compress -i STDIN -o STDOUT > dir.tar.bpk`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, metricsFile, err := g.options(cmd, (*config.Config).CompressOptions)
			if err != nil {
				return err
			}

			setString(cmd, opts, "input", app.KeyInput)
			setString(cmd, opts, "output", app.KeyOutput)
			setString(cmd, opts, "block", app.KeyBlockSize)
			setString(cmd, opts, "level", app.KeyLevel)
			setString(cmd, opts, "transform", app.KeyTransform)
			setString(cmd, opts, "codec", app.KeyCodec)
			if cmd.Flags().Changed("checksum") {
				opts[app.KeyChecksum] = "true"
			}

			return run(cmd, "compress", opts, metricsFile,
				func(opts map[string]string, runOpts ...app.Option) (runner, error) {
					return app.NewCompressor(opts, runOpts...)
				})
		},
	}

	flags := c.Flags()
	flags.StringP("input", "i", "", "input file, or STDIN")
	flags.StringP("output", "o", "", "output file, STDOUT or NONE (default: input"+app.Extension+")")
	flags.StringP("block", "b", "", "block size, e.g. 4m (default 1m)")
	flags.StringP("level", "l", "", "compression level 0-6 (default 3)")
	flags.StringP("transform", "t", "", "transform chain, e.g. X86 or NONE")
	flags.StringP("codec", "c", "", "entropy coder: NONE, LZ4, SNAPPY, S2, DEFLATE, ZSTD, BROTLI")
	flags.BoolP("checksum", "x", false, "store a checksum for each block")

	return c
}
