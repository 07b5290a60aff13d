package app

import (
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/arloliu/blockpress/internal/options"
)

type runOptions struct {
	logger *zap.Logger
	stdin  io.Reader
	stdout io.Writer
}

// Option configures a Compressor or Decompressor.
type Option = options.Option[*runOptions]

func defaultRunOptions() *runOptions {
	return &runOptions{
		logger: zap.NewNop(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}
}

// WithLogger sets the logger used for the run. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(o *runOptions) {
		if logger != nil {
			o.logger = logger
		}
	})
}

// WithStdin sets the reader used for the STDIN input name.
func WithStdin(r io.Reader) Option {
	return options.NoError(func(o *runOptions) {
		o.stdin = r
	})
}

// WithStdout sets the writer used for the STDOUT output name.
func WithStdout(w io.Writer) Option {
	return options.NoError(func(o *runOptions) {
		o.stdout = w
	})
}
