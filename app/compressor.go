package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/arloliu/blockpress/event"
	"github.com/arloliu/blockpress/stream"
)

const (
	opCompress   = "compress"
	opDecompress = "decompress"
)

// Compressor compresses one input into a container.
//
// A Compressor runs once. Listeners added before Run receive its events; the
// Compressor never takes ownership of them.
type Compressor struct {
	*runner
}

// NewCompressor validates opts and creates a Compressor. Recognized keys are
// input, output, blockSize, level, transform, codec, jobs, checksum, overwrite and
// verbosity; unknown keys are reported as warnings when the run starts.
func NewCompressor(opts map[string]string, runOpts ...Option) (*Compressor, error) {
	cfg, warnings, err := ParseCompressorConfig(opts)
	if err != nil {
		return nil, err
	}

	r, err := newRunner(opCompress, cfg, warnings, runOpts)
	if err != nil {
		return nil, err
	}

	return &Compressor{runner: r}, nil
}

// Run compresses the input and returns the run status: 0 on success, a negative
// value for a warning and a positive value for a failure.
func (c *Compressor) Run(ctx context.Context) int {
	return c.execute(ctx, c.compress)
}

func (c *Compressor) compress(ctx context.Context) error {
	cfg := c.cfg
	c.record(func(s *RunStats) { s.Compression = cfg.Compression })

	if err := checkOutput(cfg); err != nil {
		return err
	}

	in, inCloser, err := openInput(cfg.Input, c.stdin)
	if err != nil {
		return err
	}
	c.input = inCloser

	out, outCloser, err := createOutput(cfg.Output, c.stdout)
	if err != nil {
		return err
	}
	c.output = outCloser

	c.logger.Debug("compressing", zap.String("input", cfg.Input), zap.String("output", cfg.Output),
		zap.Int("block_size", cfg.BlockSize), zap.Int("jobs", cfg.Jobs), zap.Int("level", cfg.Level))

	w, err := stream.NewWriterContext(ctx, out,
		stream.WithBlockSize(cfg.BlockSize),
		stream.WithJobs(cfg.Jobs),
		stream.WithChecksum(cfg.Checksum),
		stream.WithTransforms(cfg.Transforms...),
		stream.WithCompression(cfg.Compression),
		stream.WithRegistry(c.registry),
	)
	if err != nil {
		return classify(err, StatusCreateCompressor, "create compressor")
	}

	c.registry.Notify(event.New(event.KindStarted,
		fmt.Sprintf("compressing %s to %s (%s)", cfg.Input, cfg.Output, describeCoding(cfg))))

	_, copyErr := io.Copy(w, in)
	closeErr := w.Close()

	c.record(func(s *RunStats) {
		s.RawBytes = w.Consumed()
		s.EncodedBytes = w.Written()
		s.Blocks = w.Blocks()
	})

	if copyErr != nil {
		return copyErr
	}

	if closeErr != nil {
		return closeErr
	}

	return c.finishOutput()
}

func describeCoding(cfg Config) string {
	names := make([]string, len(cfg.Transforms))
	for i, t := range cfg.Transforms {
		names[i] = t.String()
	}

	coding := fmt.Sprintf("transform=%v codec=%s", names, cfg.Compression)
	if cfg.Level >= 0 {
		coding = fmt.Sprintf("level=%d %s", cfg.Level, coding)
	}

	return coding
}
