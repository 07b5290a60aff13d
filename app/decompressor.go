package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/arloliu/blockpress/event"
	"github.com/arloliu/blockpress/stream"
)

// Decompressor restores the plaintext of one container.
type Decompressor struct {
	*runner
}

// NewDecompressor validates opts and creates a Decompressor. Recognized keys are
// input, output, jobs, overwrite and verbosity.
func NewDecompressor(opts map[string]string, runOpts ...Option) (*Decompressor, error) {
	cfg, warnings, err := ParseDecompressorConfig(opts)
	if err != nil {
		return nil, err
	}

	r, err := newRunner(opDecompress, cfg, warnings, runOpts)
	if err != nil {
		return nil, err
	}

	return &Decompressor{runner: r}, nil
}

// Run decompresses the input and returns the run status.
func (d *Decompressor) Run(ctx context.Context) int {
	return d.execute(ctx, d.decompress)
}

func (d *Decompressor) decompress(ctx context.Context) error {
	cfg := d.cfg

	if err := checkOutput(cfg); err != nil {
		return err
	}

	in, inCloser, err := openInput(cfg.Input, d.stdin)
	if err != nil {
		return err
	}
	d.input = inCloser

	r, err := stream.NewReaderContext(ctx, in,
		stream.WithReaderJobs(cfg.Jobs),
		stream.WithReaderRegistry(d.registry),
	)
	if err != nil {
		return classify(err, StatusCreateDecompressor, "create decompressor")
	}
	defer r.Close()

	header := r.Header()
	d.record(func(s *RunStats) { s.Compression = header.Compression })

	out, outCloser, err := createOutput(cfg.Output, d.stdout)
	if err != nil {
		return err
	}
	d.output = outCloser

	d.logger.Debug("decompressing", zap.String("input", cfg.Input), zap.String("output", cfg.Output),
		zap.Uint32("block_size", header.BlockSize), zap.Int("jobs", cfg.Jobs))

	d.registry.Notify(event.New(event.KindStarted,
		fmt.Sprintf("decompressing %s to %s (codec=%s)", cfg.Input, cfg.Output, header.Compression)))

	_, copyErr := io.Copy(out, r)

	d.record(func(s *RunStats) {
		s.RawBytes = r.Produced()
		s.EncodedBytes = r.Consumed()
		s.Blocks = r.Blocks()
	})

	if copyErr != nil {
		return copyErr
	}

	return d.finishOutput()
}
