package stream

import (
	"fmt"

	"github.com/arloliu/blockpress/errs"
	"github.com/arloliu/blockpress/event"
	"github.com/arloliu/blockpress/format"
	"github.com/arloliu/blockpress/internal/options"
	"github.com/arloliu/blockpress/section"
)

const (
	// DefaultBlockSize is the block size used when WithBlockSize is not given.
	DefaultBlockSize = 1 << 20
	// DefaultJobs is the number of block workers used when no jobs option is given.
	DefaultJobs = 1
	// MaxJobs is the largest accepted number of block workers.
	MaxJobs = 64
)

// WriterConfig holds the settings of a Writer.
type WriterConfig struct {
	registry    *event.Registry
	transforms  []format.TransformType
	blockSize   int
	jobs        int
	compression format.CompressionType
	checksum    bool
}

// WriterOption configures a Writer.
type WriterOption = options.Option[*WriterConfig]

func newWriterConfig() *WriterConfig {
	return &WriterConfig{
		blockSize:   DefaultBlockSize,
		jobs:        DefaultJobs,
		transforms:  []format.TransformType{format.TransformX86},
		compression: format.CompressionS2,
	}
}

// Validate checks the configuration before any output is written.
func (c *WriterConfig) Validate() error {
	if err := section.ValidateBlockSize(c.blockSize); err != nil {
		return err
	}

	if c.jobs < 1 || c.jobs > MaxJobs {
		return fmt.Errorf("%w: %d is outside [1, %d]", errs.ErrInvalidJobs, c.jobs, MaxJobs)
	}

	if len(c.transforms) == 0 || len(c.transforms) > format.MaxTransforms {
		return fmt.Errorf("%w: chain of %d transforms", errs.ErrUnknownTransform, len(c.transforms))
	}

	for _, t := range c.transforms {
		if !t.IsValid() {
			return fmt.Errorf("%w: 0x%02x", errs.ErrUnknownTransform, uint8(t))
		}
	}

	if !c.compression.IsValid() {
		return fmt.Errorf("%w: 0x%02x", errs.ErrUnknownCompression, uint8(c.compression))
	}

	return nil
}

// BlockSize returns the configured block size.
func (c *WriterConfig) BlockSize() int { return c.blockSize }

// Jobs returns the configured number of workers.
func (c *WriterConfig) Jobs() int { return c.jobs }

// WithBlockSize sets the plaintext size of every block but the last.
// It must be a multiple of 16 in [16 B, 1 GiB].
func WithBlockSize(size int) WriterOption {
	return options.NoError(func(c *WriterConfig) {
		c.blockSize = size
	})
}

// WithJobs sets the number of blocks encoded concurrently, 1 to MaxJobs.
func WithJobs(jobs int) WriterOption {
	return options.NoError(func(c *WriterConfig) {
		c.jobs = jobs
	})
}

// WithChecksum enables per-block and whole-stream xxHash64 checksums.
func WithChecksum(enabled bool) WriterOption {
	return options.NoError(func(c *WriterConfig) {
		c.checksum = enabled
	})
}

// WithTransforms sets the transform chain applied before entropy coding.
func WithTransforms(transforms ...format.TransformType) WriterOption {
	return options.NoError(func(c *WriterConfig) {
		c.transforms = append([]format.TransformType(nil), transforms...)
	})
}

// WithCompression sets the entropy coder.
func WithCompression(compression format.CompressionType) WriterOption {
	return options.NoError(func(c *WriterConfig) {
		c.compression = compression
	})
}

// WithRegistry sets the registry that receives one KindBlockDone event per block.
func WithRegistry(r *event.Registry) WriterOption {
	return options.NoError(func(c *WriterConfig) {
		c.registry = r
	})
}

// ReaderConfig holds the settings of a Reader.
type ReaderConfig struct {
	registry     *event.Registry
	jobs         int
	maxBlockSize int
}

// ReaderOption configures a Reader.
type ReaderOption = options.Option[*ReaderConfig]

func newReaderConfig() *ReaderConfig {
	return &ReaderConfig{
		jobs:         DefaultJobs,
		maxBlockSize: section.MaxBlockSize,
	}
}

// Validate checks the configuration before the header is read.
func (c *ReaderConfig) Validate() error {
	if c.jobs < 1 || c.jobs > MaxJobs {
		return fmt.Errorf("%w: %d is outside [1, %d]", errs.ErrInvalidJobs, c.jobs, MaxJobs)
	}

	if c.maxBlockSize < section.MinBlockSize || c.maxBlockSize > section.MaxBlockSize {
		return fmt.Errorf("%w: limit %d", errs.ErrInvalidBlockSize, c.maxBlockSize)
	}

	return nil
}

// WithReaderJobs sets the number of blocks decoded concurrently, 1 to MaxJobs.
func WithReaderJobs(jobs int) ReaderOption {
	return options.NoError(func(c *ReaderConfig) {
		c.jobs = jobs
	})
}

// WithReaderRegistry sets the registry that receives one KindBlockDone event per block.
func WithReaderRegistry(r *event.Registry) ReaderOption {
	return options.NoError(func(c *ReaderConfig) {
		c.registry = r
	})
}

// WithMaxBlockSize rejects streams whose header declares a larger block size,
// bounding the memory a Reader allocates per block.
func WithMaxBlockSize(size int) ReaderOption {
	return options.NoError(func(c *ReaderConfig) {
		c.maxBlockSize = size
	})
}
