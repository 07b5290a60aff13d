package app

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/arloliu/blockpress/errs"
	"github.com/arloliu/blockpress/format"
	"github.com/arloliu/blockpress/section"
	"github.com/arloliu/blockpress/stream"
)

// Option map keys.
const (
	KeyInput     = "input"
	KeyOutput    = "output"
	KeyBlockSize = "blockSize"
	KeyLevel     = "level"
	KeyTransform = "transform"
	KeyCodec     = "codec"
	KeyJobs      = "jobs"
	KeyChecksum  = "checksum"
	KeyOverwrite = "overwrite"
	KeyVerbosity = "verbosity"
)

// Special input and output names.
const (
	NameStdin  = "STDIN"
	NameStdout = "STDOUT"
	NameNone   = "NONE" // output only: discard
)

const (
	// Extension is appended to the input name when no output is given.
	Extension = ".bpk"
	// DefaultVerbosity logs the run summary and warnings.
	DefaultVerbosity = 1
	// MaxVerbosity logs every block.
	MaxVerbosity = 5
)

var (
	compressorKeys = []string{
		KeyInput, KeyOutput, KeyBlockSize, KeyLevel, KeyTransform, KeyCodec,
		KeyJobs, KeyChecksum, KeyOverwrite, KeyVerbosity,
	}
	decompressorKeys = []string{KeyInput, KeyOutput, KeyJobs, KeyOverwrite, KeyVerbosity}
)

// Config is the validated configuration of a run. It is immutable once parsed.
type Config struct {
	Input       string
	Output      string
	Transforms  []format.TransformType
	BlockSize   int
	Level       int // -1 when transform and codec were given explicitly
	Jobs        int
	Verbosity   int
	Compression format.CompressionType
	Checksum    bool
	Overwrite   bool
}

// ParseCompressorConfig validates an option map for a compression run.
//
// Unknown keys do not fail the parse; they are returned as warnings.
func ParseCompressorConfig(opts map[string]string) (Config, []string, error) {
	cfg := Config{
		BlockSize: stream.DefaultBlockSize,
		Level:     DefaultLevel,
		Jobs:      stream.DefaultJobs,
		Verbosity: DefaultVerbosity,
	}

	warnings := unknownKeys(opts, compressorKeys)

	if err := parseCommon(&cfg, opts); err != nil {
		return Config{}, warnings, err
	}

	if v, ok := opts[KeyBlockSize]; ok {
		size, err := ParseSize(v)
		if err != nil {
			return Config{}, warnings, fmt.Errorf("%w: %w", errs.ErrInvalidBlockSize, err)
		}

		if size < section.MinBlockSize || size > section.MaxBlockSize {
			return Config{}, warnings, fmt.Errorf("%w: %d is outside [%d, %d]",
				errs.ErrInvalidBlockSize, size, section.MinBlockSize, section.MaxBlockSize)
		}

		// round up to the container alignment
		align := section.BlockSizeAlignment
		cfg.BlockSize = min((size+align-1)/align*align, section.MaxBlockSize)
	}

	var err error
	if cfg.Checksum, err = parseBool(opts, KeyChecksum); err != nil {
		return Config{}, warnings, err
	}

	if err := parseCoding(&cfg, opts); err != nil {
		return Config{}, warnings, err
	}

	if cfg.Output == "" {
		cfg.Output = defaultOutput(cfg.Input, true)
	}

	return cfg, warnings, nil
}

// ParseDecompressorConfig validates an option map for a decompression run.
//
// Compression-only keys are ignored with a warning.
func ParseDecompressorConfig(opts map[string]string) (Config, []string, error) {
	cfg := Config{
		Level:     -1,
		Jobs:      stream.DefaultJobs,
		Verbosity: DefaultVerbosity,
	}

	warnings := unknownKeys(opts, decompressorKeys)

	if err := parseCommon(&cfg, opts); err != nil {
		return Config{}, warnings, err
	}

	if cfg.Output == "" {
		cfg.Output = defaultOutput(cfg.Input, false)
	}

	return cfg, warnings, nil
}

func parseCommon(cfg *Config, opts map[string]string) error {
	cfg.Input = strings.TrimSpace(opts[KeyInput])
	if cfg.Input == "" {
		return fmt.Errorf("%w: %s", errs.ErrMissingParam, KeyInput)
	}

	cfg.Output = strings.TrimSpace(opts[KeyOutput])
	if strings.EqualFold(cfg.Input, NameStdin) {
		cfg.Input = NameStdin
	}

	for _, special := range []string{NameStdout, NameNone} {
		if strings.EqualFold(cfg.Output, special) {
			cfg.Output = special
		}
	}

	if v, ok := opts[KeyJobs]; ok {
		jobs, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || jobs < 1 || jobs > stream.MaxJobs {
			return fmt.Errorf("%w: %q, expected 1 to %d", errs.ErrInvalidJobs, v, stream.MaxJobs)
		}
		cfg.Jobs = jobs
	}

	if v, ok := opts[KeyVerbosity]; ok {
		verbosity, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || verbosity < 0 || verbosity > MaxVerbosity {
			return fmt.Errorf("%w: verbosity %q, expected 0 to %d", errs.ErrInvalidConfig, v, MaxVerbosity)
		}
		cfg.Verbosity = verbosity
	}

	var err error
	cfg.Overwrite, err = parseBool(opts, KeyOverwrite)

	return err
}

// parseCoding resolves the transform chain and codec from either a level or the
// explicit names. Giving both is an error; a missing explicit half is taken from
// DefaultLevel.
func parseCoding(cfg *Config, opts map[string]string) error {
	levelStr, hasLevel := opts[KeyLevel]
	transformStr, hasTransform := opts[KeyTransform]
	codecStr, hasCodec := opts[KeyCodec]

	if hasLevel && (hasTransform || hasCodec) {
		return fmt.Errorf("%w: %s cannot be combined with %s or %s",
			errs.ErrInvalidConfig, KeyLevel, KeyTransform, KeyCodec)
	}

	level := DefaultLevel
	if hasLevel {
		n, err := strconv.Atoi(strings.TrimSpace(levelStr))
		if err != nil {
			return fmt.Errorf("%w: level %q", errs.ErrInvalidConfig, levelStr)
		}
		level = n
	}

	entry, err := LevelFor(level)
	if err != nil {
		return err
	}

	cfg.Level = entry.Level
	cfg.Transforms = entry.Transforms
	cfg.Compression = entry.Compression

	if hasTransform {
		if cfg.Transforms, err = format.ParseTransformChain(transformStr); err != nil {
			return err
		}
		cfg.Level = -1
	}

	if hasCodec {
		if cfg.Compression, err = format.ParseCompressionType(codecStr); err != nil {
			return err
		}
		cfg.Level = -1
	}

	return nil
}

func parseBool(opts map[string]string, key string) (bool, error) {
	v, ok := opts[key]
	if !ok {
		return false, nil
	}

	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("%w: %s %q", errs.ErrInvalidConfig, key, v)
	}

	return b, nil
}

func unknownKeys(opts map[string]string, known []string) []string {
	var warnings []string
	for key := range opts {
		if !slices.Contains(known, key) {
			warnings = append(warnings, fmt.Sprintf("ignoring invalid option [%s]", key))
		}
	}
	slices.Sort(warnings)

	return warnings
}

func defaultOutput(input string, compress bool) string {
	if input == NameStdin {
		return NameStdout
	}

	if compress {
		return input + Extension
	}

	if trimmed, ok := strings.CutSuffix(input, Extension); ok && trimmed != "" {
		return trimmed
	}

	return input + ".out"
}

// ParseSize parses a byte count with an optional k, m or g suffix (powers of 1024).
func ParseSize(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "b")
	if s == "" {
		return 0, errors.New("empty size")
	}

	shift := 0
	switch s[len(s)-1] {
	case 'k':
		shift = 10
	case 'm':
		shift = 20
	case 'g':
		shift = 30
	}
	if shift > 0 {
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}

	if n > (1<<40)>>shift {
		return 0, fmt.Errorf("size %q is too large", s)
	}

	return int(n << shift), nil
}

// Describe returns the effective settings as ordered key/value pairs.
func (c Config) Describe() [][2]string {
	pairs := [][2]string{
		{KeyInput, c.Input},
		{KeyOutput, c.Output},
		{KeyJobs, strconv.Itoa(c.Jobs)},
		{KeyOverwrite, strconv.FormatBool(c.Overwrite)},
	}

	if len(c.Transforms) > 0 {
		pairs = append(pairs,
			[2]string{KeyBlockSize, strconv.Itoa(c.BlockSize)},
			[2]string{KeyTransform, format.FormatTransformChain(c.Transforms)},
			[2]string{KeyCodec, c.Compression.String()},
			[2]string{KeyChecksum, strconv.FormatBool(c.Checksum)},
		)
	}

	return pairs
}
