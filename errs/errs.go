// Package errs defines the sentinel errors shared by all blockpress packages.
//
// Errors are grouped by class. Callers classify a failure with errors.Is against
// these values; wrapped errors carry the details (block index, offending value).
package errs

import "errors"

// Configuration errors. Surfaced before any stream I/O.
var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrMissingParam       = errors.New("missing required parameter")
	ErrInvalidBlockSize   = errors.New("invalid block size")
	ErrInvalidJobs        = errors.New("invalid number of jobs")
	ErrUnknownTransform   = errors.New("unknown transform")
	ErrUnknownCompression = errors.New("unknown codec")
	ErrOverwrite          = errors.New("output exists and overwrite is disabled")
	ErrSameInputOutput    = errors.New("input and output must be different")
	ErrOutputIsDir        = errors.New("output is a directory")
)

// Format errors. Raised while opening or reading a container.
var (
	ErrInvalidHeaderSize      = errors.New("invalid header size")
	ErrInvalidMagic           = errors.New("invalid stream magic")
	ErrUnsupportedVersion     = errors.New("unsupported stream version")
	ErrInvalidHeaderFlags     = errors.New("invalid header flags")
	ErrUnsupportedTransform   = errors.New("unsupported transform id")
	ErrUnsupportedCompression = errors.New("unsupported codec id")
	ErrInvalidBlockDescriptor = errors.New("invalid block descriptor")
	ErrBlockOutOfOrder        = errors.New("block index out of order")
	ErrTruncatedStream        = errors.New("truncated stream")
	ErrInvalidTrailer         = errors.New("invalid stream trailer")
)

// Integrity errors.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Processing errors.
var (
	ErrBlockEncode = errors.New("block encoding failed")
	ErrBlockDecode = errors.New("block decoding failed")
)

// Lifecycle errors.
var ErrStreamClosed = errors.New("stream closed")
