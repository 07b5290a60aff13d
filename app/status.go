package app

import (
	"context"
	"errors"

	"github.com/arloliu/blockpress/errs"
)

// Run status codes. They are stable and used as process exit codes by the CLI.
const (
	StatusOK                 = 0
	StatusMissingParam       = 1
	StatusBlockSize          = 2
	StatusInvalidCodec       = 3
	StatusCreateCompressor   = 4
	StatusCreateDecompressor = 5
	StatusOutputIsDir        = 6
	StatusOverwriteFile      = 7
	StatusCreateFile         = 8
	StatusOpenFile           = 10
	StatusReadFile           = 11
	StatusWriteFile          = 12
	StatusProcessBlock       = 13
	StatusInvalidFile        = 15
	StatusStreamVersion      = 16
	StatusInvalidParam       = 18
	StatusChecksum           = 19
	StatusCanceled           = 20
	StatusUnknown            = 127

	// WarnEmptyInput is returned when the input had no data. The output is still a
	// valid (empty) container; it is a warning, not a failure.
	WarnEmptyInput = -128
)

// IOError is an input or output failure together with the status it maps to.
type IOError struct {
	Err    error
	Op     string
	Status int
}

func (e *IOError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func ioError(status int, op string, err error) error {
	return &IOError{Status: status, Op: op, Err: err}
}

// StatusOf maps an error returned by a run to its status code.
func StatusOf(err error) int {
	if err == nil {
		return StatusOK
	}

	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return ioErr.Status
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCanceled
	case errors.Is(err, errs.ErrMissingParam):
		return StatusMissingParam
	case errors.Is(err, errs.ErrInvalidBlockSize):
		return StatusBlockSize
	case errors.Is(err, errs.ErrUnknownTransform), errors.Is(err, errs.ErrUnknownCompression):
		return StatusInvalidCodec
	case errors.Is(err, errs.ErrOutputIsDir):
		return StatusOutputIsDir
	case errors.Is(err, errs.ErrOverwrite):
		return StatusOverwriteFile
	case errors.Is(err, errs.ErrSameInputOutput):
		return StatusCreateFile
	case errors.Is(err, errs.ErrInvalidJobs), errors.Is(err, errs.ErrInvalidConfig):
		return StatusInvalidParam
	case errors.Is(err, errs.ErrChecksumMismatch):
		return StatusChecksum
	case errors.Is(err, errs.ErrUnsupportedVersion):
		return StatusStreamVersion
	case errors.Is(err, errs.ErrInvalidMagic),
		errors.Is(err, errs.ErrInvalidHeaderSize),
		errors.Is(err, errs.ErrInvalidHeaderFlags),
		errors.Is(err, errs.ErrUnsupportedTransform),
		errors.Is(err, errs.ErrUnsupportedCompression),
		errors.Is(err, errs.ErrInvalidBlockDescriptor),
		errors.Is(err, errs.ErrBlockOutOfOrder),
		errors.Is(err, errs.ErrTruncatedStream),
		errors.Is(err, errs.ErrInvalidTrailer):
		return StatusInvalidFile
	case errors.Is(err, errs.ErrBlockEncode), errors.Is(err, errs.ErrBlockDecode):
		return StatusProcessBlock
	default:
		return StatusUnknown
	}
}
