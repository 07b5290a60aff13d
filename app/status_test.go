package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/blockpress/errs"
)

func TestStatusOf(t *testing.T) {
	require.Equal(t, StatusOK, StatusOf(nil))

	tests := []struct {
		err  error
		want int
	}{
		{errs.ErrMissingParam, StatusMissingParam},
		{errs.ErrInvalidBlockSize, StatusBlockSize},
		{errs.ErrUnknownTransform, StatusInvalidCodec},
		{errs.ErrUnknownCompression, StatusInvalidCodec},
		{errs.ErrOutputIsDir, StatusOutputIsDir},
		{errs.ErrOverwrite, StatusOverwriteFile},
		{errs.ErrSameInputOutput, StatusCreateFile},
		{errs.ErrInvalidJobs, StatusInvalidParam},
		{errs.ErrInvalidConfig, StatusInvalidParam},
		{errs.ErrInvalidMagic, StatusInvalidFile},
		{errs.ErrTruncatedStream, StatusInvalidFile},
		{errs.ErrInvalidTrailer, StatusInvalidFile},
		{errs.ErrUnsupportedVersion, StatusStreamVersion},
		{errs.ErrBlockDecode, StatusProcessBlock},
		{errs.ErrChecksumMismatch, StatusChecksum},
		{context.Canceled, StatusCanceled},
		{errs.ErrStreamClosed, StatusUnknown},
		{errors.New("boom"), StatusUnknown},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, StatusOf(fmt.Errorf("run: %w", tt.err)), "error %v", tt.err)
	}
}

func TestStatusOf_ChecksumWinsOverDecode(t *testing.T) {
	err := fmt.Errorf("%w: block 2: %w", errs.ErrChecksumMismatch, errs.ErrBlockDecode)
	require.Equal(t, StatusChecksum, StatusOf(err))
}

func TestIOError(t *testing.T) {
	err := fmt.Errorf("copy: %w", ioError(StatusWriteFile, "write output", io.ErrShortWrite))

	require.Equal(t, StatusWriteFile, StatusOf(err))
	require.ErrorIs(t, err, io.ErrShortWrite)
	require.Contains(t, err.Error(), "write output: short write")
}

func TestClassify(t *testing.T) {
	require.NoError(t, classify(nil, StatusCreateCompressor, "create"))

	known := fmt.Errorf("%w: bad", errs.ErrInvalidBlockSize)
	require.Equal(t, StatusBlockSize, StatusOf(classify(known, StatusCreateCompressor, "create")))

	unknown := errors.New("no memory")
	require.Equal(t, StatusCreateCompressor, StatusOf(classify(unknown, StatusCreateCompressor, "create")))
}
