package section

import (
	"testing"

	"github.com/arloliu/blockpress/errs"
	"github.com/stretchr/testify/require"
)

func TestTrailer_RoundTrip(t *testing.T) {
	tr := Trailer{BlockCount: 3, TotalBytes: 123456, Checksum: 0xDEADBEEFCAFEBABE}

	data := tr.Bytes()
	require.Len(t, data, TrailerSize)

	var parsed Trailer
	require.NoError(t, parsed.Parse(data))
	require.Equal(t, tr, parsed)
}

func TestTrailer_Parse(t *testing.T) {
	var tr Trailer
	require.ErrorIs(t, tr.Parse(make([]byte, 5)), errs.ErrInvalidHeaderSize)

	data := Trailer{}.Bytes()
	data[0] = BlockMarker
	require.ErrorIs(t, tr.Parse(data), errs.ErrInvalidTrailer)

	data = Trailer{}.Bytes()
	data[2] = 1
	require.ErrorIs(t, tr.Parse(data), errs.ErrInvalidTrailer)
}

func TestTrailer_Verify(t *testing.T) {
	tr := Trailer{BlockCount: 2, TotalBytes: 100, Checksum: 7}

	require.NoError(t, tr.Verify(2, 100, 7, true))
	require.NoError(t, tr.Verify(2, 100, 8, false), "stream checksum ignored without the flag")
	require.ErrorIs(t, tr.Verify(3, 100, 7, true), errs.ErrInvalidTrailer)
	require.ErrorIs(t, tr.Verify(2, 99, 7, true), errs.ErrInvalidTrailer)
	require.ErrorIs(t, tr.Verify(2, 100, 8, true), errs.ErrChecksumMismatch)
}
