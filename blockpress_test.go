package blockpress

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/blockpress/errs"
	"github.com/arloliu/blockpress/format"
	"github.com/arloliu/blockpress/section"
	"github.com/arloliu/blockpress/stream"
)

func sampleData() []byte {
	var buf bytes.Buffer
	for i := 0; i < 5000; i++ {
		buf.WriteString("record ")
		buf.WriteByte(byte(i))
		buf.Write([]byte{0xE8, byte(i), 0x01, 0x00, 0x00})
	}

	return buf.Bytes()
}

func TestCompressBytes_RoundTrip(t *testing.T) {
	data := sampleData()

	for level := 0; level <= 6; level++ {
		opts, err := LevelOptions(level)
		require.NoError(t, err)
		opts = append(opts, stream.WithBlockSize(8*1024), stream.WithJobs(3), stream.WithChecksum(true))

		encoded, err := CompressBytes(data, opts...)
		require.NoError(t, err, "level %d", level)

		decoded, err := DecompressBytes(encoded, stream.WithReaderJobs(2))
		require.NoError(t, err, "level %d", level)
		require.Equal(t, data, decoded, "level %d", level)
	}
}

func TestCompress_Counts(t *testing.T) {
	data := sampleData()

	var encoded bytes.Buffer
	written, err := Compress(&encoded, bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, int64(encoded.Len()), written)

	header, err := section.ParseStreamHeader(encoded.Bytes())
	require.NoError(t, err)
	require.Equal(t, format.CompressionS2, header.Compression)

	var decoded bytes.Buffer
	n, err := Decompress(&decoded, &encoded)
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), n)
	require.Equal(t, data, decoded.Bytes())
}

func TestCompressBytes_Empty(t *testing.T) {
	encoded, err := CompressBytes(nil)
	require.NoError(t, err)
	require.Len(t, encoded, section.HeaderSize+section.TrailerSize)

	decoded, err := DecompressBytes(encoded)
	require.NoError(t, err)
	require.Empty(t, decoded)
}

func TestDecompressBytes_Invalid(t *testing.T) {
	_, err := DecompressBytes([]byte("not a container at all"))
	require.ErrorIs(t, err, errs.ErrInvalidMagic)

	encoded, err := CompressBytes(sampleData())
	require.NoError(t, err)

	_, err = DecompressBytes(encoded[:len(encoded)-5])
	require.ErrorIs(t, err, errs.ErrTruncatedStream)
}

func TestCompress_InvalidOptions(t *testing.T) {
	_, err := CompressBytes([]byte("x"), stream.WithBlockSize(10))
	require.ErrorIs(t, err, errs.ErrInvalidBlockSize)

	_, err = LevelOptions(9)
	require.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestCompressContext_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := CompressContext(ctx, &bytes.Buffer{}, bytes.NewReader(sampleData()), stream.WithBlockSize(1024))
	require.ErrorIs(t, err, context.Canceled)
}
