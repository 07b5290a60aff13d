package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/blockpress/errs"
	"github.com/arloliu/blockpress/event"
	"github.com/arloliu/blockpress/format"
	"github.com/arloliu/blockpress/section"
)

// testData returns size bytes alternating between machine-code-like, text and
// random segments.
func testData(size int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	data := make([]byte, 0, size)
	text := []byte("the quick brown fox jumps over the lazy dog; ")

	for len(data) < size {
		seg := make([]byte, 512+rng.Intn(2048))
		switch rng.Intn(3) {
		case 0:
			for i := range seg {
				seg[i] = 0x90
			}
			for i := 0; i+5 < len(seg); i += 8 + rng.Intn(24) {
				seg[i] = 0xE8
				seg[i+1] = byte(rng.Intn(256))
				seg[i+2] = byte(rng.Intn(4))
				seg[i+3] = 0x00
				seg[i+4] = 0x00
			}
		case 1:
			for i := range seg {
				seg[i] = text[i%len(text)]
			}
		default:
			_, _ = rng.Read(seg)
		}
		data = append(data, seg...)
	}

	return data[:size]
}

func compressData(t *testing.T, data []byte, opts ...WriterOption) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := NewWriter(&buf, opts...)
	require.NoError(t, err)

	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, w.Close())

	require.Equal(t, int64(buf.Len()), w.Written())
	require.Equal(t, int64(len(data)), w.Consumed())

	return buf.Bytes()
}

func decompressData(encoded []byte, opts ...ReaderOption) ([]byte, error) {
	r, err := NewReader(bytes.NewReader(encoded), opts...)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}

type blockSpan struct {
	offset int
	desc   section.BlockDescriptor
}

// walkBlocks returns the position and descriptor of every block in a container.
func walkBlocks(t *testing.T, encoded []byte) []blockSpan {
	t.Helper()

	h, err := section.ParseStreamHeader(encoded)
	require.NoError(t, err)

	var spans []blockSpan
	pos := section.HeaderSize
	for encoded[pos] == section.BlockMarker {
		var d section.BlockDescriptor
		require.NoError(t, d.Parse(encoded[pos:pos+section.BlockDescriptorSize]))
		spans = append(spans, blockSpan{offset: pos, desc: d})

		pos += section.BlockDescriptorSize + int(d.CompressedLength)
		if h.HasChecksum() {
			pos += section.BlockChecksumSize
		}
	}

	require.Equal(t, byte(section.TrailerMarker), encoded[pos])
	require.Equal(t, len(encoded), pos+section.TrailerSize)

	return spans
}

func TestRoundTrip(t *testing.T) {
	data := testData(48*1024, 1)
	chains := [][]format.TransformType{
		{format.TransformNone},
		{format.TransformX86},
		{format.TransformX86, format.TransformX86},
	}
	coders := []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
		format.CompressionSnappy,
		format.CompressionBrotli,
		format.CompressionDeflate,
	}
	blockSizes := []int{16, 4096, 64 * 1024}

	for _, coder := range coders {
		for _, chain := range chains {
			for _, blockSize := range blockSizes {
				name := fmt.Sprintf("%s/%s/%d", coder, format.FormatTransformChain(chain), blockSize)
				t.Run(name, func(t *testing.T) {
					input := data
					if blockSize == 16 {
						input = data[:4096]
					}

					encoded := compressData(t, input,
						WithBlockSize(blockSize),
						WithJobs(4),
						WithTransforms(chain...),
						WithCompression(coder),
						WithChecksum(true),
					)

					spans := walkBlocks(t, encoded)
					require.Len(t, spans, (len(input)+blockSize-1)/blockSize)

					decoded, err := decompressData(encoded, WithReaderJobs(3))
					require.NoError(t, err)
					require.Equal(t, input, decoded)
				})
			}
		}
	}
}

func TestRoundTrip_BlockBoundaries(t *testing.T) {
	const blockSize = 1024
	for _, size := range []int{1, 15, blockSize - 1, blockSize, blockSize + 1, 3 * blockSize, 3*blockSize + 7} {
		t.Run(fmt.Sprintf("size_%d", size), func(t *testing.T) {
			data := testData(size, int64(size))
			encoded := compressData(t, data, WithBlockSize(blockSize), WithJobs(2))

			decoded, err := decompressData(encoded)
			require.NoError(t, err)
			require.Equal(t, data, decoded)
		})
	}
}

func TestWriter_DeterministicAcrossJobs(t *testing.T) {
	data := testData(200*1024, 7)

	var reference []byte
	for _, jobs := range []int{1, 2, 8} {
		encoded := compressData(t, data,
			WithBlockSize(4096),
			WithJobs(jobs),
			WithCompression(format.CompressionZstd),
			WithChecksum(true),
		)

		if reference == nil {
			reference = encoded
			continue
		}
		require.Equal(t, reference, encoded, "jobs=%d", jobs)
	}
}

func TestWriter_SmallWrites(t *testing.T) {
	data := testData(10_000, 3)

	var buf bytes.Buffer
	w, err := NewWriter(&buf, WithBlockSize(256))
	require.NoError(t, err)

	for i := 0; i < len(data); i += 7 {
		_, err := w.Write(data[i:min(i+7, len(data))])
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.Equal(t, 40, w.Blocks())

	require.Equal(t, compressData(t, data, WithBlockSize(256)), buf.Bytes())
}

func TestWriter_ReadFrom(t *testing.T) {
	data := testData(50_000, 4)

	var buf bytes.Buffer
	w, err := NewWriter(&buf, WithBlockSize(4096), WithJobs(2))
	require.NoError(t, err)

	n, err := w.ReadFrom(iotest.HalfReader(bytes.NewReader(data)))
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), n)
	require.NoError(t, w.Close())

	require.Equal(t, compressData(t, data, WithBlockSize(4096)), buf.Bytes())
}

func TestWriter_Flush(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, WithBlockSize(1024))
	require.NoError(t, err)

	_, err = w.Write([]byte("partial block"))
	require.NoError(t, err)
	require.Equal(t, section.HeaderSize, buf.Len())

	require.NoError(t, w.Flush())
	require.Equal(t, 1, w.Blocks())
	require.Greater(t, buf.Len(), section.HeaderSize)

	_, err = w.Write([]byte(" and more"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	decoded, err := decompressData(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, "partial block and more", string(decoded))
}

func TestWriter_RawBlocks(t *testing.T) {
	text := bytes.Repeat([]byte("no machine code here. "), 200)
	encoded := compressData(t, text, WithBlockSize(1024), WithTransforms(format.TransformX86))

	for _, span := range walkBlocks(t, encoded) {
		require.True(t, span.desc.IsRaw(), "block %d", span.desc.Index)
		require.Equal(t, span.desc.RawLength, span.desc.TransformedLength)
	}

	jumpy := testData(4096, 11)
	for i := 0; i+5 < len(jumpy); i += 16 {
		copy(jumpy[i:], []byte{0xE8, 0x10, 0x20, 0x00, 0x00})
	}
	encoded = compressData(t, jumpy, WithBlockSize(4096), WithTransforms(format.TransformX86))
	spans := walkBlocks(t, encoded)
	require.Len(t, spans, 1)
	require.False(t, spans[0].desc.IsRaw())
}

func TestEmptyStream(t *testing.T) {
	for _, checksum := range []bool{false, true} {
		encoded := compressData(t, nil, WithChecksum(checksum))
		require.Len(t, encoded, section.HeaderSize+section.TrailerSize)

		r, err := NewReader(bytes.NewReader(encoded))
		require.NoError(t, err)

		decoded, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Empty(t, decoded)
		require.Equal(t, 0, r.Blocks())
		require.Equal(t, int64(len(encoded)), r.Consumed())
		require.NoError(t, r.Close())
	}
}

func TestWriter_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  WriterOption
		want error
	}{
		{"block size too small", WithBlockSize(8), errs.ErrInvalidBlockSize},
		{"block size unaligned", WithBlockSize(1000), errs.ErrInvalidBlockSize},
		{"block size too large", WithBlockSize(2 << 30), errs.ErrInvalidBlockSize},
		{"zero jobs", WithJobs(0), errs.ErrInvalidJobs},
		{"too many jobs", WithJobs(MaxJobs + 1), errs.ErrInvalidJobs},
		{"no transforms", WithTransforms(), errs.ErrUnknownTransform},
		{"unknown transform", WithTransforms(format.TransformType(9)), errs.ErrUnknownTransform},
		{"unknown codec", WithCompression(format.CompressionType(0)), errs.ErrUnknownCompression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			_, err := NewWriter(&buf, tt.opt)
			require.ErrorIs(t, err, tt.want)
			require.Zero(t, buf.Len(), "nothing is written for an invalid configuration")
		})
	}
}

func TestWriter_Lifecycle(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	_, err = w.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	require.ErrorIs(t, err, errs.ErrStreamClosed)
	require.ErrorIs(t, w.Flush(), errs.ErrStreamClosed)
}

type failingWriter struct {
	limit int
	n     int
}

func (f *failingWriter) Write(p []byte) (int, error) {
	if f.n+len(p) > f.limit {
		return 0, io.ErrClosedPipe
	}
	f.n += len(p)

	return len(p), nil
}

func TestWriter_DestinationError(t *testing.T) {
	_, err := NewWriter(&failingWriter{limit: 0})
	require.ErrorIs(t, err, io.ErrClosedPipe)

	w, err := NewWriter(&failingWriter{limit: section.HeaderSize}, WithBlockSize(64), WithCompression(format.CompressionNone))
	require.NoError(t, err)

	_, err = w.Write(make([]byte, 64*10))
	require.ErrorIs(t, err, io.ErrClosedPipe)

	// the failure is sticky
	_, err = w.Write([]byte{1})
	require.ErrorIs(t, err, io.ErrClosedPipe)
	require.ErrorIs(t, w.Close(), io.ErrClosedPipe)
	require.ErrorIs(t, w.Close(), io.ErrClosedPipe)
}

type shortWriter struct {
	limit int
	n     int
}

func (s *shortWriter) Write(p []byte) (int, error) {
	if s.n+len(p) <= s.limit {
		s.n += len(p)
		return len(p), nil
	}

	n := max(s.limit-s.n, 0)
	s.n += n

	return n, nil
}

func TestWriter_ShortBlockWrite(t *testing.T) {
	dst := &shortWriter{limit: section.HeaderSize + 10}
	w, err := NewWriter(dst, WithBlockSize(64), WithCompression(format.CompressionNone))
	require.NoError(t, err)

	_, err = w.Write(make([]byte, 64*4))
	if err == nil {
		err = w.Close()
	}
	require.ErrorIs(t, err, io.ErrShortWrite)
	require.Equal(t, int64(section.HeaderSize+10), w.Written())
}

func TestWriter_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w, err := NewWriterContext(ctx, io.Discard, WithBlockSize(16), WithJobs(2))
	require.NoError(t, err)

	_, err = w.Write(make([]byte, 16*100))
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, w.Close(), context.Canceled)
}

type recorder struct {
	events []event.Event
}

func (r *recorder) OnEvent(e event.Event) {
	r.events = append(r.events, e)
}

func TestBlockEvents_InOrder(t *testing.T) {
	data := testData(100*1024, 5)

	wr := &recorder{}
	wreg := event.NewRegistry()
	require.True(t, wreg.Add(wr))

	encoded := compressData(t, data, WithBlockSize(1024), WithJobs(8), WithRegistry(wreg))

	rr := &recorder{}
	rreg := event.NewRegistry()
	require.True(t, rreg.Add(rr))

	decoded, err := decompressData(encoded, WithReaderJobs(8), WithReaderRegistry(rreg))
	require.NoError(t, err)
	require.Equal(t, data, decoded)

	spans := walkBlocks(t, encoded)
	for _, rec := range []*recorder{wr, rr} {
		require.Len(t, rec.events, 100)

		var raw int64
		for i, e := range rec.events {
			require.Equal(t, event.KindBlockDone, e.Kind)
			require.Equal(t, i, e.BlockIndex)
			require.Equal(t, int64(spans[i].desc.RawLength), e.RawBytes)
			require.Equal(t, int64(section.BlockDescriptorSize+spans[i].desc.CompressedLength), e.EncodedBytes)
			raw += e.RawBytes
		}
		require.Equal(t, int64(len(data)), raw)
	}
}
