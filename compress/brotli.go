package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/andybalholm/brotli"
)

const brotliQuality = 6

var brotliWriterPool = sync.Pool{
	New: func() any {
		return brotli.NewWriterLevel(nil, brotliQuality)
	},
}

// BrotliCompressor provides Brotli coding. It trades speed for the best ratio of
// the built-in coders.
type BrotliCompressor struct{}

var _ Codec = (*BrotliCompressor)(nil)

// NewBrotliCompressor creates a new Brotli codec.
func NewBrotliCompressor() BrotliCompressor {
	return BrotliCompressor{}
}

// Compress encodes data as one Brotli stream.
func (c BrotliCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data)/2 + 64)

	w, _ := brotliWriterPool.Get().(*brotli.Writer)
	defer brotliWriterPool.Put(w)
	w.Reset(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("brotli compression failed: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("brotli compression failed: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress decodes one Brotli stream.
func (c BrotliCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("brotli decompression failed: %w", err)
	}

	return decoded, nil
}
