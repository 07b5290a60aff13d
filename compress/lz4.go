package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4.Compressor keeps a hash table that is worth reusing.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// lz4MaxDecodedSize caps the adaptive decode buffer. It matches section.MaxBlockSize.
const lz4MaxDecodedSize = 1 << 30

// LZ4Compressor provides LZ4 block coding.
//
// LZ4 blocks do not record their decoded size, so Decompress grows its output
// buffer until the block fits.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 codec.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress encodes data as one LZ4 block.
//
// Incompressible input makes CompressBlock report zero bytes; such data is stored
// as a single literal run, which is still a valid LZ4 block.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}

	if n == 0 {
		return appendLZ4Literals(dst[:0], data), nil
	}

	return dst[:n], nil
}

// appendLZ4Literals writes data as a block made of one literal-only sequence.
func appendLZ4Literals(dst, data []byte) []byte {
	n := len(data)
	if n < 15 {
		dst = append(dst, byte(n<<4))
	} else {
		dst = append(dst, 0xF0)
		for rest := n - 15; ; rest -= 255 {
			if rest < 255 {
				dst = append(dst, byte(rest))
				break
			}
			dst = append(dst, 0xFF)
		}
	}

	return append(dst, data...)
}

// Decompress decodes one LZ4 block.
//
// The output buffer starts at 4x the input size and doubles on
// ErrInvalidSourceShortBuffer up to lz4MaxDecodedSize.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	bufSize := max(len(data)*4, 64)
	for {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err == nil {
			return buf[:n], nil
		}

		if !errors.Is(err, lz4.ErrInvalidSourceShortBuffer) || bufSize >= lz4MaxDecodedSize {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}

		bufSize = min(bufSize*2, lz4MaxDecodedSize)
	}
}
