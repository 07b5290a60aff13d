package compress

import (
	"fmt"

	"github.com/arloliu/blockpress/errs"
	"github.com/arloliu/blockpress/format"
)

// Compressor is the encode half of an entropy coder.
type Compressor interface {
	// Compress encodes one block of transformed bytes.
	//
	// Compress must accept any input, including incompressible data; the output may
	// be larger than the input but must always be decodable. The returned slice may
	// alias data (see NoOpCompressor), so callers must not modify data while the
	// result is in use.
	Compress(data []byte) ([]byte, error)
}

// Decompressor is the decode half of an entropy coder.
type Decompressor interface {
	// Decompress returns the bytes that were passed to Compress.
	//
	// An error is returned when data is corrupted or was produced by another coder.
	// The returned slice may alias data.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both halves. Built-in codecs are stateless values that are safe
// for concurrent use by multiple block workers.
type Codec interface {
	Compressor
	Decompressor
}

// CompressionStats summarizes a compression run.
type CompressionStats struct {
	// Algorithm identifies the coder used.
	Algorithm format.CompressionType

	// OriginalSize is the number of plaintext bytes.
	OriginalSize int64

	// CompressedSize is the number of bytes written, container overhead included.
	CompressedSize int64

	// CompressionTimeNs is the wall time spent producing the output.
	CompressionTimeNs int64

	// DecompressionTimeNs is the wall time spent decoding, when measured.
	DecompressionTimeNs int64
}

// CompressionRatio returns compressed size / original size, or 0 for empty input.
func (s CompressionStats) CompressionRatio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space saved as a percentage of the original size.
// It is negative when the output is larger than the input.
func (s CompressionStats) SpaceSavings() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return (1.0 - s.CompressionRatio()) * 100.0
}

// CreateCodec creates a new Codec for the given coder id.
//
// Parameters:
//   - compressionType: Coder identifier
//   - target: Description of the caller, used in error messages
//
// Returns:
//   - Codec: New codec instance
//   - error: ErrUnknownCompression for an unknown id
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	case format.CompressionSnappy:
		return NewSnappyCompressor(), nil
	case format.CompressionBrotli:
		return NewBrotliCompressor(), nil
	case format.CompressionDeflate:
		return NewDeflateCompressor(), nil
	default:
		return nil, fmt.Errorf("%w: invalid %s codec %s", errs.ErrUnknownCompression, target, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone:    NewNoOpCompressor(),
	format.CompressionZstd:    NewZstdCompressor(),
	format.CompressionS2:      NewS2Compressor(),
	format.CompressionLZ4:     NewLZ4Compressor(),
	format.CompressionSnappy:  NewSnappyCompressor(),
	format.CompressionBrotli:  NewBrotliCompressor(),
	format.CompressionDeflate: NewDeflateCompressor(),
}

// GetCodec returns the shared built-in Codec for a coder id.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, compressionType)
}
