// Package compress provides the entropy coders applied to each block after the
// transform chain.
//
// # Overview
//
// A coder turns the transformed bytes of one block into a payload and back. Each
// block is coded independently, so every coder here is stateless from the caller's
// point of view; internal encoders and decoders are pooled for reuse.
//
// # Interfaces
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// Decompress(Compress(x)) must return x for every input. Compress never fails on
// well-formed input; incompressible data may grow but stays decodable.
//
// # Built-in coders
//
//   - NONE (format.CompressionNone): pass-through, output aliases the input
//   - LZ4 (format.CompressionLZ4): fastest decoding, moderate ratio
//   - SNAPPY (format.CompressionSnappy): fast, moderate ratio
//   - S2 (format.CompressionS2): Snappy extension with better speed and ratio
//   - DEFLATE (format.CompressionDeflate): raw RFC 1951 stream
//   - ZSTD (format.CompressionZstd): high ratio, fast decoding
//   - BROTLI (format.CompressionBrotli): highest ratio, slowest
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//
//	payload, err := codec.Compress(block)
//	if err != nil {
//	    return err
//	}
//
//	original, err := codec.Decompress(payload)
//
// GetCodec returns shared instances; CreateCodec returns a new one.
//
// # Build tags
//
// ZSTD uses github.com/klauspost/compress/zstd by default. Building with
// -tags gozstd on a cgo-enabled toolchain selects github.com/valyala/gozstd.
package compress
