//go:build !gozstd || !cgo

package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdMaxDecoded bounds the memory a single frame may claim, so that a corrupt
// frame header cannot trigger a huge allocation. A block payload never exceeds the
// transformed size of a 1 GiB block.
const zstdMaxDecoded = 2 << 30

var (
	zstdEncoders sync.Pool
	zstdDecoders sync.Pool
)

func acquireZstdEncoder() (*zstd.Encoder, error) {
	if enc, ok := zstdEncoders.Get().(*zstd.Encoder); ok {
		return enc, nil
	}

	// frames are single-shot, blocks carry their own checksum
	return zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderCRC(false),
	)
}

func acquireZstdDecoder() (*zstd.Decoder, error) {
	if dec, ok := zstdDecoders.Get().(*zstd.Decoder); ok {
		return dec, nil
	}

	return zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(false),
		zstd.WithDecoderMaxMemory(zstdMaxDecoded),
	)
}

// Compress encodes data as a single zstd frame.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	enc, err := acquireZstdEncoder()
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	out := enc.EncodeAll(data, make([]byte, 0, len(data)/2))
	zstdEncoders.Put(enc)

	return out, nil
}

// Decompress decodes a zstd frame.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dec, err := acquireZstdDecoder()
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	out, err := dec.DecodeAll(data, nil)
	zstdDecoders.Put(dec)

	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}

	return out, nil
}
