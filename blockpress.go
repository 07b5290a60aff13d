// Package blockpress compresses byte streams into a block-oriented container.
//
// The input is cut into fixed-size blocks. Every block is filtered by a chain of
// reversible transforms, entropy coded and written with a small descriptor, so
// blocks can be encoded and decoded by a pool of workers while the output stays in
// input order and byte-for-byte identical for any number of workers.
//
// # Core Features
//
//   - Concurrent block pipeline with bounded memory and in-order output
//   - x86 CALL/JMP filter for executable data
//   - Entropy coders: LZ4, Snappy, S2, Deflate, Zstd and Brotli
//   - Optional per-block and whole-stream xxHash64 checksums
//   - Compression levels 0-6 mapping to a transform chain and a coder
//
// # Basic Usage
//
// Compressing and decompressing in memory:
//
//	encoded, _ := blockpress.CompressBytes(data,
//	    stream.WithCompression(format.CompressionZstd),
//	    stream.WithChecksum(true),
//	)
//	decoded, _ := blockpress.DecompressBytes(encoded)
//
// Streaming with a compression level and four workers:
//
//	opts, _ := blockpress.LevelOptions(5)
//	opts = append(opts, stream.WithJobs(4))
//	written, err := blockpress.Compress(dst, src, opts...)
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the stream package.
// The stream package exposes the Writer and Reader types for incremental use; the
// app package implements the file-level orchestration used by the command line.
package blockpress

import (
	"bytes"
	"context"
	"io"

	"github.com/arloliu/blockpress/app"
	"github.com/arloliu/blockpress/stream"
)

// Compress reads src until EOF and writes one container to dst.
//
// It returns the number of container bytes written.
func Compress(dst io.Writer, src io.Reader, opts ...stream.WriterOption) (int64, error) {
	return CompressContext(context.Background(), dst, src, opts...)
}

// CompressContext is like Compress; cancelling ctx stops the block workers.
func CompressContext(ctx context.Context, dst io.Writer, src io.Reader, opts ...stream.WriterOption) (int64, error) {
	w, err := stream.NewWriterContext(ctx, dst, opts...)
	if err != nil {
		return 0, err
	}

	if _, err := w.ReadFrom(src); err != nil {
		_ = w.Close()
		return w.Written(), err
	}

	if err := w.Close(); err != nil {
		return w.Written(), err
	}

	return w.Written(), nil
}

// Decompress reads one container from src and writes the plaintext to dst.
//
// It returns the number of plaintext bytes written. The container trailer is
// verified before Decompress returns successfully.
func Decompress(dst io.Writer, src io.Reader, opts ...stream.ReaderOption) (int64, error) {
	return DecompressContext(context.Background(), dst, src, opts...)
}

// DecompressContext is like Decompress; cancelling ctx stops the block workers.
func DecompressContext(ctx context.Context, dst io.Writer, src io.Reader, opts ...stream.ReaderOption) (int64, error) {
	r, err := stream.NewReaderContext(ctx, src, opts...)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	return r.WriteTo(dst)
}

// CompressBytes compresses data into a new container.
func CompressBytes(data []byte, opts ...stream.WriterOption) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := Compress(&buf, bytes.NewReader(data), opts...); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecompressBytes decompresses a complete container.
func DecompressBytes(data []byte, opts ...stream.ReaderOption) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := Decompress(&buf, bytes.NewReader(data), opts...); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// LevelOptions returns the writer options selecting the transform chain and coder of
// a compression level (0-6).
func LevelOptions(level int) ([]stream.WriterOption, error) {
	l, err := app.LevelFor(level)
	if err != nil {
		return nil, err
	}

	return []stream.WriterOption{
		stream.WithTransforms(l.Transforms...),
		stream.WithCompression(l.Compression),
	}, nil
}
