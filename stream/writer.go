package stream

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/arloliu/blockpress/compress"
	"github.com/arloliu/blockpress/endian"
	"github.com/arloliu/blockpress/errs"
	"github.com/arloliu/blockpress/event"
	"github.com/arloliu/blockpress/internal/hash"
	"github.com/arloliu/blockpress/internal/options"
	"github.com/arloliu/blockpress/internal/pool"
	"github.com/arloliu/blockpress/section"
	"github.com/arloliu/blockpress/transform"
)

// Writer compresses everything written to it into a blockpress container.
//
// Written data is cut into blocks of the configured size. Each full block is
// transformed and entropy coded by a worker while the caller keeps writing; encoded
// blocks are written to the destination in block order by the goroutine calling
// Write or Close. Close must be called to flush the last block and the trailer.
//
// A Writer is not safe for concurrent use. After any error the Writer is failed: all
// further calls return that error and the output written so far is unusable.
type Writer struct {
	start    time.Time
	dst      io.Writer
	cfg      *WriterConfig
	header   *section.StreamHeader
	seq      *transform.Sequence
	codec    compress.Codec
	buffers  *pool.BufferPool
	pipe     *pipeline
	cur      *pool.ByteBuffer
	digest   *hash.Stream
	err      error
	written  int64
	consumed int64
	blocks   int
	emitted  int
	closed   bool
}

var _ io.WriteCloser = (*Writer)(nil)

// NewWriter creates a Writer that writes a container to dst. The stream header is
// written immediately.
func NewWriter(dst io.Writer, opts ...WriterOption) (*Writer, error) {
	return NewWriterContext(context.Background(), dst, opts...)
}

// NewWriterContext is like NewWriter; cancelling ctx fails the Writer and stops its
// workers.
func NewWriterContext(ctx context.Context, dst io.Writer, opts ...WriterOption) (*Writer, error) {
	cfg := newWriterConfig()
	if err := options.ApplyAndValidate(cfg, opts...); err != nil {
		return nil, err
	}

	seq, err := transform.NewSequence(cfg.transforms)
	if err != nil {
		return nil, err
	}

	codec, err := compress.CreateCodec(cfg.compression, "stream")
	if err != nil {
		return nil, err
	}

	w := &Writer{
		start:   time.Now(),
		dst:     dst,
		cfg:     cfg,
		header:  section.NewStreamHeader(cfg.blockSize, cfg.transforms, cfg.compression, cfg.checksum),
		seq:     seq,
		codec:   codec,
		buffers: pool.NewBufferPool(cfg.blockSize, encodedBlockLimit(cfg.blockSize)),
	}
	if cfg.checksum {
		w.digest = hash.NewStream()
	}

	if err := w.writeRaw(w.header.Bytes()); err != nil {
		return nil, fmt.Errorf("write stream header: %w", err)
	}

	w.pipe = newPipeline(ctx, cfg.jobs, w.encodeBlock, w.releaseTask)

	return w, nil
}

// encodedBlockLimit is the largest serialized block for a block size.
func encodedBlockLimit(blockSize int) int {
	return section.BlockDescriptorSize + section.MaxCompressedLength(blockSize) + section.BlockChecksumSize
}

// Header returns the stream header written at the start of the container.
func (w *Writer) Header() section.StreamHeader {
	return *w.header
}

// Written returns the number of container bytes written to the destination.
func (w *Writer) Written() int64 { return w.written }

// Consumed returns the number of plaintext bytes accepted by Write.
func (w *Writer) Consumed() int64 { return w.consumed }

// Blocks returns the number of blocks written to the destination.
func (w *Writer) Blocks() int { return w.emitted }

// Write buffers p and submits every completed block to the workers. It may block
// while the workers are busy.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}

	if w.closed {
		return 0, errs.ErrStreamClosed
	}

	n := 0
	for len(p) > 0 {
		if w.cur == nil {
			w.cur = w.buffers.Get()
		}

		chunk := min(w.cfg.blockSize-w.cur.Len(), len(p))
		_, _ = w.cur.Write(p[:chunk])
		p = p[chunk:]
		n += chunk
		w.consumed += int64(chunk)

		if w.cur.Len() == w.cfg.blockSize {
			if err := w.submitBlock(); err != nil {
				return n, w.fail(err)
			}
		}
	}

	return n, nil
}

// ReadFrom compresses src until EOF. It implements io.ReaderFrom so that io.Copy
// reads straight into block buffers.
func (w *Writer) ReadFrom(src io.Reader) (int64, error) {
	if w.err != nil {
		return 0, w.err
	}

	if w.closed {
		return 0, errs.ErrStreamClosed
	}

	var total int64
	for {
		if w.cur == nil {
			w.cur = w.buffers.Get()
		}

		filled := w.cur.Len()
		buf := w.cur.Resize(w.cfg.blockSize)
		n, err := src.Read(buf[filled:])
		w.cur.Resize(filled + n)
		total += int64(n)
		w.consumed += int64(n)

		if w.cur.Len() == w.cfg.blockSize {
			if serr := w.submitBlock(); serr != nil {
				return total, w.fail(serr)
			}
		}

		if err == io.EOF {
			return total, nil
		}

		if err != nil {
			return total, w.fail(fmt.Errorf("read input: %w", err))
		}
	}
}

// Flush submits the buffered partial block, if any, and writes every finished block.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}

	if w.closed {
		return errs.ErrStreamClosed
	}

	if w.cur != nil && w.cur.Len() > 0 {
		if err := w.submitBlock(); err != nil {
			return w.fail(err)
		}
	}

	if err := w.pipe.drain(w.emit); err != nil {
		return w.fail(err)
	}

	return nil
}

// Close flushes the last block, waits for every block to be written and writes the
// trailer. It does not close the destination. Close is idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}

	if w.err != nil {
		w.closed = true
		return w.err
	}

	if err := w.Flush(); err != nil {
		w.closed = true
		return err
	}
	w.closed = true

	if w.cur != nil {
		w.buffers.Put(w.cur)
		w.cur = nil
	}

	if err := w.pipe.stop(false); err != nil {
		return w.fail(err)
	}

	trailer := section.Trailer{
		BlockCount: uint32(w.emitted), //nolint:gosec // bounded by submitBlock
		TotalBytes: uint64(w.consumed),
		Checksum:   w.digest.Sum(),
	}
	if err := w.writeRaw(trailer.Bytes()); err != nil {
		return w.fail(fmt.Errorf("write stream trailer: %w", err))
	}

	return nil
}

func (w *Writer) submitBlock() error {
	if w.blocks == math.MaxUint32 {
		return fmt.Errorf("%w: too many blocks", errs.ErrBlockEncode)
	}

	t := &task{index: w.blocks, input: w.cur}
	w.cur = nil
	w.blocks++
	w.digest.Add(t.input.Bytes())

	return w.pipe.submit(t, w.emit)
}

// encodeBlock runs on a worker.
func (w *Writer) encodeBlock(t *task, s *scratch) error {
	plain := t.input.Bytes()
	transformed, skip := w.seq.Forward(plain, s.a, s.b)

	payload, err := w.codec.Compress(transformed)
	if err != nil {
		return fmt.Errorf("%w: block %d: %w", errs.ErrBlockEncode, t.index, err)
	}

	if len(payload) > section.MaxCompressedLength(w.cfg.blockSize) {
		return fmt.Errorf("%w: block %d: payload of %d bytes exceeds the container limit",
			errs.ErrBlockEncode, t.index, len(payload))
	}

	t.desc = section.BlockDescriptor{
		Index:             uint32(t.index),          //nolint:gosec // bounded by submitBlock
		RawLength:         uint32(len(plain)),       //nolint:gosec // at most the block size
		TransformedLength: uint32(len(transformed)), //nolint:gosec // bounded by the chain
		CompressedLength:  uint32(len(payload)),     //nolint:gosec // checked above
		Mode:              section.NewMode(skip, w.seq.Len()),
	}

	out := w.buffers.Get()
	out.B = t.desc.AppendTo(out.B)
	out.B = append(out.B, payload...)
	if w.header.HasChecksum() {
		out.B = endian.WireEngine().AppendUint64(out.B, hash.Block(plain))
	}
	t.output = out

	return nil
}

// emit runs on the driver in block order.
func (w *Writer) emit(t *task) error {
	n, err := t.output.WriteTo(w.dst)
	w.written += n
	if err == nil && n < int64(t.output.Len()) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return fmt.Errorf("write block %d: %w", t.index, err)
	}
	w.emitted++

	w.cfg.registry.Notify(event.Block(t.index, int64(t.desc.RawLength), int64(t.output.Len()), time.Since(w.start)))

	return nil
}

func (w *Writer) releaseTask(t *task) {
	w.buffers.Put(t.input)
	w.buffers.Put(t.output)
	t.input, t.output = nil, nil
}

func (w *Writer) writeRaw(b []byte) error {
	n, err := w.dst.Write(b)
	w.written += int64(n)
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}

	return err
}

// fail records err as the sticky error and tears the workers down.
func (w *Writer) fail(err error) error {
	if w.err == nil {
		w.err = err
	}

	if w.cur != nil {
		w.buffers.Put(w.cur)
		w.cur = nil
	}

	_ = w.pipe.stop(true)

	return w.err
}
