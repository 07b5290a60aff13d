package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
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

// Reader decompresses a blockpress container.
//
// The header is read and validated when the Reader is created. Blocks are read
// ahead and decoded by workers; Read returns their plaintext in block order. io.EOF
// is returned only after the trailer has been read and verified.
//
// A Reader is not safe for concurrent use. After any error the Reader is failed and
// all further calls return that error.
type Reader struct {
	start          time.Time
	src            *bufio.Reader
	cfg            *ReaderConfig
	seq            *transform.Sequence
	codec          compress.Codec
	buffers        *pool.BufferPool
	pipe           *pipeline
	digest         *hash.Stream
	cur            *task
	err            error
	ready          []*task
	header         section.StreamHeader
	trailer        section.Trailer
	consumed       int64
	produced       int64
	decoded        int64
	maxTransformed int
	curPos         int
	blocks         int
	emitted        int
	trailerSeen    bool
	done           bool
	closed         bool
}

var _ io.ReadCloser = (*Reader)(nil)

// NewReader creates a Reader and reads the stream header from src.
func NewReader(src io.Reader, opts ...ReaderOption) (*Reader, error) {
	return NewReaderContext(context.Background(), src, opts...)
}

// NewReaderContext is like NewReader; cancelling ctx fails the Reader and stops its
// workers.
func NewReaderContext(ctx context.Context, src io.Reader, opts ...ReaderOption) (*Reader, error) {
	cfg := newReaderConfig()
	if err := options.ApplyAndValidate(cfg, opts...); err != nil {
		return nil, err
	}

	r := &Reader{
		start: time.Now(),
		src:   bufio.NewReaderSize(src, 64*1024),
		cfg:   cfg,
	}

	buf := make([]byte, section.HeaderSize)
	if err := r.readFull(buf); err != nil {
		return nil, fmt.Errorf("read stream header: %w", err)
	}

	if err := r.header.Parse(buf); err != nil {
		return nil, err
	}

	if int(r.header.BlockSize) > cfg.maxBlockSize {
		return nil, fmt.Errorf("%w: stream block size %d exceeds limit %d",
			errs.ErrInvalidBlockSize, r.header.BlockSize, cfg.maxBlockSize)
	}

	seq, err := transform.NewSequence(r.header.Transforms)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrUnsupportedTransform, err)
	}

	codec, err := compress.CreateCodec(r.header.Compression, "stream")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrUnsupportedCompression, err)
	}

	blockSize := int(r.header.BlockSize)
	r.seq = seq
	r.codec = codec
	r.maxTransformed = seq.MaxEncodedLen(blockSize)
	r.buffers = pool.NewBufferPool(blockSize, encodedBlockLimit(blockSize))
	if r.header.HasChecksum() {
		r.digest = hash.NewStream()
	}
	r.pipe = newPipeline(ctx, cfg.jobs, r.decodeBlock, r.releaseTask)

	return r, nil
}

// Header returns the stream header.
func (r *Reader) Header() section.StreamHeader {
	return r.header
}

// Consumed returns the number of container bytes read from the source.
func (r *Reader) Consumed() int64 { return r.consumed }

// Produced returns the number of plaintext bytes returned by Read.
func (r *Reader) Produced() int64 { return r.produced }

// Blocks returns the number of blocks decoded and delivered in order.
func (r *Reader) Blocks() int { return r.emitted }

// Read reads decompressed data into p.
func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}

	if r.closed {
		return 0, errs.ErrStreamClosed
	}

	if len(p) == 0 {
		return 0, nil
	}

	for {
		if r.cur != nil && r.curPos < r.cur.output.Len() {
			n := copy(p, r.cur.output.B[r.curPos:])
			r.curPos += n
			r.produced += int64(n)

			return n, nil
		}

		r.releaseCurrent()

		if len(r.ready) > 0 {
			r.cur = r.ready[0]
			r.ready[0] = nil
			r.ready = r.ready[1:]
			r.curPos = 0

			continue
		}

		if r.done {
			return 0, io.EOF
		}

		if err := r.fill(); err != nil {
			return 0, r.fail(err)
		}
	}
}

// WriteTo writes the remaining plaintext to dst. It implements io.WriterTo so that
// io.Copy avoids an intermediate buffer.
func (r *Reader) WriteTo(dst io.Writer) (int64, error) {
	var total int64
	for {
		if r.err != nil {
			return total, r.err
		}

		if r.closed {
			return total, errs.ErrStreamClosed
		}

		if r.cur != nil && r.curPos < r.cur.output.Len() {
			n, err := dst.Write(r.cur.output.B[r.curPos:])
			r.curPos += n
			r.produced += int64(n)
			total += int64(n)
			if err != nil {
				return total, err
			}

			continue
		}

		r.releaseCurrent()

		if len(r.ready) > 0 {
			r.cur = r.ready[0]
			r.ready[0] = nil
			r.ready = r.ready[1:]
			r.curPos = 0

			continue
		}

		if r.done {
			return total, nil
		}

		if err := r.fill(); err != nil {
			return total, r.fail(err)
		}
	}
}

// Close stops the workers and releases the block buffers. It does not close the
// source. Close is idempotent and returns nil unless the stream had failed.
func (r *Reader) Close() error {
	if r.closed {
		return r.err
	}
	r.closed = true

	r.releaseCurrent()
	for _, t := range r.ready {
		r.releaseTask(t)
	}
	r.ready = nil

	_ = r.pipe.stop(true)

	return r.err
}

// fill reads and dispatches blocks until at least one decoded block is ready or
// the stream is complete.
func (r *Reader) fill() error {
	for len(r.ready) == 0 {
		for !r.trailerSeen && !r.pipe.full() {
			t, err := r.readBlock()
			if err != nil {
				return err
			}

			if t == nil {
				continue
			}

			if err := r.pipe.submit(t, r.emit); err != nil {
				return err
			}
		}

		if r.pipe.inflight == 0 {
			return r.finish()
		}

		if err := r.pipe.collect(r.emit, true); err != nil {
			return err
		}
	}

	return nil
}

// readBlock reads the next block, or the trailer in which case it returns nil.
func (r *Reader) readBlock() (*task, error) {
	marker, err := r.src.ReadByte()
	if err != nil {
		return nil, truncated(err, "block descriptor")
	}
	r.consumed++

	switch marker {
	case section.TrailerMarker:
		buf := make([]byte, section.TrailerSize)
		buf[0] = marker
		if err := r.readFull(buf[1:]); err != nil {
			return nil, fmt.Errorf("read stream trailer: %w", err)
		}

		if err := r.trailer.Parse(buf); err != nil {
			return nil, err
		}
		r.trailerSeen = true

		return nil, nil
	case section.BlockMarker:
	default:
		return nil, fmt.Errorf("%w: unexpected marker 0x%02x after block %d",
			errs.ErrInvalidBlockDescriptor, marker, r.blocks-1)
	}

	var buf [section.BlockDescriptorSize]byte
	buf[0] = marker
	if err := r.readFull(buf[1:]); err != nil {
		return nil, fmt.Errorf("read block %d descriptor: %w", r.blocks, err)
	}

	var desc section.BlockDescriptor
	if err := desc.Parse(buf[:]); err != nil {
		return nil, err
	}

	if int(desc.Index) != r.blocks {
		return nil, fmt.Errorf("%w: expected block %d, found %d", errs.ErrBlockOutOfOrder, r.blocks, desc.Index)
	}

	if err := desc.Validate(&r.header, r.maxTransformed); err != nil {
		return nil, err
	}

	size := int(desc.CompressedLength)
	if r.header.HasChecksum() {
		size += section.BlockChecksumSize
	}

	in := r.buffers.Get()
	if err := r.readFull(in.Resize(size)); err != nil {
		r.buffers.Put(in)
		return nil, fmt.Errorf("read block %d payload: %w", r.blocks, err)
	}

	t := &task{index: r.blocks, desc: desc, input: in}
	r.blocks++

	return t, nil
}

// decodeBlock runs on a worker.
func (r *Reader) decodeBlock(t *task, s *scratch) error {
	err := r.decodePayload(t, s)
	if err == nil {
		return nil
	}

	// With checksums enabled any damage inside a block is an integrity failure.
	if r.header.HasChecksum() && !errors.Is(err, errs.ErrChecksumMismatch) {
		return fmt.Errorf("%w: block %d: %w", errs.ErrChecksumMismatch, t.index, err)
	}

	return err
}

func (r *Reader) decodePayload(t *task, s *scratch) error {
	payload := t.input.B[:t.desc.CompressedLength]

	transformed, err := r.codec.Decompress(payload)
	if err != nil {
		return fmt.Errorf("%w: block %d: %w", errs.ErrBlockDecode, t.index, err)
	}

	if len(transformed) != int(t.desc.TransformedLength) {
		return fmt.Errorf("%w: block %d: decoded %d bytes, descriptor declares %d",
			errs.ErrBlockDecode, t.index, len(transformed), t.desc.TransformedLength)
	}

	plain := transformed
	if !t.desc.IsRaw() {
		plain, err = r.seq.Inverse(transformed, t.desc.SkipFlags(), int(t.desc.RawLength), s.a, s.b)
		if err != nil {
			return fmt.Errorf("block %d: %w", t.index, err)
		}
	}

	if len(plain) != int(t.desc.RawLength) {
		return fmt.Errorf("%w: block %d: restored %d bytes, descriptor declares %d",
			errs.ErrBlockDecode, t.index, len(plain), t.desc.RawLength)
	}

	if r.header.HasChecksum() {
		want := endian.WireEngine().Uint64(t.input.B[t.desc.CompressedLength:])
		if got := hash.Block(plain); got != want {
			return fmt.Errorf("%w: block %d: stored 0x%016x, computed 0x%016x",
				errs.ErrChecksumMismatch, t.index, want, got)
		}
	}

	out := r.buffers.Get()
	_, _ = out.Write(plain)
	t.output = out

	return nil
}

// emit runs on the driver in block order.
func (r *Reader) emit(t *task) error {
	r.digest.Add(t.output.B)
	r.decoded += int64(t.output.Len())
	r.emitted++

	encoded := int64(section.BlockDescriptorSize + t.input.Len())
	r.cfg.registry.Notify(event.Block(t.index, int64(t.output.Len()), encoded, time.Since(r.start)))

	// keep the output for Read; the pipeline releases the task after emit
	r.ready = append(r.ready, &task{index: t.index, desc: t.desc, output: t.output})
	t.output = nil

	return nil
}

// finish verifies the trailer once every block has been delivered.
func (r *Reader) finish() error {
	blocks := uint32(r.blocks) //nolint:gosec // descriptor indexes are uint32
	if err := r.trailer.Verify(blocks, uint64(r.decoded), r.digest.Sum(), r.header.HasChecksum()); err != nil {
		return err
	}

	if _, err := r.src.Peek(1); err == nil {
		return fmt.Errorf("%w: data after the stream trailer", errs.ErrInvalidTrailer)
	} else if !errors.Is(err, io.EOF) {
		return fmt.Errorf("read after stream trailer: %w", err)
	}

	r.done = true

	return r.pipe.stop(false)
}

func (r *Reader) releaseCurrent() {
	if r.cur != nil {
		r.releaseTask(r.cur)
		r.cur = nil
		r.curPos = 0
	}
}

func (r *Reader) releaseTask(t *task) {
	r.buffers.Put(t.input)
	r.buffers.Put(t.output)
	t.input, t.output = nil, nil
}

func (r *Reader) readFull(buf []byte) error {
	n, err := io.ReadFull(r.src, buf)
	r.consumed += int64(n)
	if err != nil {
		return truncated(err, "stream")
	}

	return nil
}

// truncated maps an unexpected end of input to ErrTruncatedStream.
func truncated(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s ends early", errs.ErrTruncatedStream, what)
	}

	return err
}

func (r *Reader) fail(err error) error {
	if r.err == nil {
		r.err = err
	}

	r.releaseCurrent()
	for _, t := range r.ready {
		r.releaseTask(t)
	}
	r.ready = nil

	_ = r.pipe.stop(true)

	return r.err
}
