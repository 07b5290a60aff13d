package section

import (
	"fmt"

	"github.com/arloliu/blockpress/endian"
	"github.com/arloliu/blockpress/errs"
)

// Trailer marks the end of a container.
//
// Layout (little-endian):
//
//	0      marker (TrailerMarker)
//	1-3    reserved, zero
//	4-7    block count
//	8-15   total plaintext bytes
//	16-23  xxHash64 of the whole plaintext (zero without checksum)
type Trailer struct {
	// TotalBytes is the number of plaintext bytes in the stream.
	TotalBytes uint64
	// Checksum is the stream digest over the plaintext in block order.
	Checksum uint64
	// BlockCount is the number of blocks written before the trailer.
	BlockCount uint32
}

// Bytes serializes the trailer.
func (t Trailer) Bytes() []byte {
	b := make([]byte, TrailerSize)
	engine := endian.WireEngine()

	b[0] = TrailerMarker
	engine.PutUint32(b[4:8], t.BlockCount)
	engine.PutUint64(b[8:16], t.TotalBytes)
	engine.PutUint64(b[16:24], t.Checksum)

	return b
}

// Parse parses the trailer from exactly TrailerSize bytes.
func (t *Trailer) Parse(data []byte) error {
	if len(data) != TrailerSize {
		return errs.ErrInvalidHeaderSize
	}

	if data[0] != TrailerMarker {
		return fmt.Errorf("%w: marker 0x%02x", errs.ErrInvalidTrailer, data[0])
	}

	if data[1] != 0 || data[2] != 0 || data[3] != 0 {
		return fmt.Errorf("%w: reserved bytes are set", errs.ErrInvalidTrailer)
	}

	engine := endian.WireEngine()
	t.BlockCount = engine.Uint32(data[4:8])
	t.TotalBytes = engine.Uint64(data[8:16])
	t.Checksum = engine.Uint64(data[16:24])

	return nil
}

// Verify compares the trailer with what the decoder observed.
func (t Trailer) Verify(blocks uint32, total uint64, checksum uint64, hasChecksum bool) error {
	if t.BlockCount != blocks {
		return fmt.Errorf("%w: trailer declares %d blocks, read %d", errs.ErrInvalidTrailer, t.BlockCount, blocks)
	}

	if t.TotalBytes != total {
		return fmt.Errorf("%w: trailer declares %d bytes, decoded %d", errs.ErrInvalidTrailer, t.TotalBytes, total)
	}

	if hasChecksum && t.Checksum != checksum {
		return fmt.Errorf("%w: stream checksum 0x%016x, computed 0x%016x", errs.ErrChecksumMismatch, t.Checksum, checksum)
	}

	return nil
}
