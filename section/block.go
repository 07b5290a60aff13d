package section

import (
	"fmt"

	"github.com/arloliu/blockpress/endian"
	"github.com/arloliu/blockpress/errs"
)

// BlockDescriptor is the fixed-size prefix of every encoded block.
//
// Layout (little-endian):
//
//	0      marker (BlockMarker)
//	1      mode: bits 0-3 skip flags, bit 7 raw
//	2-5    block index
//	6-9    raw (plaintext) length
//	10-13  transformed length
//	14-17  compressed length
//
// The compressed payload follows, then an 8-byte plaintext checksum when the stream
// header has the checksum flag.
type BlockDescriptor struct {
	// Index is the zero-based sequence number of the block within the stream.
	Index uint32
	// RawLength is the number of plaintext bytes in the block.
	RawLength uint32
	// TransformedLength is the size of the transform chain output fed to the coder.
	TransformedLength uint32
	// CompressedLength is the size of the payload that follows the descriptor.
	CompressedLength uint32
	// Mode packs the skip flags and the raw bit.
	Mode uint8
}

// IsRaw returns whether no transform stage was applied to the block.
func (d BlockDescriptor) IsRaw() bool {
	return d.Mode&ModeRaw != 0
}

// SkipFlags returns the per-stage skip flags (bit i set when stage i declined).
func (d BlockDescriptor) SkipFlags() uint8 {
	return d.Mode & ModeSkipMask
}

// NewMode packs skip flags for a chain of stageCount stages into a mode byte.
// The raw bit is set when every stage was skipped.
func NewMode(skipFlags uint8, stageCount int) uint8 {
	all := uint8(1<<stageCount) - 1
	mode := skipFlags & ModeSkipMask
	if mode&all == all {
		mode |= ModeRaw
	}

	return mode
}

// AppendTo appends the serialized descriptor to dst.
func (d BlockDescriptor) AppendTo(dst []byte) []byte {
	engine := endian.WireEngine()

	dst = append(dst, BlockMarker, d.Mode)
	dst = engine.AppendUint32(dst, d.Index)
	dst = engine.AppendUint32(dst, d.RawLength)
	dst = engine.AppendUint32(dst, d.TransformedLength)
	dst = engine.AppendUint32(dst, d.CompressedLength)

	return dst
}

// Bytes serializes the descriptor.
func (d BlockDescriptor) Bytes() []byte {
	return d.AppendTo(make([]byte, 0, BlockDescriptorSize))
}

// Parse parses the descriptor from exactly BlockDescriptorSize bytes.
// Only structural checks are done here; limits depend on the stream header.
func (d *BlockDescriptor) Parse(data []byte) error {
	if len(data) != BlockDescriptorSize {
		return errs.ErrInvalidHeaderSize
	}

	if data[0] != BlockMarker {
		return fmt.Errorf("%w: marker 0x%02x", errs.ErrInvalidBlockDescriptor, data[0])
	}

	engine := endian.WireEngine()
	d.Mode = data[1]
	d.Index = engine.Uint32(data[2:6])
	d.RawLength = engine.Uint32(data[6:10])
	d.TransformedLength = engine.Uint32(data[10:14])
	d.CompressedLength = engine.Uint32(data[14:18])

	if d.Mode&ModeReserved != 0 {
		return fmt.Errorf("%w: mode 0x%02x", errs.ErrInvalidBlockDescriptor, d.Mode)
	}

	return nil
}

// Validate checks the descriptor against the limits implied by the stream header.
//
// Parameters:
//   - h: Header of the stream the block belongs to
//   - maxTransformed: Largest transform chain output for a full block
func (d BlockDescriptor) Validate(h *StreamHeader, maxTransformed int) error {
	if d.RawLength == 0 || d.RawLength > h.BlockSize {
		return fmt.Errorf("%w: block %d raw length %d", errs.ErrInvalidBlockDescriptor, d.Index, d.RawLength)
	}

	if int64(d.TransformedLength) > int64(maxTransformed) {
		return fmt.Errorf("%w: block %d transformed length %d", errs.ErrInvalidBlockDescriptor, d.Index, d.TransformedLength)
	}

	if int64(d.CompressedLength) > int64(MaxCompressedLength(int(h.BlockSize))) {
		return fmt.Errorf("%w: block %d compressed length %d", errs.ErrInvalidBlockDescriptor, d.Index, d.CompressedLength)
	}

	stages := len(h.Transforms)
	if stages < MaxTransforms && d.SkipFlags()>>stages != 0 {
		return fmt.Errorf("%w: block %d skip flags 0x%x for %d stages", errs.ErrInvalidBlockDescriptor, d.Index, d.SkipFlags(), stages)
	}

	if d.IsRaw() && d.TransformedLength != d.RawLength {
		return fmt.Errorf("%w: raw block %d changes length", errs.ErrInvalidBlockDescriptor, d.Index)
	}

	return nil
}
