package section

import (
	"fmt"

	"github.com/arloliu/blockpress/endian"
	"github.com/arloliu/blockpress/errs"
	"github.com/arloliu/blockpress/format"
)

// StreamHeader is the fixed-size header written once at the start of a container.
//
// Layout (little-endian):
//
//	0-3   magic number
//	4     format version
//	5     flags (bit 0: checksum)
//	6     coder id
//	7     transform count (1..4)
//	8-11  transform ids, one per stage, unused slots zero
//	12-15 block size
type StreamHeader struct {
	// Transforms is the transform chain applied to every block, in forward order.
	Transforms []format.TransformType
	// BlockSize is the maximum number of plaintext bytes in one block.
	BlockSize uint32
	// Version is the container format version.
	Version uint8
	// Flags is a packed field for header options.
	Flags uint8
	// Compression is the entropy coder applied after the transform chain.
	Compression format.CompressionType
}

// NewStreamHeader creates a header for the current format version.
func NewStreamHeader(blockSize int, transforms []format.TransformType, compression format.CompressionType, checksum bool) *StreamHeader {
	h := &StreamHeader{
		Transforms:  append([]format.TransformType(nil), transforms...),
		BlockSize:   uint32(blockSize), //nolint:gosec // validated by the caller
		Version:     FormatVersion,
		Compression: compression,
	}
	h.SetChecksum(checksum)

	return h
}

// HasChecksum returns whether blocks carry a checksum.
func (h *StreamHeader) HasChecksum() bool {
	return h.Flags&FlagChecksum != 0
}

// SetChecksum enables or disables the checksum flag.
func (h *StreamHeader) SetChecksum(enabled bool) {
	if enabled {
		h.Flags |= FlagChecksum
	} else {
		h.Flags &^= FlagChecksum
	}
}

// Validate checks every header field against the values this version supports.
func (h *StreamHeader) Validate() error {
	if h.Version != FormatVersion {
		return fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, h.Version)
	}

	if h.Flags&FlagReservedMask != 0 {
		return fmt.Errorf("%w: 0x%02x", errs.ErrInvalidHeaderFlags, h.Flags)
	}

	if !h.Compression.IsValid() {
		return fmt.Errorf("%w: 0x%02x", errs.ErrUnsupportedCompression, uint8(h.Compression))
	}

	if len(h.Transforms) == 0 || len(h.Transforms) > MaxTransforms {
		return fmt.Errorf("%w: %d transforms", errs.ErrUnsupportedTransform, len(h.Transforms))
	}

	for _, t := range h.Transforms {
		if !t.IsValid() {
			return fmt.Errorf("%w: 0x%02x", errs.ErrUnsupportedTransform, uint8(t))
		}
	}

	return ValidateBlockSize(int(h.BlockSize))
}

// Bytes serializes the header.
func (h *StreamHeader) Bytes() []byte {
	b := make([]byte, HeaderSize)
	engine := endian.WireEngine()

	engine.PutUint32(b[0:4], MagicNumber)
	b[4] = h.Version
	b[5] = h.Flags
	b[6] = uint8(h.Compression)
	b[7] = uint8(len(h.Transforms)) //nolint:gosec // at most MaxTransforms
	for i, t := range h.Transforms {
		if i >= MaxTransforms {
			break
		}
		b[transformOffset+i] = uint8(t)
	}
	engine.PutUint32(b[blockSizeOffset:blockSizeOffset+4], h.BlockSize)

	return b
}

// Parse parses and validates the header from exactly HeaderSize bytes.
func (h *StreamHeader) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	engine := endian.WireEngine()
	if magic := engine.Uint32(data[0:4]); magic != MagicNumber {
		return fmt.Errorf("%w: 0x%08x", errs.ErrInvalidMagic, magic)
	}

	h.Version = data[4]
	h.Flags = data[5]
	h.Compression = format.CompressionType(data[6])

	count := int(data[7])
	if count == 0 || count > MaxTransforms {
		return fmt.Errorf("%w: %d transforms", errs.ErrUnsupportedTransform, count)
	}

	h.Transforms = make([]format.TransformType, count)
	for i := 0; i < count; i++ {
		h.Transforms[i] = format.TransformType(data[transformOffset+i])
	}

	for i := count; i < MaxTransforms; i++ {
		if data[transformOffset+i] != 0 {
			return fmt.Errorf("%w: unused transform slot %d is set", errs.ErrInvalidHeaderFlags, i)
		}
	}

	h.BlockSize = engine.Uint32(data[blockSizeOffset : blockSizeOffset+4])

	return h.Validate()
}

// ParseStreamHeader parses a StreamHeader from the start of data.
func ParseStreamHeader(data []byte) (StreamHeader, error) {
	if len(data) < HeaderSize {
		return StreamHeader{}, errs.ErrInvalidHeaderSize
	}

	h := StreamHeader{}
	if err := h.Parse(data[:HeaderSize]); err != nil {
		return StreamHeader{}, err
	}

	return h, nil
}

// ValidateBlockSize checks that size is within limits and properly aligned.
func ValidateBlockSize(size int) error {
	if size < MinBlockSize || size > MaxBlockSize {
		return fmt.Errorf("%w: %d is outside [%d, %d]", errs.ErrInvalidBlockSize, size, MinBlockSize, MaxBlockSize)
	}

	if size%BlockSizeAlignment != 0 {
		return fmt.Errorf("%w: %d is not a multiple of %d", errs.ErrInvalidBlockSize, size, BlockSizeAlignment)
	}

	return nil
}
