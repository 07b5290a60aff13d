package section

import "github.com/arloliu/blockpress/format"

const (
	// MagicNumber identifies a blockpress container ("BLKP" as little-endian bytes).
	MagicNumber uint32 = 0x504B4C42
	// FormatVersion is the only container version this package reads and writes.
	FormatVersion uint8 = 1

	// Header flag bits
	FlagChecksum     = 0x01 // Flag bit 0: per-block and stream checksums present
	FlagReservedMask = 0xFE // Bits 1-7: reserved, must be zero

	// Block descriptor markers
	BlockMarker   = 0xB1 // BlockMarker starts a block descriptor
	TrailerMarker = 0xE0 // TrailerMarker starts the stream trailer

	// Block mode bits
	ModeSkipMask = 0x0F // Bits 0-3: per-stage skip flags (1 = stage declined)
	ModeRaw      = 0x80 // Bit 7: no transform stage was applied
	ModeReserved = 0x70 // Bits 4-6: reserved, must be zero
)

// offsets and section sizes in the container
const (
	HeaderSize          = 16 // fixed stream header size in bytes
	BlockDescriptorSize = 18 // fixed part of a block descriptor in bytes
	BlockChecksumSize   = 8  // xxHash64 trailing each block when checksums are enabled
	TrailerSize         = 24 // fixed trailer size in bytes
	MaxTransforms       = format.MaxTransforms
	MinBlockSize        = 16      // minimum block size in bytes
	MaxBlockSize        = 1 << 30 // maximum block size in bytes (1 GiB)
	BlockSizeAlignment  = 16      // block size must be a multiple of this value

	compressedLengthSlack = 4096 // allowed coder overhead beyond 2x block size
	transformOffset       = 8    // header offset of the transform id slots
	blockSizeOffset       = 12   // header offset of the block size
)

// MaxCompressedLength returns the largest compressed payload a decoder accepts for
// the given block size.
func MaxCompressedLength(blockSize int) int {
	return 2*blockSize + compressedLengthSlack
}
