// Package section defines the binary structures of a blockpress container.
//
// A container is a stream of fixed-layout sections:
//
//	┌──────────────────────────────────────────────┐
//	│ StreamHeader (16 bytes)                      │
//	│  - magic, version, flags                     │
//	│  - coder id, transform chain, block size     │
//	├──────────────────────────────────────────────┤
//	│ BlockDescriptor (18 bytes)  ┐                │
//	│ compressed payload          │ per block,     │
//	│ plaintext checksum (8, opt) ┘ index order    │
//	├──────────────────────────────────────────────┤
//	│ Trailer (24 bytes)                           │
//	│  - block count, total bytes, stream checksum │
//	└──────────────────────────────────────────────┘
//
// All multi-byte fields are little-endian. The format is versioned through the
// header's version byte; decoders reject any version other than FormatVersion.
//
// Types in this package only serialize and validate. Driving the encoder and decoder
// state machines is the job of the stream package.
package section
