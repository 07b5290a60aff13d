// Package hash computes the integrity checksums stored in a blockpress container.
package hash

import "github.com/cespare/xxhash/v2"

// Block computes the xxHash64 checksum of one block's plaintext.
func Block(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Stream accumulates the xxHash64 of the whole plaintext, fed block by block in
// index order. A nil *Stream is valid and ignores all input.
type Stream struct {
	digest *xxhash.Digest
}

// NewStream creates a new stream digest.
func NewStream() *Stream {
	return &Stream{digest: xxhash.New()}
}

// Add feeds the next block of plaintext into the digest.
func (s *Stream) Add(data []byte) {
	if s == nil {
		return
	}

	_, _ = s.digest.Write(data)
}

// Sum returns the digest of all data added so far, or 0 for a nil Stream.
func (s *Stream) Sum() uint64 {
	if s == nil {
		return 0
	}

	return s.digest.Sum64()
}
