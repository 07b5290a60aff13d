package compress

// ZstdCompressor provides Zstandard coding.
//
// The default build uses the pure Go encoder from klauspost/compress with pooled
// encoders and decoders. Building with the gozstd tag (and cgo enabled) switches to
// the libzstd binding from valyala/gozstd. Both produce standard zstd frames, so
// streams written by one build decode with the other.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd codec.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
