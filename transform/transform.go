// Package transform provides the reversible byte transforms applied to each block
// before entropy coding.
//
// A transform reads count bytes from an input Slice and writes its encoding to an
// output Slice. Transforms are stateless: every call is independent, which keeps the
// compressed output identical regardless of how blocks are spread over workers.
//
// Forward may decline by returning false when it judges the data a poor fit. Declining
// is never an error: the caller keeps the original bytes and records the stage as
// skipped. Input and output buffers must not overlap; overlapping views are rejected.
package transform

import (
	"fmt"

	"github.com/arloliu/blockpress/errs"
	"github.com/arloliu/blockpress/format"
)

// ByteTransform is a reversible byte-to-byte filter.
type ByteTransform interface {
	// Forward encodes count bytes of src into dst.
	//
	// On success both cursors advance by the number of bytes consumed and produced.
	// On failure, including a heuristic decline, neither cursor moves and the content
	// of dst past its cursor is unspecified.
	Forward(src, dst *Slice, count int) bool

	// Inverse decodes count bytes of src into dst, with the same cursor rules.
	Inverse(src, dst *Slice, count int) bool

	// MaxEncodedLen returns the output capacity Forward needs for srcLen input bytes.
	MaxEncodedLen(srcLen int) int
}

// New creates the transform identified by t.
func New(t format.TransformType) (ByteTransform, error) {
	switch t {
	case format.TransformNone:
		return NewNone(), nil
	case format.TransformX86:
		return NewX86(), nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownTransform, t)
	}
}
