package transform

import (
	"fmt"

	"github.com/arloliu/blockpress/errs"
	"github.com/arloliu/blockpress/format"
	"github.com/arloliu/blockpress/internal/pool"
)

// Sequence is an ordered chain of up to format.MaxTransforms transforms.
//
// Forward applies the stages first to last and Inverse undoes them last to first.
// A stage that declines is recorded in the skip flags (bit i for stage i) and its
// input is passed unchanged to the next stage. Identity stages are always reported
// as skipped, so a block that no stage changed has every flag set.
//
// A Sequence holds no per-call state and is safe for concurrent use.
type Sequence struct {
	types  []format.TransformType
	stages []ByteTransform
}

// NewSequence creates a chain from transform identifiers.
func NewSequence(types []format.TransformType) (*Sequence, error) {
	if len(types) == 0 || len(types) > format.MaxTransforms {
		return nil, fmt.Errorf("%w: chain of %d transforms", errs.ErrUnknownTransform, len(types))
	}

	seq := &Sequence{
		types:  make([]format.TransformType, len(types)),
		stages: make([]ByteTransform, len(types)),
	}
	copy(seq.types, types)

	for i, t := range types {
		stage, err := New(t)
		if err != nil {
			return nil, err
		}
		seq.stages[i] = stage
	}

	return seq, nil
}

// Len returns the number of stages.
func (s *Sequence) Len() int {
	return len(s.stages)
}

// MaxEncodedLen returns the largest output Forward can produce for srcLen bytes.
func (s *Sequence) MaxEncodedLen(srcLen int) int {
	n := srcLen
	for i, stage := range s.stages {
		if s.types[i] == format.TransformNone {
			continue
		}
		n = stage.MaxEncodedLen(n)
	}

	return n
}

// Forward runs every stage over src.
//
// Scratch buffers a and b hold intermediate results and must not share memory with
// src. The returned slice aliases src (when every stage was skipped), a or b; it is
// only valid until the buffers are reused.
func (s *Sequence) Forward(src []byte, a, b *pool.ByteBuffer) ([]byte, uint8) {
	bufs := [2]*pool.ByteBuffer{a, b}
	cur := src
	next := 0
	var skip uint8

	for i, stage := range s.stages {
		if s.types[i] == format.TransformNone || len(cur) == 0 {
			skip |= 1 << i
			continue
		}

		out := bufs[next]
		out.Resize(stage.MaxEncodedLen(len(cur)))

		in := NewSlice(cur)
		dst := NewSlice(out.B)
		if !stage.Forward(in, dst, len(cur)) {
			skip |= 1 << i
			continue
		}

		cur = out.B[:dst.Index]
		next ^= 1
	}

	return cur, skip
}

// Inverse undoes Forward given the skip flags recorded for the block.
//
// rawLen is the expected plaintext size and bounds intermediate allocations. The
// returned slice aliases src, a or b under the same rules as Forward.
func (s *Sequence) Inverse(src []byte, skip uint8, rawLen int, a, b *pool.ByteBuffer) ([]byte, error) {
	bufs := [2]*pool.ByteBuffer{a, b}
	cur := src
	next := 0

	for i := len(s.stages) - 1; i >= 0; i-- {
		if skip&(1<<i) != 0 || s.types[i] == format.TransformNone {
			continue
		}

		out := bufs[next]
		out.Resize(max(len(cur), rawLen))

		in := NewSlice(cur)
		dst := NewSlice(out.B)
		if !s.stages[i].Inverse(in, dst, len(cur)) {
			return nil, fmt.Errorf("%w: inverse %s failed", errs.ErrBlockDecode, s.types[i])
		}

		cur = out.B[:dst.Index]
		next ^= 1
	}

	return cur, nil
}
