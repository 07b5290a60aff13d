package transform

// None is the identity transform.
type None struct{}

var _ ByteTransform = (*None)(nil)

// NewNone creates an identity transform.
func NewNone() *None {
	return &None{}
}

// Forward copies count bytes of src into dst.
func (n *None) Forward(src, dst *Slice, count int) bool {
	return copySlice(src, dst, count)
}

// Inverse copies count bytes of src into dst.
func (n *None) Inverse(src, dst *Slice, count int) bool {
	return copySlice(src, dst, count)
}

// MaxEncodedLen returns srcLen.
func (n *None) MaxEncodedLen(srcLen int) int {
	return srcLen
}

func copySlice(src, dst *Slice, count int) bool {
	if !checkArgs(src, dst, count) || dst.Remaining() < count {
		return false
	}

	copy(dst.Buf[dst.Index:], src.Buf[src.Index:src.Index+count])
	src.Index += count
	dst.Index += count

	return true
}
