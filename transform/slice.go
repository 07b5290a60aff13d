package transform

import "unsafe"

// Slice is a cursor over a caller-owned byte buffer.
//
// Buf is the backing buffer and its length is the capacity available to a
// transform. Index is the read (input) or write (output) position. Length is the
// number of meaningful bytes in Buf; for an output slice it is usually len(Buf).
type Slice struct {
	Buf    []byte
	Index  int
	Length int
}

// NewSlice returns a slice view positioned at the start of buf with Length len(buf).
func NewSlice(buf []byte) *Slice {
	return &Slice{Buf: buf, Length: len(buf)}
}

// Valid reports whether the view is usable: non-nil buffer and
// 0 <= Index <= Length <= len(Buf).
func (s *Slice) Valid() bool {
	if s == nil || s.Buf == nil {
		return false
	}

	return s.Index >= 0 && s.Index <= s.Length && s.Length <= len(s.Buf)
}

// Remaining returns the number of bytes between Index and the end of Buf.
func (s *Slice) Remaining() int {
	return len(s.Buf) - s.Index
}

// Overlaps reports whether the memory reachable through a and b intersects,
// considering each buffer up to its capacity.
func Overlaps(a, b []byte) bool {
	if cap(a) == 0 || cap(b) == 0 {
		return false
	}

	aStart := uintptr(unsafe.Pointer(unsafe.SliceData(a)))
	bStart := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	aEnd := aStart + uintptr(cap(a))
	bEnd := bStart + uintptr(cap(b))

	return aStart < bEnd && bStart < aEnd
}

// checkArgs validates the arguments shared by every Forward/Inverse call.
func checkArgs(src, dst *Slice, count int) bool {
	if !src.Valid() || !dst.Valid() {
		return false
	}

	if Overlaps(src.Buf, dst.Buf) {
		return false
	}

	return count >= 0 && src.Index+count <= src.Length
}
