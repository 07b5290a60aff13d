package transform

const (
	x86InstructionMask = 0xFE
	x86InstructionJump = 0xE8
	x86Escape          = 0x02
	x86AddressMask     = 0xD5

	// x86Window is the number of trailing bytes that are never rewritten: a candidate
	// opcode needs a full 4-byte operand plus the look-ahead used by the gate.
	x86Window = 8

	// x86GateShift sets the minimum candidate density: count>>x86GateShift jumps,
	// i.e. one per 128 input bytes.
	x86GateShift = 7
)

// X86 rewrites the relative operands of x86 CALL/JMP (E8/E9) instructions into
// absolute, masked form so that repeated calls to the same target produce repeated
// byte patterns.
//
// Bytes 0x00, 0x01 and 0x02 following an opcode are escaped with a 0x02 prefix so
// that Inverse can distinguish them from rewritten operands, whose first byte is the
// operand sign plus one (0x01 or 0x00). Data with too few candidate instructions is
// declined.
type X86 struct{}

var _ ByteTransform = (*X86)(nil)

// NewX86 creates an x86 filter.
func NewX86() *X86 {
	return &X86{}
}

func isX86Opcode(b byte) bool {
	return b&x86InstructionMask == x86InstructionJump
}

// x86Candidates counts opcode bytes whose operand's high byte looks like a short
// signed displacement (0x00 or 0xFF).
func x86Candidates(src []byte) int {
	jumps := 0
	for i := 0; i < len(src)-x86Window; i++ {
		if isX86Opcode(src[i]) && (src[i+4] == 0x00 || src[i+4] == 0xFF) {
			jumps++
		}
	}

	return jumps
}

// Forward encodes count bytes of src into dst.
func (x *X86) Forward(src, dst *Slice, count int) bool {
	if !checkArgs(src, dst, count) {
		return false
	}

	if count == 0 {
		return true
	}

	in := src.Buf[src.Index : src.Index+count]
	if x86Candidates(in) < count>>x86GateShift {
		return false
	}

	out := dst.Buf[dst.Index:]
	end := count - x86Window
	srcIdx, dstIdx := 0, 0

	for srcIdx < end {
		if dstIdx >= len(out) {
			return false
		}

		out[dstIdx] = in[srcIdx]
		srcIdx++
		dstIdx++

		if !isX86Opcode(in[srcIdx-1]) {
			continue
		}

		cur := in[srcIdx]
		if cur == 0x00 || cur == 0x01 || cur == x86Escape {
			if dstIdx+2 > len(out) {
				return false
			}

			out[dstIdx] = x86Escape
			out[dstIdx+1] = cur
			srcIdx++
			dstIdx += 2

			continue
		}

		sgn := in[srcIdx+3]
		if sgn != 0x00 && sgn != 0xFF {
			continue
		}

		if dstIdx+4 > len(out) {
			return false
		}

		addr := int32(uint32(in[srcIdx]) | uint32(in[srcIdx+1])<<8 | uint32(in[srcIdx+2])<<16 | uint32(sgn)<<24)
		addr += int32(srcIdx)

		out[dstIdx] = sgn + 1
		out[dstIdx+1] = x86AddressMask ^ byte(addr>>16)
		out[dstIdx+2] = x86AddressMask ^ byte(addr>>8)
		out[dstIdx+3] = x86AddressMask ^ byte(addr)
		srcIdx += 4
		dstIdx += 4
	}

	tail := count - srcIdx
	if dstIdx+tail > len(out) {
		return false
	}

	copy(out[dstIdx:], in[srcIdx:])
	dstIdx += tail

	src.Index += count
	dst.Index += dstIdx

	return true
}

// Inverse decodes count bytes of src into dst.
func (x *X86) Inverse(src, dst *Slice, count int) bool {
	if !checkArgs(src, dst, count) {
		return false
	}

	if count == 0 {
		return true
	}

	in := src.Buf[src.Index : src.Index+count]
	out := dst.Buf[dst.Index:]
	end := count - x86Window
	srcIdx, dstIdx := 0, 0

	for srcIdx < end {
		if dstIdx >= len(out) {
			return false
		}

		out[dstIdx] = in[srcIdx]
		srcIdx++
		dstIdx++

		if !isX86Opcode(in[srcIdx-1]) {
			continue
		}

		sgn := in[srcIdx]
		if sgn == x86Escape {
			// escaped literal: drop the prefix, the next iteration copies the byte
			srcIdx++

			continue
		}

		if sgn != 0x00 && sgn != 0x01 {
			continue
		}

		if dstIdx+4 > len(out) {
			return false
		}

		addr := int32(uint32(x86AddressMask^in[srcIdx+3]) |
			uint32(x86AddressMask^in[srcIdx+2])<<8 |
			uint32(x86AddressMask^in[srcIdx+1])<<16)
		addr -= int32(dstIdx)

		out[dstIdx] = byte(addr)
		out[dstIdx+1] = byte(addr >> 8)
		out[dstIdx+2] = byte(addr >> 16)
		out[dstIdx+3] = sgn - 1
		srcIdx += 4
		dstIdx += 4
	}

	tail := count - srcIdx
	if dstIdx+tail > len(out) {
		return false
	}

	copy(out[dstIdx:], in[srcIdx:])
	dstIdx += tail

	src.Index += count
	dst.Index += dstIdx

	return true
}

// MaxEncodedLen returns the worst-case encoded size for srcLen bytes.
func (x *X86) MaxEncodedLen(srcLen int) int {
	return srcLen + srcLen/2 + x86Window
}
