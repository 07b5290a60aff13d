package section

import (
	"testing"

	"github.com/arloliu/blockpress/errs"
	"github.com/arloliu/blockpress/format"
	"github.com/stretchr/testify/require"
)

func TestBlockDescriptor_RoundTrip(t *testing.T) {
	d := BlockDescriptor{
		Index:             42,
		RawLength:         1000,
		TransformedLength: 1010,
		CompressedLength:  500,
		Mode:              NewMode(0x2, 2),
	}

	data := d.Bytes()
	require.Len(t, data, BlockDescriptorSize)
	require.Equal(t, byte(BlockMarker), data[0])

	var parsed BlockDescriptor
	require.NoError(t, parsed.Parse(data))
	require.Equal(t, d, parsed)
	require.False(t, parsed.IsRaw())
	require.Equal(t, uint8(0x2), parsed.SkipFlags())
}

func TestNewMode(t *testing.T) {
	require.Equal(t, uint8(0), NewMode(0, 1))
	require.Equal(t, uint8(ModeRaw|0x1), NewMode(0x1, 1))
	require.Equal(t, uint8(0x1), NewMode(0x1, 2))
	require.Equal(t, uint8(ModeRaw|0x3), NewMode(0x3, 2))
	require.Equal(t, uint8(ModeRaw|0xF), NewMode(0xF, 4))
}

func TestBlockDescriptor_Parse(t *testing.T) {
	t.Run("wrong size", func(t *testing.T) {
		var d BlockDescriptor
		require.ErrorIs(t, d.Parse(make([]byte, 3)), errs.ErrInvalidHeaderSize)
	})

	t.Run("wrong marker", func(t *testing.T) {
		data := BlockDescriptor{Index: 1, RawLength: 1}.Bytes()
		data[0] = 0x00
		var d BlockDescriptor
		require.ErrorIs(t, d.Parse(data), errs.ErrInvalidBlockDescriptor)
	})

	t.Run("reserved mode bits", func(t *testing.T) {
		data := BlockDescriptor{Index: 1, RawLength: 1}.Bytes()
		data[1] = 0x10
		var d BlockDescriptor
		require.ErrorIs(t, d.Parse(data), errs.ErrInvalidBlockDescriptor)
	})
}

func TestBlockDescriptor_Validate(t *testing.T) {
	h := NewStreamHeader(1024, []format.TransformType{format.TransformX86}, format.CompressionS2, false)

	valid := BlockDescriptor{RawLength: 1024, TransformedLength: 1100, CompressedLength: 900}
	require.NoError(t, valid.Validate(h, 1600))

	tests := []struct {
		name string
		d    BlockDescriptor
	}{
		{name: "empty block", d: BlockDescriptor{RawLength: 0}},
		{name: "raw too large", d: BlockDescriptor{RawLength: 2048}},
		{name: "transformed too large", d: BlockDescriptor{RawLength: 10, TransformedLength: 5000}},
		{name: "compressed too large", d: BlockDescriptor{RawLength: 10, TransformedLength: 10, CompressedLength: uint32(MaxCompressedLength(1024) + 1)}},
		{name: "skip flag beyond chain", d: BlockDescriptor{RawLength: 10, TransformedLength: 10, Mode: 0x2}},
		{name: "raw changes length", d: BlockDescriptor{RawLength: 10, TransformedLength: 11, Mode: ModeRaw | 0x1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.d.Validate(h, 1600), errs.ErrInvalidBlockDescriptor)
		})
	}
}
