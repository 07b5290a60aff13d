package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, 1024, bb.Cap())
}

func TestByteBuffer_WriteAndReset(t *testing.T) {
	bb := NewByteBuffer(4)

	n, err := bb.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, []byte("hello"), bb.Bytes())

	capBefore := bb.Cap()
	bb.Reset()
	require.Equal(t, 0, bb.Len())
	require.Equal(t, capBefore, bb.Cap())
}

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(16)
	_, _ = bb.Write([]byte("block"))

	var out bytes.Buffer
	n, err := bb.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)
	require.Equal(t, "block", out.String())
}

func TestByteBuffer_Resize(t *testing.T) {
	t.Run("within capacity", func(t *testing.T) {
		bb := NewByteBuffer(16)
		_, _ = bb.Write([]byte("abc"))
		b := bb.Resize(8)
		require.Len(t, b, 8)
		require.Equal(t, []byte("abc"), b[:3])
		require.Equal(t, 16, bb.Cap())
	})

	t.Run("grows and keeps content", func(t *testing.T) {
		bb := NewByteBuffer(2)
		_, _ = bb.Write([]byte("xy"))
		b := bb.Resize(10)
		require.Len(t, b, 10)
		require.Equal(t, []byte("xy"), b[:2])
	})

	t.Run("shrinks", func(t *testing.T) {
		bb := NewByteBuffer(8)
		_, _ = bb.Write([]byte("abcdef"))
		require.Equal(t, []byte("ab"), bb.Resize(2))
	})

	t.Run("negative panics", func(t *testing.T) {
		bb := NewByteBuffer(8)
		require.Panics(t, func() { bb.Resize(-1) })
	})
}

func TestBufferPool(t *testing.T) {
	p := NewBufferPool(64, 128)

	bb := p.Get()
	require.NotNil(t, bb)
	require.Equal(t, 0, bb.Len())
	require.GreaterOrEqual(t, bb.Cap(), 64)

	_, _ = bb.Write([]byte("data"))
	p.Put(bb)

	again := p.Get()
	require.Equal(t, 0, again.Len(), "pooled buffers come back empty")

	require.NotPanics(t, func() { p.Put(nil) })

	big := NewByteBuffer(1024)
	require.NotPanics(t, func() { p.Put(big) })
}
