package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/blockpress/errs"
	"github.com/arloliu/blockpress/format"
)

func TestLevels(t *testing.T) {
	want := []string{
		"NONE/NONE",
		"NONE/LZ4",
		"NONE/SNAPPY",
		"X86/S2",
		"X86/DEFLATE",
		"X86/ZSTD",
		"X86/BROTLI",
	}

	table := Levels()
	require.Len(t, table, MaxLevel+1)

	for i, l := range table {
		require.Equal(t, i, l.Level)
		require.Equal(t, want[i], l.String())
	}
}

func TestLevels_ReturnsCopy(t *testing.T) {
	table := Levels()
	table[3].Transforms[0] = format.TransformNone
	table[3].Compression = format.CompressionNone

	l, err := LevelFor(3)
	require.NoError(t, err)
	require.Equal(t, "X86/S2", l.String())
}

func TestLevelFor_OutOfRange(t *testing.T) {
	for _, level := range []int{-1, MaxLevel + 1} {
		_, err := LevelFor(level)
		require.ErrorIs(t, err, errs.ErrInvalidConfig)
	}
}
