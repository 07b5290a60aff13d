package app

import (
	"fmt"

	"github.com/arloliu/blockpress/errs"
	"github.com/arloliu/blockpress/format"
)

// DefaultLevel is the level used when neither a level nor an explicit transform or
// codec is configured.
const DefaultLevel = 3

// Level is one entry of the compression level table.
type Level struct {
	Transforms  []format.TransformType
	Level       int
	Compression format.CompressionType
}

// String returns the level as "transform/codec".
func (l Level) String() string {
	return format.FormatTransformChain(l.Transforms) + "/" + l.Compression.String()
}

var levels = [...]Level{
	{Level: 0, Transforms: []format.TransformType{format.TransformNone}, Compression: format.CompressionNone},
	{Level: 1, Transforms: []format.TransformType{format.TransformNone}, Compression: format.CompressionLZ4},
	{Level: 2, Transforms: []format.TransformType{format.TransformNone}, Compression: format.CompressionSnappy},
	{Level: 3, Transforms: []format.TransformType{format.TransformX86}, Compression: format.CompressionS2},
	{Level: 4, Transforms: []format.TransformType{format.TransformX86}, Compression: format.CompressionDeflate},
	{Level: 5, Transforms: []format.TransformType{format.TransformX86}, Compression: format.CompressionZstd},
	{Level: 6, Transforms: []format.TransformType{format.TransformX86}, Compression: format.CompressionBrotli},
}

// MaxLevel is the highest compression level.
const MaxLevel = len(levels) - 1

// Levels returns a copy of the level table, ordered by level.
func Levels() []Level {
	out := make([]Level, len(levels))
	for i, l := range levels {
		out[i] = Level{
			Level:       l.Level,
			Transforms:  append([]format.TransformType(nil), l.Transforms...),
			Compression: l.Compression,
		}
	}

	return out
}

// LevelFor returns the transform chain and codec of a compression level.
func LevelFor(level int) (Level, error) {
	if level < 0 || level > MaxLevel {
		return Level{}, fmt.Errorf("%w: level %d is outside [0, %d]", errs.ErrInvalidConfig, level, MaxLevel)
	}

	return Levels()[level], nil
}
