// Package format defines the identifiers stored in a blockpress container.
//
// Identifiers are single bytes on the wire. Zero is never a valid identifier so that
// unused header slots can be left as zero.
package format

import (
	"fmt"
	"strings"

	"github.com/arloliu/blockpress/errs"
)

type (
	TransformType   uint8
	CompressionType uint8
)

const (
	TransformNone TransformType = 0x1 // TransformNone represents the identity transform.
	TransformX86  TransformType = 0x2 // TransformX86 represents the x86 relative jump filter.

	CompressionNone    CompressionType = 0x1 // CompressionNone represents no entropy coding.
	CompressionZstd    CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2      CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4     CompressionType = 0x4 // CompressionLZ4 represents LZ4 block compression.
	CompressionSnappy  CompressionType = 0x5 // CompressionSnappy represents Snappy block compression.
	CompressionBrotli  CompressionType = 0x6 // CompressionBrotli represents Brotli compression.
	CompressionDeflate CompressionType = 0x7 // CompressionDeflate represents raw deflate compression.
)

// MaxTransforms is the maximum number of stages in a transform chain.
const MaxTransforms = 4

func (t TransformType) String() string {
	switch t {
	case TransformNone:
		return "NONE"
	case TransformX86:
		return "X86"
	default:
		return "Unknown"
	}
}

// IsValid reports whether t is a known transform identifier.
func (t TransformType) IsValid() bool {
	return t == TransformNone || t == TransformX86
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "NONE"
	case CompressionZstd:
		return "ZSTD"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionSnappy:
		return "SNAPPY"
	case CompressionBrotli:
		return "BROTLI"
	case CompressionDeflate:
		return "DEFLATE"
	default:
		return "Unknown"
	}
}

// IsValid reports whether c is a known coder identifier.
func (c CompressionType) IsValid() bool {
	return c >= CompressionNone && c <= CompressionDeflate
}

// ParseTransformType parses a single transform name (case-insensitive).
func ParseTransformType(name string) (TransformType, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "NONE", "":
		return TransformNone, nil
	case "X86":
		return TransformX86, nil
	default:
		return 0, fmt.Errorf("%w: %q", errs.ErrUnknownTransform, name)
	}
}

// ParseTransformChain parses a '+' separated list of transform names such as "X86+NONE".
//
// NONE entries are dropped from a chain that contains other transforms, so the
// result is either exactly [TransformNone] or a list of non-identity stages.
func ParseTransformChain(chain string) ([]TransformType, error) {
	parts := strings.Split(chain, "+")
	if len(parts) > MaxTransforms {
		return nil, fmt.Errorf("%w: too many transforms in %q, max %d", errs.ErrUnknownTransform, chain, MaxTransforms)
	}

	types := make([]TransformType, 0, len(parts))
	for _, part := range parts {
		t, err := ParseTransformType(part)
		if err != nil {
			return nil, err
		}

		if t != TransformNone {
			types = append(types, t)
		}
	}

	if len(types) == 0 {
		types = append(types, TransformNone)
	}

	return types, nil
}

// FormatTransformChain returns the canonical '+' separated name of a chain.
func FormatTransformChain(types []TransformType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}

	return strings.Join(names, "+")
}

// ParseCompressionType parses a coder name (case-insensitive).
func ParseCompressionType(name string) (CompressionType, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "NONE", "":
		return CompressionNone, nil
	case "ZSTD":
		return CompressionZstd, nil
	case "S2":
		return CompressionS2, nil
	case "LZ4":
		return CompressionLZ4, nil
	case "SNAPPY":
		return CompressionSnappy, nil
	case "BROTLI":
		return CompressionBrotli, nil
	case "DEFLATE":
		return CompressionDeflate, nil
	default:
		return 0, fmt.Errorf("%w: %q", errs.ErrUnknownCompression, name)
	}
}
