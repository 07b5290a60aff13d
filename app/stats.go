package app

import (
	"time"

	"github.com/arloliu/blockpress/compress"
	"github.com/arloliu/blockpress/format"
)

// RunStats summarizes a finished run.
type RunStats struct {
	RunID        string
	Input        string
	Output       string
	RawBytes     int64 // plaintext bytes
	EncodedBytes int64 // container bytes
	Elapsed      time.Duration
	Blocks       int
	Status       int
	Compression  format.CompressionType
}

// Ratio returns EncodedBytes / RawBytes, or 0 for an empty input.
func (s RunStats) Ratio() float64 {
	return s.compressionStats().CompressionRatio()
}

// SpaceSavings returns the percentage of plaintext size saved by compression.
func (s RunStats) SpaceSavings() float64 {
	return s.compressionStats().SpaceSavings()
}

// Throughput returns the plaintext bytes processed per second.
func (s RunStats) Throughput() float64 {
	if s.Elapsed <= 0 {
		return 0
	}

	return float64(s.RawBytes) / s.Elapsed.Seconds()
}

func (s RunStats) compressionStats() compress.CompressionStats {
	return compress.CompressionStats{
		Algorithm:         s.Compression,
		OriginalSize:      s.RawBytes,
		CompressedSize:    s.EncodedBytes,
		CompressionTimeNs: s.Elapsed.Nanoseconds(),
	}
}
