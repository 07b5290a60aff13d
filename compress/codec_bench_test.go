package compress

import (
	"fmt"
	"testing"

	"github.com/arloliu/blockpress/format"
)

// generateBenchmarkData creates block-sized data with the given compressibility.
func generateBenchmarkData(size int, compressibility string) []byte {
	data := make([]byte, size)

	switch compressibility {
	case "compressible":
		pattern := []byte("CALL 0x00401000; MOV EAX, [EBP+8]; RET; ")
		for i := range data {
			data[i] = pattern[i%len(pattern)]
		}
	case "semi_compressible":
		for i := range data {
			if i%100 < 50 {
				data[i] = byte(i % 256)
			} else {
				data[i] = byte((i*7 + i*i) % 256)
			}
		}
	default:
		for i := range data {
			data[i] = byte((i*31 + i*i*7 + i*i*i*3) % 256)
		}
	}

	return data
}

func BenchmarkCodecs(b *testing.B) {
	sizes := []int{64 * 1024, 1024 * 1024}
	kinds := []string{"compressible", "semi_compressible", "incompressible"}

	for _, ct := range allCompressionTypes {
		codec, err := GetCodec(ct)
		if err != nil {
			b.Fatal(err)
		}

		for _, size := range sizes {
			for _, kind := range kinds {
				data := generateBenchmarkData(size, kind)
				name := fmt.Sprintf("%s/%dKB/%s", ct, size/1024, kind)

				b.Run(name+"/compress", func(b *testing.B) {
					b.SetBytes(int64(size))
					b.ReportAllocs()

					b.ResetTimer()

					for n := 0; n < b.N; n++ {
						if _, err := codec.Compress(data); err != nil {
							b.Fatal(err)
						}
					}
				})

				compressed, err := codec.Compress(data)
				if err != nil {
					b.Fatal(err)
				}

				b.Run(name+"/decompress", func(b *testing.B) {
					b.SetBytes(int64(size))
					b.ReportAllocs()

					b.ResetTimer()

					for n := 0; n < b.N; n++ {
						if _, err := codec.Decompress(compressed); err != nil {
							b.Fatal(err)
						}
					}
				})
			}
		}
	}
}

func BenchmarkZstd_Parallel(b *testing.B) {
	codec, _ := GetCodec(format.CompressionZstd)
	data := generateBenchmarkData(256*1024, "compressible")

	b.SetBytes(int64(len(data)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := codec.Compress(data); err != nil {
				b.Error(err)
			}
		}
	})
}
