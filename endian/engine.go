// Package endian provides the byte order engine used by the container codec.
//
// The blockpress container is always little-endian on the wire. The engine type
// combines binary.ByteOrder and binary.AppendByteOrder so section structures can
// either fill fixed-size buffers or append to growing ones.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// WireEngine returns the engine used for every multi-byte field in a container.
func WireEngine() EndianEngine {
	return binary.LittleEndian
}
