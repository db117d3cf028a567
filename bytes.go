package synchrophasor

import (
	"encoding/binary"
	"math"
)

// Wire primitives. Every multi-byte field on the wire is big-endian;
// floating-point samples are big-endian IEEE-754 binary32. All access goes
// through these helpers rather than aliasing host memory.

func beUint16(data []byte) uint16 {
	return binary.BigEndian.Uint16(data)
}

func beUint32(data []byte) uint32 {
	return binary.BigEndian.Uint32(data)
}

func beFloat32(data []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(data))
}

func putUint16(data []byte, v uint16) {
	binary.BigEndian.PutUint16(data, v)
}

func putUint32(data []byte, v uint32) {
	binary.BigEndian.PutUint32(data, v)
}

func putFloat32(data []byte, v float32) {
	binary.BigEndian.PutUint32(data, math.Float32bits(v))
}

// interpret24BitAsInt32 sign-extends the low 24 bits of v into an int32.
func interpret24BitAsInt32(v uint32) int32 {
	return int32(v<<8) >> 8
}
