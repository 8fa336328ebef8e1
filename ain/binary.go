package ain

import "encoding/binary"

// Little-endian helpers shared by the reader and writer.

func readUint32(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}

func appendUint32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

func appendInt32(buf []byte, v int32) []byte {
	return binary.LittleEndian.AppendUint32(buf, uint32(v))
}

// appendString appends a u32-length-prefixed byte run. The string is
// raw container-encoded text; no transformation is applied.
func appendString(buf []byte, s string) []byte {
	buf = appendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}
