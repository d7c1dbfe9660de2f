package ppk

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
)

// lengthPrefixSize is the size of the big-endian field length prefix.
const lengthPrefixSize = 4

// PackFields packs byte-string fields into one buffer laid out as
// [uint32 big-endian length][bytes] per field.
func PackFields(fields ...[]byte) ([]byte, error) {
	size := 0
	for i, f := range fields {
		if uint64(len(f)) > math.MaxUint32 {
			return nil, newFormatError("pack", fmt.Sprintf("field %d", i), ErrFieldTooLarge)
		}
		size += lengthPrefixSize + len(f)
	}

	out := make([]byte, 0, size)
	for _, f := range fields {
		out = binary.BigEndian.AppendUint32(out, uint32(len(f)))
		out = append(out, f...)
	}
	return out, nil
}

// UnpackFields reads count length-prefixed fields from buf.
// Bytes after the last field are ignored; encrypted private blobs carry padding there.
// The returned slices alias buf.
func UnpackFields(buf []byte, count int) ([][]byte, error) {
	fields := make([][]byte, 0, count)
	rest := buf
	for i := 0; i < count; i++ {
		if len(rest) < lengthPrefixSize {
			return nil, newFormatError("unpack", fmt.Sprintf("field %d", i), ErrTruncatedBuffer)
		}
		n := binary.BigEndian.Uint32(rest)
		rest = rest[lengthPrefixSize:]
		if uint64(n) > uint64(len(rest)) {
			return nil, newFormatError("unpack", fmt.Sprintf("field %d", i),
				fmt.Errorf("%w: declared %d bytes, %d available", ErrTruncatedBuffer, n, len(rest)))
		}
		fields = append(fields, rest[:n])
		rest = rest[n:]
	}
	return fields, nil
}

// EncodeMPInt returns the minimal big-endian encoding of a non-negative
// integer, with a leading zero byte when the high bit would otherwise be set.
// Zero encodes as an empty string.
func EncodeMPInt(x *big.Int) []byte {
	b := x.Bytes()
	if len(b) > 0 && b[0]&0x80 != 0 {
		return append([]byte{0}, b...)
	}
	return b
}

// DecodeMPInt interprets b as an unsigned big-endian integer.
func DecodeMPInt(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}
