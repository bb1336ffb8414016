// Package checksum computes the integrity code attached to checked deliveries.
//
// The code is the reflected CRC-32 (polynomial 0xEDB88320, initial value and
// final xor 0xFFFFFFFF). It detects accidental corruption; it is not a MAC.
package checksum

import (
	"chat-relay/errors"
	"fmt"
	"hash/crc32"
	"strconv"
)

// HexLength is the width of an encoded checksum on the wire.
const HexLength = 8

var table = crc32.MakeTable(crc32.IEEE)

// Checksum returns the CRC-32 of p.
func Checksum(p []byte) uint32 {
	return crc32.Checksum(p, table)
}

// Verify reports whether expected is the checksum of p.
func Verify(p []byte, expected uint32) bool {
	return Checksum(p) == expected
}

// Hex encodes sum as 8 lower-case hex digits.
func Hex(sum uint32) string {
	return fmt.Sprintf("%08x", sum)
}

// ParseHex decodes an 8 digit hex checksum.
func ParseHex(s string) (uint32, error) {
	if len(s) != HexLength {
		return 0, fmt.Errorf("%w: %q", errors.ErrInvalidChecksum, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errors.ErrInvalidChecksum, s)
	}
	return uint32(v), nil
}
