package encoding

import (
	"errors"
	"fmt"
)

const (
	// Separator delimits identifiers inside a composite key. EncodeID never
	// produces this byte.
	Separator byte = 0xFF

	// MaxIDSize is the longest identifier encoding (header + 10 groups).
	MaxIDSize = 11

	groupBits  = 7
	groupMask  = 0x7F
	headerFlag = 0x80
	maxGroups  = 10
)

var (
	ErrInvalidID  = errors.New("invalid identifier encoding")
	ErrInvalidKey = errors.New("invalid composite key")
)

// EncodeID encodes v as a variable-length identifier.
//
// Values below 0x80 are a single byte. Larger values are a header byte
// 0x80|n followed by n 7-bit groups, most significant first. Ordering the
// header by group count keeps encodings of increasing values strictly
// increasing in byte order, which the dictionary relies on when it reads the
// last inverse entry to find the highest assigned id.
func EncodeID(v uint64) []byte {
	return AppendID(make([]byte, 0, idSize(v)), v)
}

// AppendID appends the encoding of v to dst.
func AppendID(dst []byte, v uint64) []byte {
	if v < headerFlag {
		return append(dst, byte(v))
	}

	n := groups(v)
	dst = append(dst, headerFlag|byte(n))
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, byte(v>>(uint(i)*groupBits))&groupMask)
	}
	return dst
}

// DecodeID decodes an identifier that must span all of b.
func DecodeID(b []byte) (uint64, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("%w: empty", ErrInvalidID)
	}

	if b[0] < headerFlag {
		if len(b) != 1 {
			return 0, fmt.Errorf("%w: %d trailing bytes", ErrInvalidID, len(b)-1)
		}
		return uint64(b[0]), nil
	}

	n := int(b[0] &^ headerFlag)
	if n < 2 || n > maxGroups {
		return 0, fmt.Errorf("%w: bad header %#x", ErrInvalidID, b[0])
	}
	if len(b) != n+1 {
		return 0, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidID, n+1, len(b))
	}
	if b[1] == 0 {
		return 0, fmt.Errorf("%w: non-canonical leading group", ErrInvalidID)
	}
	// 64 bits fit 9 full groups plus one bit.
	if n == maxGroups && b[1] > 1 {
		return 0, fmt.Errorf("%w: overflows uint64", ErrInvalidID)
	}

	var v uint64
	for _, g := range b[1:] {
		if g > groupMask {
			return 0, fmt.Errorf("%w: bad group %#x", ErrInvalidID, g)
		}
		v = v<<groupBits | uint64(g)
	}
	return v, nil
}

func groups(v uint64) int {
	n := 1
	for v >>= groupBits; v > 0; v >>= groupBits {
		n++
	}
	return n
}

func idSize(v uint64) int {
	if v < headerFlag {
		return 1
	}
	return groups(v) + 1
}
