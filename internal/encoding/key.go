package encoding

import (
	"bytes"
	"fmt"
)

// QuadKeyParts is the number of identifiers in an index key.
const QuadKeyParts = 4

// EncodeQuadKey joins identifiers with Separator. Index keys are built from
// exactly QuadKeyParts ids; the order is decided by the caller.
func EncodeQuadKey(ids ...[]byte) []byte {
	size := len(ids)
	for _, id := range ids {
		size += len(id)
	}

	result := make([]byte, 0, size)
	for i, id := range ids {
		if i > 0 {
			result = append(result, Separator)
		}
		result = append(result, id...)
	}
	return result
}

// EncodePrefix builds a scan prefix from the leading ids of a key. Every id is
// followed by Separator so that a prefix never matches a longer id that starts
// with the same bytes.
func EncodePrefix(ids ...[]byte) []byte {
	size := len(ids)
	for _, id := range ids {
		size += len(id)
	}

	result := make([]byte, 0, size)
	for _, id := range ids {
		result = append(result, id...)
		result = append(result, Separator)
	}
	return result
}

// DecodeQuadKey splits an index key into its QuadKeyParts ids. The returned
// slices alias key.
func DecodeQuadKey(key []byte) ([QuadKeyParts][]byte, error) {
	var parts [QuadKeyParts][]byte

	rest := key
	for i := 0; i < QuadKeyParts-1; i++ {
		idx := bytes.IndexByte(rest, Separator)
		if idx < 0 {
			return parts, fmt.Errorf("%w: %d of %d parts", ErrInvalidKey, i+1, QuadKeyParts)
		}
		parts[i] = rest[:idx]
		rest = rest[idx+1:]
	}
	if bytes.IndexByte(rest, Separator) >= 0 {
		return parts, fmt.Errorf("%w: more than %d parts", ErrInvalidKey, QuadKeyParts)
	}
	parts[QuadKeyParts-1] = rest

	for i, part := range parts {
		if len(part) == 0 {
			return parts, fmt.Errorf("%w: empty part %d", ErrInvalidKey, i)
		}
	}
	return parts, nil
}
