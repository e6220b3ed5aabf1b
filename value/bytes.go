package value

import (
	"encoding/binary"
	"math"

	"github.com/normano/c5store/errors"
)

// bytesToInt64 requires an exact 1/2/4/8-byte width and interprets the
// bytes as big-endian.
func bytesToInt64(b []byte) (int64, error) {
	u, err := bytesToUint64(b)
	if err != nil {
		return 0, err
	}
	return int64(u), nil
}

func bytesToUint64(b []byte) (uint64, error) {
	switch len(b) {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(b)), nil
	case 8:
		return binary.BigEndian.Uint64(b), nil
	}
	return 0, errors.E(errors.Op("value.bytesToUint64"), errors.ConversionError,
		errors.Errorf("byte length %d does not match an integer width (1, 2, 4, 8)", len(b)))
}

func bytesToFloat64(b []byte) (float64, error) {
	switch len(b) {
	case 4:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(b))), nil
	case 8:
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	}
	return 0, errors.E(errors.Op("value.bytesToFloat64"), errors.ConversionError,
		errors.Errorf("byte length %d does not match a float width (4, 8)", len(b)))
}

// BigEndianBytes encodes an unsigned integer into the given width
// (1, 2, 4, or 8 bytes), big-endian. Used by callers projecting a
// decrypted secret into a fixed-width field.
func BigEndianBytes(u uint64, width int) ([]byte, error) {
	b := make([]byte, width)
	switch width {
	case 1:
		b[0] = byte(u)
	case 2:
		binary.BigEndian.PutUint16(b, uint16(u))
	case 4:
		binary.BigEndian.PutUint32(b, uint32(u))
	case 8:
		binary.BigEndian.PutUint64(b, u)
	default:
		return nil, errors.E(errors.Op("value.BigEndianBytes"), errors.ConversionError,
			errors.Errorf("unsupported integer width %d", width))
	}
	return b, nil
}
