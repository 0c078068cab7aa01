package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// MaxEncodedLen is the longest encoding of a u16 length.
const MaxEncodedLen = 3

var ErrLenTooLarge = errors.Errorf("len exceeds %d", math.MaxUint16)

// EncodeLen writes n in compact-u16 form: 7 bits per byte, low bits first,
// with the high bit set on every byte but the last.
func EncodeLen(w io.ByteWriter, n int) (written int, err error) {
	if n < 0 || n > math.MaxUint16 {
		return 0, ErrLenTooLarge
	}

	for {
		v := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			v |= 0x80
		}

		if err := w.WriteByte(v); err != nil {
			return written, err
		}
		written++

		if n == 0 {
			return written, nil
		}
	}
}

// DecodeLen reads a compact-u16 length.
func DecodeLen(r io.ByteReader) (int, error) {
	var val int
	for i := 0; i < MaxEncodedLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}

		val |= int(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return val, nil
		}
	}

	return 0, errors.Errorf("invalid size: more than %d bytes", MaxEncodedLen)
}
