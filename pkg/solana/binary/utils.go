package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

// Size of the length prefix used by Borsh strings and vectors.
const LengthPrefixSize = 4

// Size of the tag byte preceding a Borsh Option<T>.
const OptionTagSize = 1

const (
	OptionNone uint8 = 0
	OptionSome uint8 = 1
)

func PutKey32(dst []byte, src []byte, offset *int) {
	copy(dst, src)
	*offset += ed25519.PublicKeySize
}

// PutOptionalKey32 writes a COption<Pubkey>, where the tag occupies optionSize
// bytes and the key slot is always reserved.
func PutOptionalKey32(dst []byte, src []byte, offset *int, optionSize int) {
	if len(src) > 0 {
		dst[0] = 1
		copy(dst[optionSize:], src)
	}

	*offset += optionSize + ed25519.PublicKeySize
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst, v)
	*offset += 8
}

func PutUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst, v)
	*offset += 4
}

func PutUint16(dst []byte, v uint16, offset *int) {
	binary.LittleEndian.PutUint16(dst, v)
	*offset += 2
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[0] = v
	*offset += 1
}

func PutBool(dst []byte, v bool, offset *int) {
	if v {
		dst[0] = 1
	} else {
		dst[0] = 0
	}
	*offset += 1
}

// PutString writes a Borsh string: a u32 little endian byte length followed by
// the raw UTF-8 bytes.
func PutString(dst []byte, v string, offset *int) {
	binary.LittleEndian.PutUint32(dst, uint32(len(v)))
	copy(dst[LengthPrefixSize:], v)
	*offset += LengthPrefixSize + len(v)
}

// PutVecLength writes the u32 little endian element count of a Borsh vector.
func PutVecLength(dst []byte, n int, offset *int) {
	PutUint32(dst, uint32(n), offset)
}

// PutOptionTag writes the single tag byte of a Borsh Option<T>. The caller
// writes the payload afterwards when present is true.
func PutOptionTag(dst []byte, present bool, offset *int) {
	if present {
		dst[0] = OptionSome
	} else {
		dst[0] = OptionNone
	}
	*offset += OptionTagSize
}

// StringSize is the encoded size of a Borsh string.
func StringSize(v string) int {
	return LengthPrefixSize + len(v)
}

func GetKey32(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src)
	*offset += ed25519.PublicKeySize
}

func GetOptionalKey32(src []byte, dst *ed25519.PublicKey, offset *int, optionSize int) {
	if src[0] == 1 {
		*dst = make([]byte, ed25519.PublicKeySize)
		copy(*dst, src[optionSize:])
	}
	*offset += optionSize + ed25519.PublicKeySize
}

func GetUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src)
	*offset += 8
}

func GetUint32(src []byte, dst *uint32, offset *int) {
	*dst = binary.LittleEndian.Uint32(src)
	*offset += 4
}

func GetUint16(src []byte, dst *uint16, offset *int) {
	*dst = binary.LittleEndian.Uint16(src)
	*offset += 2
}

func GetUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[0]
	*offset += 1
}

// GetBool reads a single byte boolean. Only 0 and 1 are valid; ok is false
// for any other value.
func GetBool(src []byte, dst *bool, offset *int) (ok bool) {
	switch src[0] {
	case 0:
		*dst = false
	case 1:
		*dst = true
	default:
		return false
	}
	*offset += 1
	return true
}

// GetString reads a Borsh string. The caller must ensure src holds at least
// the length prefix; ok is false if the declared length overruns src.
func GetString(src []byte, dst *string, offset *int) (ok bool) {
	n := binary.LittleEndian.Uint32(src)
	if uint64(len(src)-LengthPrefixSize) < uint64(n) {
		return false
	}
	*dst = string(src[LengthPrefixSize : LengthPrefixSize+int(n)])
	*offset += LengthPrefixSize + int(n)
	return true
}
