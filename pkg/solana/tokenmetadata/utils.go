package tokenmetadata

import (
	"crypto/ed25519"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/token-minter/pkg/solana/binary"
)

// decoder reads Borsh values with bounds checks. After the first failure
// every read is a no-op returning the zero value, and err holds the cause.
type decoder struct {
	src    []byte
	offset *int
	err    error

	// invalid is the sentinel wrapped by every decoding failure.
	invalid error
}

func (r *decoder) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *decoder) need(n int, field string) bool {
	if r.err != nil {
		return false
	}
	if len(r.src)-*r.offset < n {
		r.fail(errors.Wrapf(r.invalid, "truncated at %s", field))
		return false
	}
	return true
}

func (r *decoder) getUint8(field string) (v uint8) {
	if r.need(1, field) {
		binary.GetUint8(r.src[*r.offset:], &v, r.offset)
	}
	return v
}

func (r *decoder) getUint16(field string) (v uint16) {
	if r.need(2, field) {
		binary.GetUint16(r.src[*r.offset:], &v, r.offset)
	}
	return v
}

func (r *decoder) getBool(field string) (v bool) {
	if r.need(1, field) {
		if ok := binary.GetBool(r.src[*r.offset:], &v, r.offset); !ok {
			r.fail(errors.Wrapf(r.invalid, "invalid bool at %s", field))
		}
	}
	return v
}

func (r *decoder) getOption(field string) bool {
	if !r.need(binary.OptionTagSize, field) {
		return false
	}

	var tag uint8
	binary.GetUint8(r.src[*r.offset:], &tag, r.offset)
	switch tag {
	case binary.OptionNone:
		return false
	case binary.OptionSome:
		return true
	default:
		r.fail(errors.Wrapf(r.invalid, "invalid option tag %d at %s", tag, field))
		return false
	}
}

func (r *decoder) getString(field string) (v string) {
	if r.need(binary.LengthPrefixSize, field) {
		if ok := binary.GetString(r.src[*r.offset:], &v, r.offset); !ok {
			r.fail(errors.Wrapf(r.invalid, "truncated at %s", field))
		}
	}
	return v
}

// getVecLength reads a vector length and checks the remaining input can hold
// that many elements of elemSize bytes.
func (r *decoder) getVecLength(field string, elemSize int) int {
	if !r.need(binary.LengthPrefixSize, field) {
		return 0
	}

	var n uint32
	binary.GetUint32(r.src[*r.offset:], &n, r.offset)
	if uint64(n)*uint64(elemSize) > uint64(len(r.src)-*r.offset) {
		r.fail(errors.Wrapf(r.invalid, "%s length %d overruns input", field, n))
		return 0
	}
	return int(n)
}

func (r *decoder) getKey(field string) string {
	if !r.need(ed25519.PublicKeySize, field) {
		return ""
	}

	var v ed25519.PublicKey
	binary.GetKey32(r.src[*r.offset:], &v, r.offset)
	return base58.Encode(v)
}

// trimPadding strips the NUL padding the program appends to strings stored in
// metadata accounts.
func trimPadding(v string) string {
	return strings.TrimRight(v, "\x00")
}
