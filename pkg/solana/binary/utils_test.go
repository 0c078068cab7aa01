package binary

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString_RoundTrip(t *testing.T) {
	for _, v := range []string{"", "MOON", "☉ unicode", string(make([]byte, 300))} {
		buf := make([]byte, StringSize(v))

		var offset int
		PutString(buf, v, &offset)
		assert.Equal(t, len(buf), offset)
		assert.EqualValues(t, len(v), uint32(buf[0])|uint32(buf[1])<<8|uint32(buf[2])<<16|uint32(buf[3])<<24)
		assert.Equal(t, []byte(v), buf[LengthPrefixSize:])

		var actual string
		offset = 0
		require.True(t, GetString(buf, &actual, &offset))
		assert.Equal(t, v, actual)
		assert.Equal(t, len(buf), offset)
	}
}

func TestGetString_Overrun(t *testing.T) {
	buf := []byte{5, 0, 0, 0, 'a', 'b'}

	var actual string
	var offset int
	assert.False(t, GetString(buf, &actual, &offset))
	assert.Equal(t, 0, offset)
}

func TestBoolAndOptionTag(t *testing.T) {
	buf := make([]byte, 4)

	var offset int
	PutBool(buf[offset:], true, &offset)
	PutBool(buf[offset:], false, &offset)
	PutOptionTag(buf[offset:], true, &offset)
	PutOptionTag(buf[offset:], false, &offset)
	assert.Equal(t, []byte{1, 0, 1, 0}, buf)
	assert.Equal(t, 4, offset)

	var v bool
	offset = 0
	require.True(t, GetBool(buf, &v, &offset))
	assert.True(t, v)
	require.True(t, GetBool(buf[offset:], &v, &offset))
	assert.False(t, v)

	assert.False(t, GetBool([]byte{2}, &v, &offset))
}

func TestIntegers_LittleEndian(t *testing.T) {
	buf := make([]byte, 2+4+8)

	var offset int
	PutUint16(buf[offset:], 0x0102, &offset)
	PutUint32(buf[offset:], 0x03040506, &offset)
	PutUint64(buf[offset:], 0x0708090a0b0c0d0e, &offset)
	assert.Equal(t, []byte{2, 1, 6, 5, 4, 3, 0xe, 0xd, 0xc, 0xb, 0xa, 9, 8, 7}, buf)

	var u16 uint16
	var u32 uint32
	var u64 uint64
	offset = 0
	GetUint16(buf[offset:], &u16, &offset)
	GetUint32(buf[offset:], &u32, &offset)
	GetUint64(buf[offset:], &u64, &offset)
	assert.EqualValues(t, 0x0102, u16)
	assert.EqualValues(t, 0x03040506, u32)
	assert.EqualValues(t, 0x0708090a0b0c0d0e, u64)
}

func TestOptionalKey32(t *testing.T) {
	key, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	buf := make([]byte, 2*(4+ed25519.PublicKeySize))

	var offset int
	PutOptionalKey32(buf[offset:], key, &offset, 4)
	PutOptionalKey32(buf[offset:], nil, &offset, 4)
	assert.Equal(t, len(buf), offset)

	var present, absent ed25519.PublicKey
	offset = 0
	GetOptionalKey32(buf[offset:], &present, &offset, 4)
	GetOptionalKey32(buf[offset:], &absent, &offset, 4)
	assert.EqualValues(t, key, present)
	assert.Nil(t, absent)
}
