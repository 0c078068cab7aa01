package osutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMemoryLimit(t *testing.T) {
	for _, tc := range []struct {
		raw      string
		expected uint64
		ok       bool
	}{
		{"536870912\n", 536870912, true},
		{"max\n", 0, false},
		{"9223372036854771712\n", 0, false},
		{"0", 0, false},
		{"garbage", 0, false},
	} {
		limit, ok := parseMemoryLimit(tc.raw)
		assert.Equal(t, tc.ok, ok, tc.raw)
		assert.Equal(t, tc.expected, limit, tc.raw)
	}
}

func TestGetTotalMemory(t *testing.T) {
	assert.NotZero(t, GetTotalMemory())
}
