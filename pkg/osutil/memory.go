package osutil

import (
	"os"
	"strconv"
	"strings"

	"github.com/pbnjay/memory"
)

const (
	// This is the default value for cgroup's limit_in_bytes. This is not a
	// valid value and indicates that the memory is not restricted.
	// See https://unix.stackexchange.com/questions/420906/what-is-the-value-for-the-cgroups-limit-in-bytes-if-the-memory-is-not-restricte
	unrestrictedMemoryLimit = 9223372036854771712
)

var memoryLimitLocations = []string{
	// cgroup v2
	"/sys/fs/cgroup/memory.max",
	// cgroup v1
	"/sys/fs/cgroup/memory/memory.limit_in_bytes",
}

// GetTotalMemory returns the total available memory size. The call is
// container-aware.
func GetTotalMemory() uint64 {
	totalMemory := memory.TotalMemory()

	for _, location := range memoryLimitLocations {
		raw, err := os.ReadFile(location)
		if err != nil {
			continue
		}

		if limit, ok := parseMemoryLimit(string(raw)); ok && (totalMemory == 0 || limit < totalMemory) {
			return limit
		}
		break
	}

	return totalMemory
}

// parseMemoryLimit parses a cgroup memory limit. Unrestricted limits ("max"
// in v2, or the v1 sentinel) are reported as not ok.
func parseMemoryLimit(raw string) (uint64, bool) {
	value := strings.TrimSpace(raw)
	if value == "max" {
		return 0, false
	}

	limit, err := strconv.ParseUint(value, 10, 64)
	if err != nil || limit == 0 || limit >= unrestrictedMemoryLimit {
		return 0, false
	}
	return limit, true
}
