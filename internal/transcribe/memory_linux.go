//go:build linux

package transcribe

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// freeMemoryBytes reads /proc/meminfo's MemAvailable field (spec.md §4.4.7
// "skip this check if no memory probe is available" -- ok=false covers
// every non-Linux platform and a malformed /proc/meminfo).
func freeMemoryBytes() (int64, bool) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemAvailable:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, false
		}
		kib, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0, false
		}
		return kib * 1024, true
	}
	return 0, false
}
