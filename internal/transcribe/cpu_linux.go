//go:build linux

package transcribe

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"
)

var cpuSampleState struct {
	mu        sync.Mutex
	prevIdle  uint64
	prevTotal uint64
	primed    bool
}

// sampleCPUPercent computes instantaneous CPU utilization from two
// successive reads of /proc/stat's aggregate "cpu" line (spec.md §4.4.5,
// §5 "a platform-independent timer should be used" -- this is the
// platform-specific half; non-Linux callers fall back to ok=false).
func sampleCPUPercent() (float64, bool) {
	idle, total, err := readProcStat()
	if err != nil {
		return 0, false
	}

	cpuSampleState.mu.Lock()
	defer cpuSampleState.mu.Unlock()

	if !cpuSampleState.primed {
		cpuSampleState.prevIdle, cpuSampleState.prevTotal = idle, total
		cpuSampleState.primed = true
		return 0, false // first sample has no delta to compare against
	}

	deltaTotal := total - cpuSampleState.prevTotal
	deltaIdle := idle - cpuSampleState.prevIdle
	cpuSampleState.prevIdle, cpuSampleState.prevTotal = idle, total

	if deltaTotal == 0 {
		return 0, false
	}
	busy := float64(deltaTotal-deltaIdle) / float64(deltaTotal) * 100
	return busy, true
}

func readProcStat() (idle, total uint64, err error) {
	f, ferr := os.Open("/proc/stat")
	if ferr != nil {
		return 0, 0, ferr
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, 0, scanner.Err()
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) < 5 || fields[0] != "cpu" {
		return 0, 0, nil
	}
	var values []uint64
	for _, f := range fields[1:] {
		v, perr := strconv.ParseUint(f, 10, 64)
		if perr != nil {
			continue
		}
		values = append(values, v)
		total += v
	}
	if len(values) >= 4 {
		idle = values[3]
	}
	return idle, total, nil
}
