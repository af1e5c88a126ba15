//go:build !linux

package transcribe

// freeMemoryBytes has no portable probe outside Linux's /proc/meminfo; the
// preflight check is skipped rather than failed closed (spec.md §4.4.7).
func freeMemoryBytes() (int64, bool) {
	return 0, false
}
