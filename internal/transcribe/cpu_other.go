//go:build !linux

package transcribe

// sampleCPUPercent has no portable implementation outside Linux's
// /proc/stat; the back-pressure valve treats ok=false as "no pressure
// signal available" and never throttles (spec.md §4.4.5).
func sampleCPUPercent() (float64, bool) {
	return 0, false
}
