//go:build unix

package staging

import "golang.org/x/sys/unix"

// platformUnlink calls the raw unlink(2) syscall directly, bypassing any
// os.Remove-level guard, as the second rung of the safe-delete fallback
// chain (spec.md §4.3).
func platformUnlink(path string) error {
	return unix.Unlink(path)
}
