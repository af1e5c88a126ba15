//go:build !unix

package transcribe

import "errors"

func freeDiskBytes(dir string) (int64, error) {
	return 0, errors.New("disk-space probe unavailable on this platform")
}
