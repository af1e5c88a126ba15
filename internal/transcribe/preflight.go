package transcribe

import (
	"context"
	"fmt"

	"voicepipe/internal/pipelineerr"
)

// PreflightCheck verifies a backend is available, free disk is at least
// totalBatchBytes + 100MiB, and free RAM is at least 1GiB (skipped if no
// memory probe is available). Any failure aborts Stage 3 (spec.md §4.4.7).
func PreflightCheck(ctx context.Context, chain *Chain, dir string, totalBatchBytes int64, minDiskBufferMiB, minFreeRAMMiB int) error {
	if !chain.Available() {
		return pipelineerr.Fatal(pipelineerr.ErrBackendGone, pipelineerr.KindBackendGone, "transcribe", "preflight", "no transcription backend available; install local Whisper CLI or configure OPENAI_API_KEY", nil)
	}

	if minDiskBufferMiB <= 0 {
		minDiskBufferMiB = 100
	}
	requiredBytes := totalBatchBytes + int64(minDiskBufferMiB)*1024*1024
	free, err := freeDiskBytes(dir)
	if err == nil && free < requiredBytes {
		return pipelineerr.Fatal(pipelineerr.ErrResource, pipelineerr.KindResource, "transcribe", "preflight",
			fmt.Sprintf("insufficient disk: need %d bytes, have %d; check disk space", requiredBytes, free), nil)
	}

	if minFreeRAMMiB <= 0 {
		minFreeRAMMiB = 1024
	}
	if freeRAM, ok := freeMemoryBytes(); ok {
		if freeRAM < int64(minFreeRAMMiB)*1024*1024 {
			return pipelineerr.Fatal(pipelineerr.ErrResource, pipelineerr.KindResource, "transcribe", "preflight", "insufficient free RAM", nil)
		}
	}
	// No memory probe available on this platform: skip the check rather
	// than fail closed (spec.md §4.4.7 "skip this check if no memory
	// probe is available").

	return nil
}

// CPUSampler reads instantaneous CPU utilization for the back-pressure
// valve (spec.md §4.4.5). It returns ok=false when no sample could be
// taken, matching the "skip this check" posture used elsewhere in §4.4.7.
func CPUSampler(ctx context.Context) (percent float64, ok bool) {
	return sampleCPUPercent()
}
