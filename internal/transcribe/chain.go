package transcribe

import (
	"context"
	"strings"

	"voicepipe/internal/pipelineerr"
)

// Chain tries backends in order; the first to return ok=true wins and
// later backends are never consulted (spec.md §4.4.2).
type Chain struct {
	Backends []Backend
}

// NewChain filters candidates by IsAvailable at construction time, mirroring
// `auto` mode's init-time availability filter (spec.md §4.4.2).
func NewChain(ctx context.Context, candidates ...Backend) *Chain {
	available := make([]Backend, 0, len(candidates))
	for _, b := range candidates {
		if b != nil && b.IsAvailable(ctx) {
			available = append(available, b)
		}
	}
	return &Chain{Backends: available}
}

// Available reports whether at least one backend survived the
// availability filter (spec.md §4.4.7 pre-flight).
func (c *Chain) Available() bool {
	return c != nil && len(c.Backends) > 0
}

// Result is one file's outcome from running the chain.
type Result struct {
	Text        string
	BackendName string
	Err         error
}

// Run tries each backend in order, concatenating failure messages if every
// backend fails (spec.md §4.4.2 "concatenated last error").
func (c *Chain) Run(ctx context.Context, audioPath string, estimatedSeconds float64) Result {
	if !c.Available() {
		return Result{Err: pipelineerr.Fatal(pipelineerr.ErrBackendGone, pipelineerr.KindBackendGone, "transcribe", "chain", "no transcription backend available", nil)}
	}

	var failures []string
	for _, b := range c.Backends {
		text, err := b.Transcribe(ctx, audioPath, estimatedSeconds)
		if err == nil {
			return Result{Text: text, BackendName: b.Name()}
		}
		failures = append(failures, b.Name()+": "+err.Error())
	}
	return Result{Err: pipelineerr.Wrap(pipelineerr.ErrTransient, pipelineerr.KindTransient, "transcribe", "chain", strings.Join(failures, "; "), nil)}
}

// ByMode builds the ordered backend list for the configured selection
// policy (spec.md §4.4.2): auto tries [cloud, local] in order; cloud/local
// pin to a single backend.
func ByMode(mode string, cloud, local Backend) []Backend {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "cloud":
		return []Backend{cloud}
	case "local":
		return []Backend{local}
	default:
		return []Backend{cloud, local}
	}
}
