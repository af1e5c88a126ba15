// Package orchestrator drives the six-stage pipeline (spec.md §2, §5):
// Detect, Validate & Plan, Transcribe, Analyze, Verify & Archive, Cleanup.
// It owns stage sequencing, skip-step/dry-run controls, and session
// open/finalize against internal/state, delegating all domain logic to
// the per-stage packages (detect, staging, transcribe, parser, resolver,
// analyzer, storeclient, archive).
package orchestrator
