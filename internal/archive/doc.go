// Package archive implements Stage 5/6 (spec.md §4.9): the store-ID
// verifier, the dated-folder archiver with its three-strategy copy
// fallback, and the cleaner that safe-deletes source audio and sweeps
// stale archive folders past the retention window.
package archive
