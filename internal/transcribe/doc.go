// Package transcribe implements Stage 3 of the ingestion pipeline: the
// pluggable cloud/local backend chain, duration-balanced batch planning,
// the bounded worker pool with CPU back-pressure, duplicate avoidance, and
// the retry/skip-list policy, all per spec.md §4.4.
package transcribe
