// Package transcribe implements Stage 3: staging hand-off, the pluggable
// backend chain, duration-balanced batch planning, and the bounded worker
// pool that fans out transcription within a batch (spec.md §4.4).
package transcribe

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Backend is the three-method transcription collaborator interface
// (spec.md §4.4.1, GLOSSARY). Two ship: Cloud and Local.
type Backend interface {
	Transcribe(ctx context.Context, audioPath string, estimatedSeconds float64) (text string, err error)
	IsAvailable(ctx context.Context) bool
	Name() string
}

// MinTranscriptChars is the minimum trimmed length for a backend result to
// count as success (spec.md §4.4.1).
const MinTranscriptChars = 10

// CleanText trims a backend's raw output, normalizes it to NFC (some local
// Whisper builds emit decomposed accents), and validates the minimum-length
// rule shared by every backend (spec.md §4.4.1 "success requires").
func CleanText(raw string) (text string, ok bool) {
	trimmed := strings.TrimSpace(norm.NFC.String(raw))
	return trimmed, len(trimmed) >= MinTranscriptChars
}
