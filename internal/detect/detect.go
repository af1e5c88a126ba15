// Package detect implements Stage 1 (find unprocessed audio on removable
// media) and the file-validity half of Stage 2, per spec.md §4.2.
//
// It intentionally knows nothing about batching or transcription; it only
// answers "which files on this mount are real, new recordings".
package detect

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"voicepipe/internal/model"
	"voicepipe/internal/pipelineerr"
)

const stageName = "detect"

// Scan lists non-hidden *.mp3 files directly under mountPath, excluding
// macOS resource-fork shadow files (`._*`), and filters out any filename
// that isProcessed reports as already handled (spec.md §4.2 "USB detector").
func Scan(mountPath string, isProcessed func(fileName string) bool) ([]model.AudioSource, error) {
	if _, err := os.Stat(mountPath); err != nil {
		return nil, pipelineerr.Fatal(pipelineerr.ErrPermission, pipelineerr.KindPermission, stageName, "scan", "mount path not readable: "+mountPath, err)
	}

	entries, err := os.ReadDir(mountPath)
	if err != nil {
		return nil, pipelineerr.Fatal(pipelineerr.ErrPermission, pipelineerr.KindPermission, stageName, "scan", "cannot list mount path", err)
	}

	sources := make([]model.AudioSource, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "._") {
			continue // macOS resource-fork shadow file
		}
		if !strings.EqualFold(filepath.Ext(name), ".mp3") {
			continue
		}
		if isProcessed != nil && isProcessed(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(mountPath, name)
		sources = append(sources, model.AudioSource{
			Path:             path,
			SizeBytes:        info.Size(),
			EstimatedMinutes: EstimateMinutes(info.Size(), 0),
			CreatedAt:        info.ModTime(),
			ModifiedAt:       info.ModTime(),
		})
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Path < sources[j].Path })
	return sources, nil
}

// EstimateMinutes derives estimated audio duration from file size, a rough
// proxy for ~128kbps bitrate (spec.md §3 AudioSource). bytesPerSecond
// defaults to 1 MiB/minute (the spec's "size_bytes / (1 MiB)") when zero.
func EstimateMinutes(sizeBytes int64, bytesPerSecond float64) float64 {
	const bytesPerMiB = 1024 * 1024
	if bytesPerSecond <= 0 {
		return float64(sizeBytes) / bytesPerMiB
	}
	return float64(sizeBytes) / bytesPerSecond / 60
}

// Reason enumerates why Validate rejected a file. A non-empty Reason on a
// validated source always implies Valid==false (spec.md §4.2 "fail-closed").
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonMissing      Reason = "file missing"
	ReasonEmpty        Reason = "empty"
	ReasonBadExtension Reason = "not an mp3"
	ReasonBadHeader    Reason = "unreadable header"
	ReasonTooShort     Reason = "file too short"
	ReasonTooLong      Reason = "file exceeds max duration"
)

// ValidationResult is the per-file outcome of Validate.
type ValidationResult struct {
	Source model.AudioSource
	Valid  bool
	Reason Reason
}

// Validator checks existence, size, extension, a readable header, a
// minimum-duration proxy, and a maximum-duration cap (spec.md §4.2 "File
// validator").
type Validator struct {
	SkipThresholdSeconds float64
	MaxDurationMinutes   float64
	BytesPerSecondProxy  float64
}

const minHeaderBytes = 1024

// Validate runs every check for one candidate file.
func (v Validator) Validate(src model.AudioSource) ValidationResult {
	info, err := os.Stat(src.Path)
	if err != nil {
		return ValidationResult{Source: src, Reason: ReasonMissing}
	}
	if info.Size() == 0 {
		return ValidationResult{Source: src, Reason: ReasonEmpty}
	}
	if !strings.EqualFold(filepath.Ext(src.Path), ".mp3") {
		return ValidationResult{Source: src, Reason: ReasonBadExtension}
	}

	f, err := os.Open(src.Path)
	if err != nil {
		return ValidationResult{Source: src, Reason: ReasonBadHeader}
	}
	defer f.Close()
	header := make([]byte, minHeaderBytes)
	n, _ := f.Read(header)
	if n < minHeaderBytes && info.Size() >= minHeaderBytes {
		return ValidationResult{Source: src, Reason: ReasonBadHeader}
	}

	// size_bytes < skip_threshold_seconds * 33 KiB/2s (spec.md §4.2).
	proxy := v.BytesPerSecondProxy
	if proxy <= 0 {
		proxy = 33 * 1024 / 2.0
	}
	minBytes := v.SkipThresholdSeconds * proxy
	if float64(info.Size()) < minBytes {
		return ValidationResult{Source: src, Reason: ReasonTooShort}
	}

	estMinutes := EstimateMinutes(info.Size(), 0)
	if v.MaxDurationMinutes > 0 && estMinutes > v.MaxDurationMinutes {
		return ValidationResult{Source: src, Reason: ReasonTooLong}
	}

	src.EstimatedMinutes = estMinutes
	src.SizeBytes = info.Size()
	return ValidationResult{Source: src, Valid: true}
}

// ValidateAll validates every candidate, returning validated sources and a
// map of rejected paths to their reasons for the Stage-2 banner.
func (v Validator) ValidateAll(candidates []model.AudioSource) (valid []model.AudioSource, rejected map[string]Reason) {
	rejected = make(map[string]Reason)
	for _, c := range candidates {
		result := v.Validate(c)
		if result.Valid {
			valid = append(valid, result.Source)
			continue
		}
		rejected[c.Path] = result.Reason
	}
	return valid, rejected
}

// DescribeRejection renders a one-line operator-facing reason (spec.md §7
// "per-failure one-line reasons").
func DescribeRejection(path string, reason Reason) string {
	return fmt.Sprintf("%s: %s", filepath.Base(path), reason)
}

// LastModifiedWithin reports whether t is within d of now; used by the
// transcription duplicate-avoidance check (spec.md §4.4.3) and exported so
// callers share one clock-skew-tolerant definition of "recent".
func LastModifiedWithin(t time.Time, d time.Duration) bool {
	return time.Since(t) <= d
}
