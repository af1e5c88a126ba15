// Package state persists the pipeline's session document: the atomic,
// JSON-backed record that lets the orchestrator survive a process restart
// or a crash mid-stage (spec.md §4.1, §8 invariant 1).
//
// The store never lets a reader observe a partially-written file: every
// Save writes to a sibling temp file and renames it over the target, the
// same pattern the teacher's queue package uses for its SQLite WAL
// checkpoints but applied here to a single JSON document instead.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"voicepipe/internal/archive"
)

// Store loads and atomically persists the top-level session document.
type Store struct {
	path          string
	retentionDays int
	lock          *flock.Flock
}

// New returns a Store backed by the JSON file at path. retentionDays bounds
// how many days of PreviousSessions are kept on Save (default 7 per
// spec.md §3).
func New(path string, retentionDays int) *Store {
	if retentionDays <= 0 {
		retentionDays = 7
	}
	return &Store{path: path, retentionDays: retentionDays, lock: flock.New(path + ".lock")}
}

// Lock acquires an exclusive, process-wide file lock guarding the state
// document so two overlapping invocations (e.g. a cron run colliding with
// an --auto-continue loop) never interleave a Load/Save pair.
func (s *Store) Lock(ctx context.Context) (func(), error) {
	ok, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire state lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another voicepipe run already holds the state lock")
	}
	return func() { _ = s.lock.Unlock() }, nil
}

// Document is the top-level schema persisted at Paths.StateDir/recording_states.json
// (spec.md §4.1, §6).
type Document struct {
	CurrentSession    *Session           `json:"current_session"`
	PreviousSessions  []Session          `json:"previous_sessions"`
	ArchiveManagement ArchiveManagement  `json:"archive_management"`
	SystemHealth      SystemHealth       `json:"system_health"`
}

// ArchiveManagement tracks the last sweep of the Archives directory.
type ArchiveManagement struct {
	LastCleanup   time.Time `json:"last_cleanup"`
	RetentionDays int       `json:"retention_days"`
}

// SystemHealth is a running summary used by CLI status output.
type SystemHealth struct {
	TotalProcessed int       `json:"total_processed"`
	SuccessRate    float64   `json:"success_rate"`
	LastError      string    `json:"last_error"`
	LastSuccess    time.Time `json:"last_success"`
}

// Session is one process-level run of the six-stage pipeline
// (spec.md §3, GLOSSARY). It is created the moment Stage 1 finds at least
// one unprocessed file and finalized at the end of every non-dry-run pass.
type Session struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`

	RecordingsProcessed       []string `json:"recordings_processed"`
	TranscriptsCreated        []string `json:"transcripts_created"`
	FailedTranscriptions      []string `json:"failed_transcriptions"`
	AIProcessingSuccess       []string `json:"ai_processing_success"`
	AIProcessingFailed        []string `json:"ai_processing_failed"`
	NotionSuccess             []string `json:"notion_success"`
	DuplicateCleanupCandidates []string `json:"duplicate_cleanup_candidates"`
	ArchivedRecordings        []string `json:"archived_recordings"`
	FailedEntries             []FailedEntry `json:"failed_entries"`
	CleanupFailures           []string `json:"cleanup_failures"`

	ActiveBackend string `json:"active_backend,omitempty"`

	ArchivePlan      ArchivePlan `json:"archive_plan"`
	CleanupReady     bool        `json:"cleanup_ready"`

	StageSummaries map[string]StageSummary `json:"stage_summaries,omitempty"`
}

// FailedEntry records a per-file failure with enough context for an
// operator to act on it (spec.md §7 "one-line reasons").
type FailedEntry struct {
	Path   string `json:"path"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// ArchivePlan is the target folder and retention date computed when a
// session opens (spec.md §3).
type ArchivePlan struct {
	TargetFolder  string    `json:"target_folder"`
	RetentionDate time.Time `json:"retention_date"`
}

// StageSummary is the `{total, successful, failed, success_rate}` banner
// each stage reports (spec.md §4.4.8, §7).
type StageSummary struct {
	Total      int     `json:"total"`
	Successful int     `json:"successful"`
	Failed     int     `json:"failed"`
	Skipped    int     `json:"skipped"`
	SuccessRate float64 `json:"success_rate"`
}

// NewSessionID mints a `session_YYYYMMDD_HHMMSS` identifier (spec.md GLOSSARY).
func NewSessionID(now time.Time) string {
	return "session_" + now.Format("20060102_150405")
}

// Load reads the document, tolerating a missing or corrupt file by
// returning the default empty state (spec.md §4.1 "Errors").
func (s *Store) Load() (Document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{ArchiveManagement: ArchiveManagement{RetentionDays: s.retentionDays}}, nil
		}
		return Document{ArchiveManagement: ArchiveManagement{RetentionDays: s.retentionDays}}, fmt.Errorf("read state: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{ArchiveManagement: ArchiveManagement{RetentionDays: s.retentionDays}}, fmt.Errorf("corrupt state file: %w", err)
	}
	return doc, nil
}

// Save atomically persists doc: write to a sibling temp file, fsync, then
// rename over the target. No partial JSON document is ever observable
// (spec.md §4.1, §8 invariant 1).
func (s *Store) Save(doc Document) error {
	doc.PreviousSessions = trimRetention(doc.PreviousSessions, s.retentionDays)

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".recording_states-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename temp state file: %w", err)
	}
	return nil
}

// trimRetention drops previous sessions older than retentionDays
// (spec.md §3 "Retention").
func trimRetention(sessions []Session, retentionDays int) []Session {
	if retentionDays <= 0 {
		retentionDays = 7
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	kept := sessions[:0:0]
	for _, sess := range sessions {
		if sess.EndedAt.IsZero() || sess.EndedAt.After(cutoff) {
			kept = append(kept, sess)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].StartedAt.Before(kept[j].StartedAt) })
	return kept
}

// AlreadyProcessed reports whether audioFileName (basename) has already
// been processed: membership in the current session's recordings_processed,
// or in an archived-filename set derived from previous sessions within the
// retention window (spec.md §4.1 "An already-processed audio filename").
func AlreadyProcessed(doc Document, audioFileName string, retentionDays int) bool {
	if doc.CurrentSession != nil {
		for _, name := range doc.CurrentSession.RecordingsProcessed {
			if name == audioFileName {
				return true
			}
		}
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	for _, sess := range doc.PreviousSessions {
		if !sess.EndedAt.IsZero() && sess.EndedAt.Before(cutoff) {
			continue
		}
		for _, name := range sess.ArchivedRecordings {
			if filepath.Base(name) == audioFileName {
				return true
			}
		}
		for _, name := range sess.RecordingsProcessed {
			if name == audioFileName {
				return true
			}
		}
	}
	return false
}

// OpenSession creates a fresh Session and installs it as CurrentSession.
// Stage 1 calls this only when it has found at least one unprocessed file,
// before validation runs (spec.md §4.2 "a session is opened if and only if").
func OpenSession(doc *Document, id string, startedAt time.Time, archiveDir string, retentionDays int) {
	doc.CurrentSession = &Session{
		ID:             id,
		StartedAt:      startedAt,
		StageSummaries: map[string]StageSummary{},
		ArchivePlan: ArchivePlan{
			TargetFolder:  archive.TargetDir(archiveDir, id, startedAt),
			RetentionDate: startedAt.AddDate(0, 0, retentionDays),
		},
	}
}

// Finalize moves CurrentSession into PreviousSessions and clears it
// (spec.md §4.9 "Finalization").
func Finalize(doc *Document, endedAt time.Time) {
	if doc.CurrentSession == nil {
		return
	}
	sess := *doc.CurrentSession
	sess.EndedAt = endedAt
	doc.PreviousSessions = append(doc.PreviousSessions, sess)
	doc.CurrentSession = nil
}

// RecordSuccess updates SystemHealth after a session completes.
func RecordSuccess(doc *Document, processedCount int, failedCount int, at time.Time) {
	total := processedCount + failedCount
	doc.SystemHealth.TotalProcessed += processedCount
	if total > 0 {
		doc.SystemHealth.SuccessRate = float64(processedCount) / float64(total)
	}
	doc.SystemHealth.LastSuccess = at
}

// RecordError updates SystemHealth after a stage-fatal error.
func RecordError(doc *Document, message string) {
	doc.SystemHealth.LastError = message
}
