package archive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"voicepipe/internal/fileutil"
	"voicepipe/internal/logging"
	"voicepipe/internal/model"
)

// Archiver copies verified source audio into the dated session archive
// folder, falling back across three copy strategies and confirming the
// copy's size before declaring success (spec.md §4.9).
type Archiver struct {
	Logger *slog.Logger
}

// NewArchiver builds an Archiver.
func NewArchiver(logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Archiver{Logger: logging.NewComponentLogger(logger, "archive")}
}

// Result is the outcome of archiving one record's source audio.
type Result struct {
	ArchivedPath string
	Duplicate    bool
}

// TargetDir returns Archives/YYYY-MM-DD/<session_id> (spec.md §4.9).
func TargetDir(archiveRoot, sessionID string, startedAt time.Time) string {
	return filepath.Join(archiveRoot, startedAt.Format("2006-01-02"), sessionID)
}

// Archive copies record's source audio to dir under
// "<stem>_<session_id>.mp3", falling back across copy strategies, and
// verifies the copy's size matches the source exactly. Records that were
// already archived in a prior session (duplicate) are marked cleanup-only
// and skipped without copying (spec.md §4.9 "Duplicate records").
func (a *Archiver) Archive(ctx context.Context, source model.AudioSource, sessionID, dir string, duplicate bool) (Result, error) {
	if duplicate {
		return Result{Duplicate: true}, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create archive dir: %w", err)
	}

	dest := filepath.Join(dir, fmt.Sprintf("%s_%s.mp3", source.Stem(), sessionID))

	if err := copyWithFallback(ctx, source.Path, dest, a.Logger); err != nil {
		return Result{}, fmt.Errorf("archive %s: %w", source.Path, err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return Result{}, fmt.Errorf("stat archived copy: %w", err)
	}
	if info.Size() != source.SizeBytes {
		_ = os.Remove(dest)
		return Result{}, fmt.Errorf("archived copy size mismatch: source %d bytes, archived %d bytes", source.SizeBytes, info.Size())
	}

	return Result{ArchivedPath: dest}, nil
}

// copyWithFallback tries platform copy-with-metadata, then a plain
// byte-stream copy, then a SHA256-and-size-verified copy, returning the
// first success (spec.md §4.9 "Copy method falls back across three
// strategies").
func copyWithFallback(ctx context.Context, src, dst string, logger *slog.Logger) error {
	if err := copyWithMetadata(ctx, src, dst); err == nil {
		return nil
	} else {
		logger.Debug("platform copy-with-metadata failed, falling back",
			logging.String("path", src), logging.Error(err),
			logging.String(logging.FieldEventType, "archive_copy_fallback"))
	}

	if err := fileutil.CopyFile(src, dst); err == nil {
		return nil
	} else {
		logger.Debug("copy-without-metadata failed, falling back to verified copy",
			logging.String("path", src), logging.Error(err),
			logging.String(logging.FieldEventType, "archive_copy_fallback"))
	}

	return fileutil.CopyFileVerified(src, dst)
}

// copyWithMetadata shells out to the platform's metadata-preserving copy
// tool. There is no portable stdlib equivalent of cp -p / macOS
// clonefile-backed copies, so this rung of the fallback chain is
// necessarily platform-specific (spec.md §4.9, §9 redesign flag on
// portability).
func copyWithMetadata(ctx context.Context, src, dst string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin", "linux":
		cmd = exec.CommandContext(ctx, "cp", "-p", src, dst)
	default:
		return fmt.Errorf("no platform copy-with-metadata tool for %s", runtime.GOOS)
	}
	return cmd.Run()
}

