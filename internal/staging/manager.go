package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"voicepipe/internal/logging"
	"voicepipe/internal/model"
)

// Manager copies validated source audio into a local staging directory so
// the transcription backend can read it without hitting removable-media
// permission quirks (spec.md §4.3).
type Manager struct {
	Dir    string
	Logger *slog.Logger
}

// NewManager returns a Manager rooted at dir.
func NewManager(dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{Dir: dir, Logger: logger}
}

// Stage copies src into the staging directory, reusing an existing staged
// file of matching size on re-run, and re-copying on a size mismatch
// (spec.md §4.3 "On a re-run"). It strips extended attributes and
// normalizes mode bits best-effort; failures there are logged, not fatal.
func (m *Manager) Stage(ctx context.Context, src model.AudioSource) (string, error) {
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	dest := filepath.Join(m.Dir, filepath.Base(src.Path))

	if info, err := os.Stat(dest); err == nil && info.Size() == src.SizeBytes {
		return dest, nil
	}

	if err := copyFile(src.Path, dest); err != nil {
		return "", fmt.Errorf("stage %s: %w", src.Path, err)
	}

	stripExtendedAttributes(dest, m.Logger)
	if err := os.Chmod(dest, 0o644); err != nil {
		m.Logger.Warn("failed to normalize staged file mode",
			logging.String("path", dest), logging.Error(err),
			logging.String(logging.FieldEventType, "staging_chmod_failed"))
	}
	return dest, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dest + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

// stripExtendedAttributes removes xattrs best-effort; removable media
// sometimes carries attributes that block in-place reads by the
// transcription backend (spec.md §4.3). Failure is logged and ignored.
func stripExtendedAttributes(path string, logger *slog.Logger) {
	if runtime.GOOS != "darwin" && runtime.GOOS != "linux" {
		return
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("xattr", "-c", path)
	case "linux":
		cmd = exec.Command("setfattr", "-x", "security.selinux", path)
	}
	if cmd == nil {
		return
	}
	if err := cmd.Run(); err != nil {
		logger.Debug("best-effort extended-attribute strip failed",
			logging.String("path", path), logging.Error(err))
	}
}

// SafeDelete removes the source audio using a three-strategy fallback
// chain: direct unlink -> platform unlink -> spawn `rm -f`. All-fail logs a
// warning and returns false; the pipeline treats this as a media-permission
// error, not fatal (spec.md §4.3 "Safe deletion of source audio", §7).
func SafeDelete(ctx context.Context, path string, logger *slog.Logger) bool {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.Remove(path); err == nil || errors.Is(err, os.ErrNotExist) {
		return true
	}

	if err := platformUnlink(path); err == nil {
		return true
	}

	cmd := exec.CommandContext(ctx, "rm", "-f", path)
	if err := cmd.Run(); err == nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return true
		}
	}

	logger.Warn("unable to delete source audio after exhausting fallback chain",
		logging.String("path", path),
		logging.String(logging.FieldEventType, "safe_delete_failed"),
		logging.String(logging.FieldErrorHint, "remove the file from the recorder manually"),
		logging.String(logging.FieldImpact, "source audio remains on removable media"))
	return false
}

// CleanSession removes every file the Manager has staged; called at
// end-of-session cleanup (spec.md §4.3 "Staging-folder cleanup").
func (m *Manager) CleanSession(ctx context.Context) error {
	entries, err := os.ReadDir(m.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var firstErr error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(m.Dir, entry.Name())
		if err := os.Remove(path); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
