package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"voicepipe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test,
// with every credential left blank so a test never dials a real backend
// unless it explicitly opts in with WithNotionToken/WithOpenAIKey.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Recorder.MountPath = filepath.Join(base, "recorder")
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ArchiveDir = filepath.Join(base, "archive")
	cfgVal.Paths.FailedDir = filepath.Join(base, "failed")
	cfgVal.Paths.ProjectCache = filepath.Join(base, "projects.json")

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	if err := os.MkdirAll(cfgVal.Recorder.MountPath, 0o755); err != nil {
		t.Fatalf("mkdir recorder mount: %v", err)
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithNotionToken sets the document-store token on the test config.
func WithNotionToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notion.Token = token
	}
}

// WithOpenAIKey sets the LLM/cloud-transcription API key on the test config.
func WithOpenAIKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OpenAI.APIKey = key
	}
}

// WithTranscriptionMode overrides the backend selection mode (auto, cloud,
// local) on the test config.
func WithTranscriptionMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.Mode = mode
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
