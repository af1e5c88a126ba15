package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"voicepipe/internal/config"
)

func TestLoadDefaultConfigExpandsPathsAndAppliesEnv(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("NOTION_TOKEN", "secret_test")
	t.Setenv("TASKS_DATABASE_ID", "tasks-db")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "voicepipe", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Fatalf("expected OpenAI key from env, got %q", cfg.OpenAI.APIKey)
	}
	if cfg.Notion.Token != "secret_test" {
		t.Fatalf("expected Notion token from env, got %q", cfg.Notion.Token)
	}
	if cfg.Notion.TasksDatabaseID != "tasks-db" {
		t.Fatalf("expected tasks database id from env, got %q", cfg.Notion.TasksDatabaseID)
	}
	if cfg.Transcription.Mode != "auto" {
		t.Fatalf("expected default transcription mode auto, got %q", cfg.Transcription.Mode)
	}
	if cfg.Transcription.BatchMaxFiles != 4 {
		t.Fatalf("unexpected batch max files: %d", cfg.Transcription.BatchMaxFiles)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Fatalf("unexpected retry max attempts: %d", cfg.Retry.MaxAttempts)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Paths.ArchiveDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "voicepipe.toml")

	type payload struct {
		OpenAI struct {
			Model string `toml:"model"`
		} `toml:"openai"`
		Transcription struct {
			Mode string `toml:"mode"`
		} `toml:"transcription"`
	}
	custom := payload{}
	custom.OpenAI.Model = "gpt-4o-mini"
	custom.Transcription.Mode = "cloud"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Fatalf("expected model override, got %q", cfg.OpenAI.Model)
	}
	if cfg.Transcription.Mode != "cloud" {
		t.Fatalf("expected mode override, got %q", cfg.Transcription.Mode)
	}
}

func TestEnvOverrideGenericDottedKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("TRANSCRIPTION_WORKER_POOL_SIZE", "5")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Fatalf("expected OPENAI_MODEL override, got %q", cfg.OpenAI.Model)
	}
	if cfg.Transcription.WorkerPoolSize != 5 {
		t.Fatalf("expected worker pool size override, got %d", cfg.Transcription.WorkerPoolSize)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "mount_path") {
		t.Fatalf("sample config missing recorder mount path: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.StagingDir, "voicepipe") {
		t.Fatalf("expected staging dir to contain voicepipe, got %q", cfg.Paths.StagingDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.BatchMinFiles = 10
	cfg.Transcription.BatchMaxFiles = 2
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when batch_min_files exceeds batch_max_files")
	}

	cfg = config.Default()
	cfg.Transcription.Mode = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid transcription mode")
	}

	cfg = config.Default()
	cfg.Retry.MaxAttempts = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive retry max attempts")
	}

	cfg = config.Default()
	cfg.Notion.MaxParagraphChars = 5000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for paragraph length above the store's hard limit")
	}
}
