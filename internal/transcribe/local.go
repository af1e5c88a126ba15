package transcribe

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"voicepipe/internal/pipelineerr"
)

// LocalBackend spawns a local Whisper CLI. Expected latency is
// ~90-120s per 3-minute file; failure modes are CLI missing, subprocess
// non-zero exit, timeout, and output file absent/short (spec.md §4.4.1).
type LocalBackend struct {
	Binary       string
	Model        string
	Language     string
	OutputDir    string
	MinTimeout   time.Duration
	CommandRunner func(ctx context.Context, name string, args ...string) error
}

// NewLocalBackend constructs a LocalBackend. minTimeout floors the
// per-file subprocess budget (spec.md §4.4.1 default 20 minutes).
func NewLocalBackend(binary, model, language, outputDir string, minTimeout time.Duration) *LocalBackend {
	if binary == "" {
		binary = "whisper"
	}
	if minTimeout <= 0 {
		minTimeout = 20 * time.Minute
	}
	return &LocalBackend{Binary: binary, Model: model, Language: language, OutputDir: outputDir, MinTimeout: minTimeout}
}

func (l *LocalBackend) Name() string { return "local" }

func (l *LocalBackend) IsAvailable(ctx context.Context) bool {
	_, err := exec.LookPath(l.Binary)
	return err == nil
}

// Timeout computes max(20 minutes, 0.5 * estimated_audio_seconds), a long
// file gets a proportional budget (spec.md §4.4.1).
func (l *LocalBackend) Timeout(estimatedSeconds float64) time.Duration {
	proportional := time.Duration(math.Round(0.5*estimatedSeconds)) * time.Second
	if proportional > l.MinTimeout {
		return proportional
	}
	return l.MinTimeout
}

func (l *LocalBackend) Transcribe(ctx context.Context, audioPath string, estimatedSeconds float64) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, l.Timeout(estimatedSeconds))
	defer cancel()

	outDir := l.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", pipelineerr.Wrap(pipelineerr.ErrResource, pipelineerr.KindResource, "transcribe", "local", "cannot create output dir", err)
	}

	args := []string{audioPath, "--output_dir", outDir, "--output_format", "txt"}
	if l.Model != "" {
		args = append(args, "--model", l.Model)
	}
	if l.Language != "" {
		args = append(args, "--language", l.Language)
	}

	if err := l.run(timeoutCtx, l.Binary, args...); err != nil {
		if timeoutCtx.Err() != nil {
			return "", pipelineerr.Wrap(pipelineerr.ErrTransient, pipelineerr.KindTransient, "transcribe", "local", "subprocess timeout", err)
		}
		return "", pipelineerr.Wrap(pipelineerr.ErrTransient, pipelineerr.KindTransient, "transcribe", "local", "subprocess failed", err)
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	outPath := filepath.Join(outDir, stem+".txt")
	raw, err := os.ReadFile(outPath)
	if err != nil {
		return "", pipelineerr.Wrap(pipelineerr.ErrTransient, pipelineerr.KindTransient, "transcribe", "local", "output file absent", err)
	}

	text, ok := CleanText(string(raw))
	if !ok {
		return "", pipelineerr.Wrap(pipelineerr.ErrValidation, pipelineerr.KindValidation, "transcribe", "local", "transcript too short", nil)
	}
	return text, nil
}

func (l *LocalBackend) run(ctx context.Context, name string, args ...string) error {
	if l.CommandRunner != nil {
		return l.CommandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
