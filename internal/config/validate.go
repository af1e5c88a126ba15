package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. It does not require the
// OpenAI/Notion credentials to be present at load time (a dry-run or
// `config show` invocation is valid without them); stages that need a
// collaborator client check for an empty credential themselves and return
// a backend-absence error (spec.md §7).
func (c *Config) Validate() error {
	if err := c.validateRecorder(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateNotion(); err != nil {
		return err
	}
	if err := c.validateProject(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRecorder() error {
	if c.Recorder.MountPath == "" {
		return errors.New("recorder.mount_path must be set")
	}
	if c.Recorder.SkipThresholdSecs <= 0 {
		return errors.New("recorder.skip_threshold_seconds must be positive")
	}
	if c.Recorder.MaxDurationMinutes <= 0 {
		return errors.New("recorder.max_duration_minutes must be positive")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	t := c.Transcription
	switch t.Mode {
	case "auto", "cloud", "local":
	default:
		return fmt.Errorf("transcription.mode: unsupported value %q", t.Mode)
	}
	if t.BatchMinFiles > t.BatchMaxFiles {
		return errors.New("transcription.batch_min_files must be <= batch_max_files")
	}
	if t.WorkerPoolSize <= 0 {
		return errors.New("transcription.worker_pool_size must be positive")
	}
	if t.CPUCeilingPercent <= 0 || t.CPUCeilingPercent > 100 {
		return errors.New("transcription.cpu_ceiling_percent must be in (0,100]")
	}
	return nil
}

func (c *Config) validateNotion() error {
	if c.Notion.MaxParagraphChars <= 0 || c.Notion.MaxParagraphChars > 2000 {
		return errors.New("notion.max_paragraph_chars must be in (0,2000]")
	}
	return nil
}

func (c *Config) validateProject() error {
	if c.Project.MaxAgeMinutes <= 0 {
		return errors.New("project.max_age_minutes must be positive")
	}
	if c.Project.HardCeilingHours <= 0 {
		return errors.New("project.hard_ceiling_hours must be positive")
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxAttempts <= 0 {
		return errors.New("retry.max_attempts must be positive")
	}
	if c.Retry.BaseDelaySeconds <= 0 {
		return errors.New("retry.base_delay_seconds must be positive")
	}
	if c.Retry.RateLimitMultiplier <= 0 {
		return errors.New("retry.rate_limit_multiplier must be positive")
	}
	return nil
}
