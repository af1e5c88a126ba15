package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRecorder()
	c.normalizeTranscription()
	c.normalizeOpenAI()
	c.normalizeNotion()
	c.normalizeProject()
	c.normalizeRetry()
	c.normalizeWorkflow()
	c.normalizeLogging()
	c.normalizeClassification()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.ArchiveDir, err = expandPath(c.Paths.ArchiveDir); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	if c.Paths.FailedDir, err = expandPath(c.Paths.FailedDir); err != nil {
		return fmt.Errorf("paths.failed_dir: %w", err)
	}
	if c.Paths.ProjectCache, err = expandPath(c.Paths.ProjectCache); err != nil {
		return fmt.Errorf("paths.project_cache_path: %w", err)
	}
	if c.Paths.RetentionDays <= 0 {
		c.Paths.RetentionDays = defaultRetentionDays
	}
	return nil
}

func (c *Config) normalizeRecorder() {
	c.Recorder.MountPath = strings.TrimSpace(c.Recorder.MountPath)
	if c.Recorder.MountPath == "" {
		c.Recorder.MountPath = defaultMountPath
	}
	if c.Recorder.SkipThresholdSecs <= 0 {
		c.Recorder.SkipThresholdSecs = defaultSkipThresholdSecs
	}
	if c.Recorder.MaxDurationMinutes <= 0 {
		c.Recorder.MaxDurationMinutes = defaultMaxDurationMinutes
	}
	if c.Recorder.BytesPerSecondProxy <= 0 {
		c.Recorder.BytesPerSecondProxy = defaultBytesPerSecondProxy
	}
}

func (c *Config) normalizeTranscription() {
	t := &c.Transcription
	t.Mode = strings.ToLower(strings.TrimSpace(t.Mode))
	if t.Mode == "" {
		t.Mode = "auto"
	}
	if strings.TrimSpace(t.CloudModel) == "" {
		t.CloudModel = defaultCloudModel
	}
	if t.CloudTimeoutSeconds <= 0 {
		t.CloudTimeoutSeconds = defaultCloudTimeoutSeconds
	}
	if strings.TrimSpace(t.LocalBinary) == "" {
		t.LocalBinary = defaultLocalBinary
	}
	if strings.TrimSpace(t.LocalModel) == "" {
		t.LocalModel = defaultLocalModel
	}
	if strings.TrimSpace(t.LocalLanguage) == "" {
		t.LocalLanguage = defaultLocalLanguage
	}
	if t.LocalMinTimeoutMin <= 0 {
		t.LocalMinTimeoutMin = defaultLocalMinTimeoutMin
	}
	if t.BatchWorkBudgetMin <= 0 {
		t.BatchWorkBudgetMin = defaultBatchWorkBudgetMin
	}
	if t.BatchMaxFiles <= 0 {
		t.BatchMaxFiles = defaultBatchMaxFiles
	}
	if t.BatchMinFiles <= 0 {
		t.BatchMinFiles = defaultBatchMinFiles
	}
	if t.WorkerPoolSize <= 0 {
		t.WorkerPoolSize = defaultWorkerPoolSize
	}
	if t.CPUCeilingPercent <= 0 {
		t.CPUCeilingPercent = defaultCPUCeilingPercent
	}
	if t.CPUBackoffSeconds <= 0 {
		t.CPUBackoffSeconds = defaultCPUBackoffSeconds
	}
	if t.MinDiskBufferMiB <= 0 {
		t.MinDiskBufferMiB = defaultMinDiskBufferMiB
	}
	if t.MinFreeRAMMiB <= 0 {
		t.MinFreeRAMMiB = defaultMinFreeRAMMiB
	}
	if t.DuplicateMaxAgeMin <= 0 {
		t.DuplicateMaxAgeMin = defaultDuplicateMaxAgeMin
	}
	if t.MinTranscriptChars <= 0 {
		t.MinTranscriptChars = defaultMinTranscriptChars
	}
	if len(t.SkipRetryPatterns) == 0 {
		t.SkipRetryPatterns = []string{"permission", "transcript too short"}
	}
}

func (c *Config) normalizeOpenAI() {
	o := &c.OpenAI
	o.APIKey = strings.TrimSpace(o.APIKey)
	o.GroqAPIKey = strings.TrimSpace(o.GroqAPIKey)
	if strings.TrimSpace(o.Model) == "" {
		o.Model = defaultOpenAIModel
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = defaultOpenAIMaxTokens
	}
	if o.PreservationWords <= 0 {
		o.PreservationWords = defaultPreservationWords
	}
}

func (c *Config) normalizeNotion() {
	n := &c.Notion
	n.Token = strings.TrimSpace(n.Token)
	n.TasksDatabaseID = strings.TrimSpace(n.TasksDatabaseID)
	n.NotesDatabaseID = strings.TrimSpace(n.NotesDatabaseID)
	n.ProjectsDatabaseID = strings.TrimSpace(n.ProjectsDatabaseID)
	if n.MaxParagraphChars <= 0 || n.MaxParagraphChars > 2000 {
		n.MaxParagraphChars = defaultNotionMaxParagraph
	}
}

func (c *Config) normalizeProject() {
	if c.Project.MaxAgeMinutes <= 0 {
		c.Project.MaxAgeMinutes = defaultProjectMaxAgeMin
	}
	if c.Project.HardCeilingHours <= 0 {
		c.Project.HardCeilingHours = defaultProjectHardCeilingH
	}
}

func (c *Config) normalizeRetry() {
	r := &c.Retry
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = defaultRetryMaxAttempts
	}
	if r.BaseDelaySeconds <= 0 {
		r.BaseDelaySeconds = defaultRetryBaseDelaySecs
	}
	if r.RateLimitMultiplier <= 0 {
		r.RateLimitMultiplier = defaultRetryRateLimitMult
	}
	if r.VerifyTimeoutSecs <= 0 {
		r.VerifyTimeoutSecs = defaultVerifyTimeoutSecs
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PollIntervalSeconds <= 0 {
		c.Workflow.PollIntervalSeconds = defaultWorkflowPollSeconds
	}
	c.Workflow.MetricsAddr = strings.TrimSpace(c.Workflow.MetricsAddr)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "":
		c.Logging.Format = defaultLogFormat
	case "console", "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// normalizeClassification falls back to the default vocabulary for any
// keyword list left empty, so a partially-specified config file doesn't
// silently disable a detector tier (spec.md §4.5).
func (c *Config) normalizeClassification() {
	defaults := Default().Classification
	if len(c.Classification.TaskKeywords) == 0 {
		c.Classification.TaskKeywords = defaults.TaskKeywords
	}
	if len(c.Classification.NoteKeywords) == 0 {
		c.Classification.NoteKeywords = defaults.NoteKeywords
	}
	if len(c.Classification.TaskImperatives) == 0 {
		c.Classification.TaskImperatives = defaults.TaskImperatives
	}
	if len(c.Classification.NoteIndicators) == 0 {
		c.Classification.NoteIndicators = defaults.NoteIndicators
	}
	if len(c.Classification.TaskIntentPhrases) == 0 {
		c.Classification.TaskIntentPhrases = defaults.TaskIntentPhrases
	}
	if len(c.Classification.CalendarKeywords) == 0 {
		c.Classification.CalendarKeywords = defaults.CalendarKeywords
	}
	if len(c.Classification.IgnoredProjectTokens) == 0 {
		c.Classification.IgnoredProjectTokens = defaults.IgnoredProjectTokens
	}
}
