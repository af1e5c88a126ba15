package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config encapsulates all configuration values for voicepipe.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Recorder      Recorder      `toml:"recorder"`
	Transcription Transcription `toml:"transcription"`
	OpenAI        OpenAI        `toml:"openai"`
	Notion        Notion        `toml:"notion"`
	Project       Project       `toml:"project"`
	Retry         Retry         `toml:"retry"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
	Classification Classification `toml:"classification"`
}

// Paths groups every on-disk directory voicepipe reads from or writes to.
type Paths struct {
	StagingDir    string `toml:"staging_dir"`
	StateDir      string `toml:"state_dir"`
	LogDir        string `toml:"log_dir"`
	ArchiveDir    string `toml:"archive_dir"`
	FailedDir     string `toml:"failed_dir"`
	ProjectCache  string `toml:"project_cache_path"`
	RetentionDays int    `toml:"retention_days"`
}

// Recorder describes the removable-media mount layout the detector scans
// (spec.md §6).
type Recorder struct {
	MountPath           string  `toml:"mount_path"`
	SkipThresholdSecs   float64 `toml:"skip_threshold_seconds"`
	MaxDurationMinutes  float64 `toml:"max_duration_minutes"`
	BytesPerSecondProxy float64 `toml:"bytes_per_second_proxy"`
}

// Transcription governs backend selection, batching, and throttling
// (spec.md §4.4).
type Transcription struct {
	Mode                  string  `toml:"mode"` // auto | cloud | local
	CloudModel            string  `toml:"cloud_model"`
	CloudTimeoutSeconds   int     `toml:"cloud_timeout_seconds"`
	LocalBinary           string  `toml:"local_binary"`
	LocalModel            string  `toml:"local_model"`
	LocalLanguage         string  `toml:"local_language"`
	LocalMinTimeoutMin    float64 `toml:"local_min_timeout_minutes"`
	BatchWorkBudgetMin    float64 `toml:"batch_work_budget_minutes"`
	BatchMaxFiles         int     `toml:"batch_max_files"`
	BatchMinFiles         int     `toml:"batch_min_files"`
	WorkerPoolSize        int     `toml:"worker_pool_size"`
	CPUCeilingPercent     float64 `toml:"cpu_ceiling_percent"`
	CPUBackoffSeconds     int     `toml:"cpu_backoff_seconds"`
	MinDiskBufferMiB      int     `toml:"min_disk_buffer_mib"`
	MinFreeRAMMiB         int     `toml:"min_free_ram_mib"`
	DuplicateMaxAgeMin    int     `toml:"duplicate_max_age_minutes"`
	SkipRetryPatterns     []string `toml:"skip_retry_patterns"`
	MinTranscriptChars    int     `toml:"min_transcript_chars"`
}

// OpenAI configures the LLM text-completion collaborator (spec.md §6).
type OpenAI struct {
	APIKey             string `toml:"api_key"`
	Model              string `toml:"model"`
	MaxTokens          int    `toml:"max_tokens"`
	PreservationWords  int    `toml:"preservation_threshold_words"`
	GroqAPIKey         string `toml:"groq_api_key"`
}

// Notion configures the document-store collaborator (spec.md §6).
type Notion struct {
	Token              string `toml:"token"`
	TasksDatabaseID    string `toml:"tasks_database_id"`
	NotesDatabaseID    string `toml:"notes_database_id"`
	ProjectsDatabaseID string `toml:"projects_database_id"`
	MaxParagraphChars  int    `toml:"max_paragraph_chars"`
}

// Project configures the catalog cache freshness policy (spec.md §4.6).
type Project struct {
	MaxAgeMinutes    int `toml:"max_age_minutes"`
	HardCeilingHours int `toml:"hard_ceiling_hours"`
}

// Retry configures the shared retry policy defaults (spec.md §4.8, §9).
type Retry struct {
	MaxAttempts         int     `toml:"max_attempts"`
	BaseDelaySeconds    float64 `toml:"base_delay_seconds"`
	RateLimitMultiplier float64 `toml:"rate_limit_multiplier"`
	VerifyTimeoutSecs   int     `toml:"verify_timeout_seconds"`
}

// Workflow governs the orchestrator's CLI-facing controls (spec.md §6).
type Workflow struct {
	PollIntervalSeconds int  `toml:"poll_interval_seconds"`
	AutoContinue        bool `toml:"auto_continue"`
	MetricsAddr         string `toml:"metrics_addr"`
}

// Logging mirrors the teacher's logging section.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Classification configures the five-tier category detector's keyword and
// phrase vocabularies (spec.md §4.5).
type Classification struct {
	TaskKeywords      []string `toml:"task_keywords"`
	NoteKeywords      []string `toml:"note_keywords"`
	TaskImperatives   []string `toml:"task_imperatives"`
	NoteIndicators    []string `toml:"note_indicators"`
	TaskIntentPhrases []string `toml:"task_intent_phrases"`
	CalendarKeywords  []string `toml:"calendar_keywords"`
	IgnoredProjectTokens []string `toml:"ignored_project_tokens"`
}

const (
	defaultMountPath           = "/Volumes/IC RECORDER/REC_FILE/FOLDER01"
	defaultSkipThresholdSecs   = 2.0
	defaultMaxDurationMinutes  = 10.0
	defaultBytesPerSecondProxy = 33.0 * 1024 / 2.0 // 33 KiB per 2s, per spec.md §4.2

	defaultCloudModel          = "whisper-1"
	defaultCloudTimeoutSeconds = 30
	defaultLocalBinary         = "whisper"
	defaultLocalModel          = "base"
	defaultLocalLanguage       = "en"
	defaultLocalMinTimeoutMin  = 20.0
	defaultBatchWorkBudgetMin  = 7.0
	defaultBatchMaxFiles       = 4
	defaultBatchMinFiles       = 1
	defaultWorkerPoolSize      = 3
	defaultCPUCeilingPercent   = 70.0
	defaultCPUBackoffSeconds   = 2
	defaultMinDiskBufferMiB    = 100
	defaultMinFreeRAMMiB       = 1024
	defaultDuplicateMaxAgeMin  = 60
	defaultMinTranscriptChars  = 10

	defaultOpenAIModel         = "gpt-3.5-turbo"
	defaultOpenAIMaxTokens     = 256
	defaultPreservationWords   = 800

	defaultNotionMaxParagraph  = 1800

	defaultProjectMaxAgeMin    = 60
	defaultProjectHardCeilingH = 24

	defaultRetryMaxAttempts    = 3
	defaultRetryBaseDelaySecs  = 2.0
	defaultRetryRateLimitMult  = 2.0
	defaultVerifyTimeoutSecs   = 10

	defaultWorkflowPollSeconds = 30
	defaultRetentionDays       = 7

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:    "~/.local/share/voicepipe/staging",
			StateDir:      "~/.local/share/voicepipe/.cache",
			LogDir:        "~/.local/share/voicepipe/logs",
			ArchiveDir:    "~/.local/share/voicepipe/Archives",
			FailedDir:     "~/.local/share/voicepipe/Failed",
			ProjectCache:  "~/.local/share/voicepipe/.cache/projects.json",
			RetentionDays: defaultRetentionDays,
		},
		Recorder: Recorder{
			MountPath:           defaultMountPath,
			SkipThresholdSecs:   defaultSkipThresholdSecs,
			MaxDurationMinutes:  defaultMaxDurationMinutes,
			BytesPerSecondProxy: defaultBytesPerSecondProxy,
		},
		Transcription: Transcription{
			Mode:                "auto",
			CloudModel:          defaultCloudModel,
			CloudTimeoutSeconds: defaultCloudTimeoutSeconds,
			LocalBinary:         defaultLocalBinary,
			LocalModel:          defaultLocalModel,
			LocalLanguage:       defaultLocalLanguage,
			LocalMinTimeoutMin:  defaultLocalMinTimeoutMin,
			BatchWorkBudgetMin:  defaultBatchWorkBudgetMin,
			BatchMaxFiles:       defaultBatchMaxFiles,
			BatchMinFiles:       defaultBatchMinFiles,
			WorkerPoolSize:      defaultWorkerPoolSize,
			CPUCeilingPercent:   defaultCPUCeilingPercent,
			CPUBackoffSeconds:   defaultCPUBackoffSeconds,
			MinDiskBufferMiB:    defaultMinDiskBufferMiB,
			MinFreeRAMMiB:       defaultMinFreeRAMMiB,
			DuplicateMaxAgeMin:  defaultDuplicateMaxAgeMin,
			SkipRetryPatterns:   []string{"permission", "transcript too short"},
			MinTranscriptChars:  defaultMinTranscriptChars,
		},
		OpenAI: OpenAI{
			Model:             defaultOpenAIModel,
			MaxTokens:         defaultOpenAIMaxTokens,
			PreservationWords: defaultPreservationWords,
		},
		Notion: Notion{
			MaxParagraphChars: defaultNotionMaxParagraph,
		},
		Project: Project{
			MaxAgeMinutes:    defaultProjectMaxAgeMin,
			HardCeilingHours: defaultProjectHardCeilingH,
		},
		Retry: Retry{
			MaxAttempts:         defaultRetryMaxAttempts,
			BaseDelaySeconds:    defaultRetryBaseDelaySecs,
			RateLimitMultiplier: defaultRetryRateLimitMult,
			VerifyTimeoutSecs:   defaultVerifyTimeoutSecs,
		},
		Workflow: Workflow{
			PollIntervalSeconds: defaultWorkflowPollSeconds,
			AutoContinue:        false,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Classification: Classification{
			TaskKeywords:      []string{"todo", "to-do", "action item", "remember to"},
			NoteKeywords:      []string{"journal", "reflection", "thoughts on"},
			TaskImperatives:   []string{"fix", "buy", "call", "schedule", "email", "send", "book", "order", "pay", "cancel", "renew", "update", "review"},
			NoteIndicators:    []string{"i noticed", "i realized", "was thinking", "i've been thinking", "occurred to me"},
			TaskIntentPhrases: []string{"i want to", "i need to", "i should", "i have to"},
			CalendarKeywords:  []string{"meeting", "appointment", "next week", "tomorrow at", "scheduled for"},
			IgnoredProjectTokens: []string{"task", "note", "project", "tasks", "notes", "projects"},
		},
	}
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/voicepipe/config.toml")
}

// Load locates, parses, and validates a configuration file, then applies
// DOTTED_KEY -> DOTTED_KEY_UPPER environment overrides (spec.md §6). The
// returned values are (config, resolved path, created-default bool, error).
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	applyAuthEnvVars(&cfg)

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/voicepipe/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("voicepipe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// applyAuthEnvVars reads the named secrets spec.md §6 requires directly from
// the environment, independent of the generic dotted-key pass below.
func applyAuthEnvVars(c *Config) {
	if v, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
		c.OpenAI.APIKey = v
	}
	if v, ok := os.LookupEnv("GROQ_API_KEY"); ok {
		c.OpenAI.GroqAPIKey = v
	}
	if v, ok := os.LookupEnv("NOTION_TOKEN"); ok {
		c.Notion.Token = v
	}
	if v, ok := os.LookupEnv("TASKS_DATABASE_ID"); ok {
		c.Notion.TasksDatabaseID = v
	}
	if v, ok := os.LookupEnv("NOTES_DATABASE_ID"); ok {
		c.Notion.NotesDatabaseID = v
	}
	if v, ok := os.LookupEnv("PROJECTS_DATABASE_ID"); ok {
		c.Notion.ProjectsDatabaseID = v
	}
}

// applyEnvOverrides walks every `toml`-tagged leaf field and applies an
// override from DOTTED_KEY_UPPER if set, generalizing spec.md §6's single
// named example (openai.model -> OPENAI_MODEL) to every field in Config.
func applyEnvOverrides(c *Config) {
	walkConfigFields(reflect.ValueOf(c).Elem(), nil)
}

func walkConfigFields(v reflect.Value, prefix []string) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("toml")
		if tag == "" || tag == "-" {
			continue
		}
		path := append(append([]string{}, prefix...), tag)
		fv := v.Field(i)
		if fv.Kind() == reflect.Struct {
			walkConfigFields(fv, path)
			continue
		}
		envKey := strings.ToUpper(strings.Join(path, "_"))
		raw, ok := os.LookupEnv(envKey)
		if !ok {
			continue
		}
		setFieldFromEnv(fv, raw)
	}
}

func setFieldFromEnv(fv reflect.Value, raw string) {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int64:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			fv.SetInt(n)
		}
	case reflect.Float64:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			fv.SetFloat(f)
		}
	case reflect.Bool:
		if b, err := strconv.ParseBool(raw); err == nil {
			fv.SetBool(b)
		}
	case reflect.Slice:
		if fv.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(raw, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			fv.Set(reflect.ValueOf(parts))
		}
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// EnsureDirectories creates the directories voicepipe writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.StagingDir,
		c.Paths.StateDir,
		c.Paths.LogDir,
		c.Paths.ArchiveDir,
		c.Paths.FailedDir,
		filepath.Join(c.Paths.FailedDir, "failed_recordings"),
		filepath.Join(c.Paths.FailedDir, "failed_transcripts"),
		filepath.Join(c.Paths.FailedDir, "failure_logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.Paths.ProjectCache); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SessionStatePath returns the path to the session state JSON file
// (spec.md §6: `.cache/recording_states.json`).
func (c *Config) SessionStatePath() string {
	return filepath.Join(c.Paths.StateDir, "recording_states.json")
}

// CreateSample writes a commented default configuration file.
func CreateSample(path string) error {
	sample := `# voicepipe configuration
# =======================

[paths]
staging_dir = "~/.local/share/voicepipe/staging"   # local copies of recorder audio
state_dir = "~/.local/share/voicepipe/.cache"       # session state + project cache
log_dir = "~/.local/share/voicepipe/logs"
archive_dir = "~/.local/share/voicepipe/Archives"
failed_dir = "~/.local/share/voicepipe/Failed"
project_cache_path = "~/.local/share/voicepipe/.cache/projects.json"
retention_days = 7

[recorder]
mount_path = "/Volumes/IC RECORDER/REC_FILE/FOLDER01"
skip_threshold_seconds = 2.0
max_duration_minutes = 10.0

[transcription]
mode = "auto"                         # auto | cloud | local
cloud_model = "whisper-1"
cloud_timeout_seconds = 30
local_binary = "whisper"
local_model = "base"
local_language = "en"
local_min_timeout_minutes = 20.0
batch_work_budget_minutes = 7.0
batch_max_files = 4
batch_min_files = 1
worker_pool_size = 3
cpu_ceiling_percent = 70.0
cpu_backoff_seconds = 2
min_disk_buffer_mib = 100
min_free_ram_mib = 1024
duplicate_max_age_minutes = 60
skip_retry_patterns = ["permission", "transcript too short"]
min_transcript_chars = 10

[openai]
api_key = ""                          # or OPENAI_API_KEY env var
model = "gpt-3.5-turbo"
max_tokens = 256
preservation_threshold_words = 800
groq_api_key = ""                     # or GROQ_API_KEY env var

[notion]
token = ""                            # or NOTION_TOKEN env var
tasks_database_id = ""                # or TASKS_DATABASE_ID env var
notes_database_id = ""                # or NOTES_DATABASE_ID env var
projects_database_id = ""             # or PROJECTS_DATABASE_ID env var
max_paragraph_chars = 1800

[project]
max_age_minutes = 60
hard_ceiling_hours = 24

[retry]
max_attempts = 3
base_delay_seconds = 2.0
rate_limit_multiplier = 2.0
verify_timeout_seconds = 10

[workflow]
poll_interval_seconds = 30
auto_continue = false
metrics_addr = ""                     # empty disables the optional /metrics endpoint

[logging]
format = "console"                    # "console" or "json"
level = "info"
`
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
