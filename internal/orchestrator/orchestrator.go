package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"voicepipe/internal/analyzer"
	"voicepipe/internal/archive"
	"voicepipe/internal/config"
	"voicepipe/internal/detect"
	"voicepipe/internal/llmclient"
	"voicepipe/internal/logging"
	"voicepipe/internal/metrics"
	"voicepipe/internal/model"
	"voicepipe/internal/resolver"
	"voicepipe/internal/retry"
	"voicepipe/internal/services"
	"voicepipe/internal/staging"
	"voicepipe/internal/state"
	"voicepipe/internal/storeclient"
	"voicepipe/internal/transcribe"
)

// Stage names used in RunOptions.SkipSteps and state.FailedEntry.Stage
// (spec.md §2).
const (
	StageDetect        = "detect"
	StageValidatePlan  = "validate_plan"
	StageTranscribe    = "transcribe"
	StageAnalyze       = "analyze"
	StageVerifyArchive = "verify_archive"
	StageCleanup       = "cleanup"
)

// Orchestrator wires every pipeline stage together and drives one session
// at a time (spec.md §2, §5). It owns no domain logic of its own beyond
// sequencing: every decision lives in the stage package it delegates to.
type Orchestrator struct {
	cfg    *config.Config
	logger *slog.Logger

	store       *state.Store
	validator   detect.Validator
	staging     *staging.Manager
	chain       *transcribe.Chain
	pool        *transcribe.Pool
	detector    parserDetector
	catalog     *resolver.Catalog
	llm         *llmclient.Client
	analyzeOpts analyzer.Options
	storeClient *storeclient.Client
	verifier    *archive.Verifier
	archiver    *archive.Archiver
	cleaner     *archive.Cleaner
	metrics     *metrics.Registry

	now func() time.Time
}

// parserDetector is the subset of parser.Detector the orchestrator calls,
// named so tests can substitute a stub without constructing keyword lists.
type parserDetector interface {
	Detect(text string) model.CategoryDecision
}

// RunOptions controls one invocation of Run (spec.md §6 CLI flags).
type RunOptions struct {
	DryRun    bool
	SkipSteps map[string]bool
	StartedAt time.Time // overrides time.Now for session IDs and archive dating; tests only
}

// Summary is the operator-facing result of one Run call (spec.md §7
// "per-stage banner").
type Summary struct {
	SessionID      string
	Opened         bool
	StageSummaries map[string]state.StageSummary
	FailedEntries  []state.FailedEntry
	BytesArchived  int64
}

// New builds an Orchestrator from a fully-resolved configuration. Backend
// construction (cloud/local/chain) is left to the caller via WithBackends
// so cmd/voicepipe controls credential wiring explicitly.
func New(cfg *config.Config, logger *slog.Logger, detector parserDetector) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	llm := llmclient.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.MaxTokens, defaultRetryPolicy(cfg))

	catalog := resolver.NewCatalog(cfg.Paths.ProjectCache,
		time.Duration(cfg.Project.MaxAgeMinutes)*time.Minute,
		time.Duration(cfg.Project.HardCeilingHours)*time.Hour,
		logger)

	storeClient := storeclient.New(cfg.Notion.Token, defaultRetryPolicy(cfg))

	o := &Orchestrator{
		cfg:    cfg,
		logger: logger,
		store:  state.New(filepath.Join(cfg.Paths.StateDir, "recording_states.json"), cfg.Paths.RetentionDays),
		validator: detect.Validator{
			SkipThresholdSeconds: cfg.Recorder.SkipThresholdSecs,
			MaxDurationMinutes:   cfg.Recorder.MaxDurationMinutes,
			BytesPerSecondProxy:  cfg.Recorder.BytesPerSecondProxy,
		},
		staging:  staging.NewManager(cfg.Paths.StagingDir, logging.NewComponentLogger(logger, "staging")),
		detector: detector,
		catalog:  catalog,
		llm:      llm,
		storeClient: storeClient,
		verifier: archive.NewVerifier(storeClient),
		archiver: archive.NewArchiver(logging.NewComponentLogger(logger, "archive")),
		cleaner:  archive.NewCleaner(logging.NewComponentLogger(logger, "cleanup")),
		now:      time.Now,
	}

	o.analyzeOpts = analyzer.Options{
		LLM:                  llm,
		Catalog:              catalog,
		TagRules:             analyzer.DefaultTagRules(),
		Icons:                analyzer.NewIconSelector(analyzer.DefaultIconRules(), analyzer.DefaultIcon),
		IgnoredProjectTokens: cfg.Classification.IgnoredProjectTokens,
		PreservationThreshold: cfg.OpenAI.PreservationWords,
	}

	return o
}

// WithBackends installs the transcription chain and worker pool built from
// live backends (spec.md §4.4.2). Split from New so cmd/voicepipe can
// decide backend construction (e.g. skip cloud when no API key is set)
// without Orchestrator reaching into os.Getenv itself.
func (o *Orchestrator) WithBackends(chain *transcribe.Chain) *Orchestrator {
	o.chain = chain
	o.pool = &transcribe.Pool{
		Size:              o.cfg.Transcription.WorkerPoolSize,
		Chain:             chain,
		TranscriptsDir:    o.cfg.Paths.StagingDir,
		DuplicateMaxAge:   time.Duration(o.cfg.Transcription.DuplicateMaxAgeMin) * time.Minute,
		SkipPatterns:      transcribe.SkipRetryPatterns(o.cfg.Transcription.SkipRetryPatterns),
		CPUCeilingPercent: o.cfg.Transcription.CPUCeilingPercent,
		CPUBackoff:        time.Duration(o.cfg.Transcription.CPUBackoffSeconds) * time.Second,
		CPUSampler: func() (float64, bool) {
			return transcribe.CPUSampler(context.Background())
		},
		Logger: logging.NewComponentLogger(o.logger, "transcribe"),
	}
	return o
}

// WithMetrics installs a Prometheus metric registry for the optional
// --metrics-addr flag. A nil registry is safe: every Registry method is a
// no-op receiver, so callers that skip this method still work unmodified.
func (o *Orchestrator) WithMetrics(m *metrics.Registry) *Orchestrator {
	o.metrics = m
	return o
}

func defaultRetryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts:         cfg.Retry.MaxAttempts,
		BaseDelay:           time.Duration(cfg.Retry.BaseDelaySeconds * float64(time.Second)),
		RateLimitMultiplier: cfg.Retry.RateLimitMultiplier,
	}
}

// Run drives one pass of the six-stage pipeline: Detect, Validate & Plan,
// Transcribe, Analyze, Verify & Archive, Cleanup (spec.md §2). Stages named
// in opts.SkipSteps are skipped entirely, except Detect: candidate discovery
// always runs, because a session is opened only when it finds files. The
// session is opened and finalized around whichever stages run, matching the CLI's
// --skip-steps contract (spec.md §6).
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (Summary, error) {
	startedAt := opts.StartedAt
	if startedAt.IsZero() {
		startedAt = o.now()
	}

	unlock, err := o.store.Lock(ctx)
	if err != nil {
		return Summary{}, err
	}
	defer unlock()

	doc, err := o.store.Load()
	if err != nil {
		return Summary{}, fmt.Errorf("load session state: %w", err)
	}

	sources, err := o.runDetect(doc)
	if err != nil {
		return Summary{}, err
	}
	if len(sources) == 0 {
		o.logger.Info("no unprocessed recordings found",
			logging.String(logging.FieldEventType, "detect_empty"))
		return Summary{}, nil
	}

	sessionID := state.NewSessionID(startedAt)
	state.OpenSession(&doc, sessionID, startedAt, o.cfg.Paths.ArchiveDir, o.cfg.Paths.RetentionDays)
	sess := doc.CurrentSession

	ctx = services.WithSessionID(ctx, sessionID)
	ctx = services.WithRequestID(ctx, uuid.NewString())

	logger := logging.NewComponentLogger(o.logger, "orchestrator")
	logger = logging.WithContext(ctx, logger)
	logger.Info("session opened",
		logging.String(logging.FieldSessionID, sessionID),
		logging.Int("candidates", len(sources)))

	valid, rejected := sources, map[string]detect.Reason{}
	if !opts.SkipSteps[StageValidatePlan] {
		valid, rejected = o.runValidatePlan(sess, sources)
	}
	for path, reason := range rejected {
		sess.FailedEntries = append(sess.FailedEntries, state.FailedEntry{Path: path, Stage: StageValidatePlan, Reason: detect.DescribeRejection(path, reason)})
	}

	if opts.DryRun {
		if err := o.store.Save(doc); err != nil {
			return Summary{}, fmt.Errorf("save dry-run session: %w", err)
		}
		return summaryFrom(sess), nil
	}

	transcripts := o.runTranscribe(services.WithStage(ctx, StageTranscribe), sess, opts, valid)
	records := o.runAnalyze(services.WithStage(ctx, StageAnalyze), sess, opts, transcripts)
	archived, bytesArchived := o.runVerifyArchive(services.WithStage(ctx, StageVerifyArchive), sess, opts, records)
	o.runCleanup(services.WithStage(ctx, StageCleanup), sess, opts, archived)

	if n := len(sess.FailedEntries); n > 0 {
		last := sess.FailedEntries[n-1]
		state.RecordError(&doc, fmt.Sprintf("%s: %s", last.Stage, last.Reason))
	}
	state.RecordSuccess(&doc, len(sess.RecordingsProcessed), len(sess.FailedEntries), o.now())
	state.Finalize(&doc, o.now())

	if err := o.store.Save(doc); err != nil {
		return Summary{}, fmt.Errorf("save finalized session: %w", err)
	}

	summary := summaryFrom(sess)
	summary.BytesArchived = bytesArchived
	return summary, nil
}

func summaryFrom(sess *state.Session) Summary {
	return Summary{
		SessionID:      sess.ID,
		Opened:         true,
		StageSummaries: sess.StageSummaries,
		FailedEntries:  sess.FailedEntries,
	}
}
