package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"voicepipe/internal/detect"
	"voicepipe/internal/logging"
	"voicepipe/internal/model"
	"voicepipe/internal/pipelineerr"
	"voicepipe/internal/services"
)

// FileOutcome is one worker's result for one audio file, merged by the
// coordinator (spec.md §9 "Worker pool" redesign note).
type FileOutcome struct {
	Source      model.AudioSource
	Transcript  model.Transcript
	BackendName string
	Skipped     bool // duplicate avoidance reused an existing transcript
	Err         error
}

// SkipRetryPatterns marks error messages that should never be retried
// (spec.md §4.4.6). Matching is case-insensitive substring, same as the
// teacher's configured skip-list idiom.
type SkipRetryPatterns []string

func (p SkipRetryPatterns) matches(msg string) bool {
	lower := strings.ToLower(msg)
	for _, pattern := range p {
		if pattern == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// Pool runs a bounded worker pool of size P over one batch's files,
// retrying each failure once (skip-list permitting), sampling CPU after
// each completion and backing off the worker that sampled high usage
// (spec.md §4.4.5, §4.4.6, §4.4.7, §5).
type Pool struct {
	Size              int
	Chain             *Chain
	TranscriptsDir    string
	DuplicateMaxAge   time.Duration
	SkipPatterns      SkipRetryPatterns
	CPUCeilingPercent float64
	CPUBackoff        time.Duration
	CPUSampler        func() (float64, bool) // percent, available
	Logger            *slog.Logger
}

// Run processes every file in batch, returning one FileOutcome per file.
// Completion order within the batch is unspecified (spec.md §4.4.5,
// §5 "Ordering guarantees").
func (p *Pool) Run(ctx context.Context, batchIndex int, batch Batch) []FileOutcome {
	size := p.Size
	if size <= 0 {
		size = 3
	}
	logger := p.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	outcomes := make([]FileOutcome, len(batch.Files))
	var mu sync.Mutex // guards the shared CPU-sample-triggered sleep and progress counter
	sampler := logging.NewProgressSampler(20)
	completed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(size)

	for i, src := range batch.Files {
		i, src := i, src
		g.Go(func() error {
			workerID := fmt.Sprintf("worker-%d", i%size)
			workerCtx := services.WithWorker(gctx, workerID)
			outcomes[i] = p.processOne(workerCtx, workerID, src, logger)

			mu.Lock()
			completed++
			percent := float64(completed) / float64(len(batch.Files)) * 100
			emit := sampler.ShouldLog(percent, "transcribe", "")
			mu.Unlock()
			if emit {
				logger.Info("batch progress",
					logging.Int(logging.FieldBatchIndex, batchIndex),
					logging.Float64(logging.FieldProgressPercent, percent))
			}

			// Coarse global-pressure valve: sample CPU after every
			// completion and let the completing worker back off
			// (spec.md §4.4.5, §5 "Back-pressure"). Not per-worker
			// affinity -- any worker may be the one that sleeps.
			if p.CPUSampler != nil {
				mu.Lock()
				pct, ok := p.CPUSampler()
				mu.Unlock()
				if ok && pct > p.ceiling() {
					select {
					case <-time.After(p.backoff()):
					case <-gctx.Done():
					}
				}
			}
			return nil // per-file failures are carried in outcomes, not propagated
		})
	}
	_ = g.Wait()

	return outcomes
}

func (p *Pool) ceiling() float64 {
	if p.CPUCeilingPercent <= 0 {
		return 70
	}
	return p.CPUCeilingPercent
}

func (p *Pool) backoff() time.Duration {
	if p.CPUBackoff <= 0 {
		return 2 * time.Second
	}
	return p.CPUBackoff
}

func (p *Pool) processOne(ctx context.Context, workerID string, src model.AudioSource, logger *slog.Logger) FileOutcome {
	logger = logging.WithContext(ctx, logger)
	stem := strings.TrimSuffix(filepath.Base(src.Path), filepath.Ext(src.Path))

	if existing, ok := p.reuseDuplicate(stem); ok {
		logger.Info("reusing existing transcript",
			logging.String(logging.FieldAudioPath, src.Path),
			logging.String(logging.FieldEventType, "transcribe_duplicate_reuse"))
		return FileOutcome{Source: src, Transcript: existing, Skipped: true}
	}

	result := p.Chain.Run(ctx, src.Path, src.EstimatedMinutes*60)
	if result.Err == nil {
		transcript := model.Transcript{
			AudioStem: stem,
			Text:      result.Text,
			Path:      filepath.Join(p.TranscriptsDir, stem+".txt"),
			WordCount: wordCount(result.Text),
		}
		if writeErr := writeTranscript(transcript.Path, result.Text); writeErr != nil {
			return FileOutcome{Source: src, Err: writeErr}
		}
		return FileOutcome{Source: src, Transcript: transcript, BackendName: result.BackendName}
	}

	if pipelineerr.IsFatal(result.Err) || p.SkipPatterns.matches(result.Err.Error()) {
		return FileOutcome{Source: src, Err: result.Err}
	}

	// Retry once (spec.md §4.4.6).
	retryResult := p.Chain.Run(ctx, src.Path, src.EstimatedMinutes*60)
	if retryResult.Err == nil {
		transcript := model.Transcript{
			AudioStem: stem,
			Text:      retryResult.Text,
			Path:      filepath.Join(p.TranscriptsDir, stem+".txt"),
			WordCount: wordCount(retryResult.Text),
		}
		if writeErr := writeTranscript(transcript.Path, retryResult.Text); writeErr != nil {
			return FileOutcome{Source: src, Err: writeErr}
		}
		return FileOutcome{Source: src, Transcript: transcript, BackendName: retryResult.BackendName}
	}
	return FileOutcome{Source: src, Err: retryResult.Err}
}

// reuseDuplicate checks for an existing `<stem>.txt` younger than the
// configured max age with at least MinTranscriptChars (spec.md §4.4.3).
func (p *Pool) reuseDuplicate(stem string) (model.Transcript, bool) {
	if p.TranscriptsDir == "" {
		return model.Transcript{}, false
	}
	path := filepath.Join(p.TranscriptsDir, stem+".txt")
	info, err := os.Stat(path)
	if err != nil {
		return model.Transcript{}, false
	}
	maxAge := p.DuplicateMaxAge
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	if !detect.LastModifiedWithin(info.ModTime(), maxAge) {
		return model.Transcript{}, false
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Transcript{}, false
	}
	text, ok := CleanText(string(raw))
	if !ok {
		return model.Transcript{}, false
	}
	return model.Transcript{AudioStem: stem, Text: text, Path: path, WordCount: wordCount(text)}, true
}

func writeTranscript(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return pipelineerr.Wrap(pipelineerr.ErrResource, pipelineerr.KindResource, "transcribe", "write", "cannot create transcripts dir", err)
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
