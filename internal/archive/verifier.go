package archive

import (
	"context"
	"errors"
	"time"

	"voicepipe/internal/pipelineerr"
	"voicepipe/internal/retry"
	"voicepipe/internal/storeclient"
)

// VerifyTimeout is the per-attempt wall-clock cap on a page-fetch
// (spec.md §4.9).
const VerifyTimeout = 10 * time.Second

// PageFetcher is the subset of storeclient.Client the verifier depends on.
// Implemented by *storeclient.Client.
type PageFetcher interface {
	RetrievePage(ctx context.Context, pageID string) (storeclient.Page, error)
}

// Verifier confirms a Stage-4 store_entry_id still exists and is not
// archived, using the same retry policy shape as the store writer
// (spec.md §4.9, §4.8).
type Verifier struct {
	Fetcher PageFetcher
	Policy  retry.Policy
}

// NewVerifier builds a Verifier with the default §4.8 retry shape
// (3 attempts, 2s base delay, rate-limit doubling).
func NewVerifier(fetcher PageFetcher) *Verifier {
	policy := retry.DefaultPolicy(classifyVerifyError)
	return &Verifier{Fetcher: fetcher, Policy: policy}
}

// Verify reports whether pageID resolves to a non-archived page. Any
// failure to confirm -- timeout, exhausted retries, or an archived page --
// is a verification miss; the caller must not archive or delete the
// corresponding source (spec.md §4.9 "Verification passes iff").
func (v *Verifier) Verify(ctx context.Context, pageID string) (bool, error) {
	if pageID == "" {
		return false, pipelineerr.Wrap(pipelineerr.ErrValidation, pipelineerr.KindValidation, "verify", "page_id", "empty store entry id", nil)
	}

	var page storeclient.Page
	err := v.Policy.Do(ctx, func(attempt int) error {
		attemptCtx, cancel := context.WithTimeout(ctx, VerifyTimeout)
		defer cancel()

		fetched, fetchErr := v.Fetcher.RetrievePage(attemptCtx, pageID)
		if fetchErr != nil {
			return classifyFetchError(fetchErr)
		}
		page = fetched
		return nil
	})
	if err != nil {
		return false, err
	}

	if page.ID != pageID || page.Archived {
		return false, pipelineerr.Wrap(pipelineerr.ErrVerifyMiss, pipelineerr.KindVerifyMiss, "verify", "retrieve_page", "page missing or archived", nil)
	}
	return true, nil
}

func classifyFetchError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return pipelineerr.Wrap(pipelineerr.ErrTransient, pipelineerr.KindTransient, "verify", "retrieve_page", "timed out", err)
	default:
		return err
	}
}

func classifyVerifyError(err error) retry.Classification {
	switch {
	case errors.Is(err, pipelineerr.ErrRateLimit):
		return retry.ClassifyRateLimited
	case errors.Is(err, pipelineerr.ErrTransient):
		return retry.ClassifyRetry
	default:
		return retry.ClassifyFatal
	}
}
