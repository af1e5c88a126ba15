package transcribe

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"voicepipe/internal/pipelineerr"
)

// CloudBackend submits the file to a remote Whisper-class API. Expected
// latency is ~1-5s per 3-minute file; failure modes are network error,
// auth error, rate limit, and timeout (spec.md §4.4.1).
type CloudBackend struct {
	client         *openai.Client
	model          string
	timeoutSeconds int
}

// NewCloudBackend builds a CloudBackend. apiKey empty means the backend
// reports itself unavailable rather than erroring at call time.
func NewCloudBackend(apiKey, model string, timeoutSeconds int) *CloudBackend {
	var client *openai.Client
	if strings.TrimSpace(apiKey) != "" {
		client = openai.NewClient(apiKey)
	}
	if model == "" {
		model = openai.Whisper1
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	return &CloudBackend{client: client, model: model, timeoutSeconds: timeoutSeconds}
}

func (c *CloudBackend) Name() string { return "cloud" }

func (c *CloudBackend) IsAvailable(ctx context.Context) bool {
	return c.client != nil
}

func (c *CloudBackend) Transcribe(ctx context.Context, audioPath string, estimatedSeconds float64) (string, error) {
	if c.client == nil {
		return "", pipelineerr.Wrap(pipelineerr.ErrBackendGone, pipelineerr.KindBackendGone, "transcribe", "cloud", "no API key configured", nil)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(c.timeoutSeconds)*time.Second)
	defer cancel()

	resp, err := c.client.CreateTranscription(timeoutCtx, openai.AudioRequest{
		Model:    c.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		return "", classifyCloudError(err)
	}

	text, ok := CleanText(resp.Text)
	if !ok {
		return "", pipelineerr.Wrap(pipelineerr.ErrValidation, pipelineerr.KindValidation, "transcribe", "cloud", "transcript too short", nil)
	}
	return text, nil
}

func classifyCloudError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate") || strings.Contains(msg, "429"):
		return pipelineerr.Wrap(pipelineerr.ErrRateLimit, pipelineerr.KindRateLimit, "transcribe", "cloud", "rate limited", err)
	case errors.Is(err, context.DeadlineExceeded):
		return pipelineerr.Wrap(pipelineerr.ErrTransient, pipelineerr.KindTransient, "transcribe", "cloud", "timeout", err)
	case isAuthError(err):
		return pipelineerr.Wrap(pipelineerr.ErrClientMisuse, pipelineerr.KindClientMisuse, "transcribe", "cloud", "authentication failed", err)
	default:
		return pipelineerr.Wrap(pipelineerr.ErrTransient, pipelineerr.KindTransient, "transcribe", "cloud", "request failed", err)
	}
}

func isAuthError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden
	}
	return false
}
