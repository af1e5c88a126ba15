// Package llmclient wraps the LLM text-completion collaborator used by
// Stage 4's analyzer: title generation, duration estimation, and task-content
// cleanup route through a single chat-style completion call (spec.md §6);
// tag detection and icon selection are keyword-based and make no LLM call. It is grounded on the same
// github.com/sashabaranov/go-openai client internal/transcribe uses for
// cloud transcription, reusing internal/retry instead of the teacher's
// hand-rolled backoff loop.
package llmclient

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"voicepipe/internal/pipelineerr"
	"voicepipe/internal/retry"
)

// Client issues chat-completion requests against an OpenAI-compatible
// endpoint, retrying transient/rate-limited failures via the shared
// retry.Policy (spec.md §9).
type Client struct {
	inner     *openai.Client
	model     string
	maxTokens int
	policy    retry.Policy
}

// New builds a Client. apiKey empty means the client reports itself
// unavailable rather than erroring at call time, matching
// transcribe.CloudBackend's pattern.
func New(apiKey, model string, maxTokens int, policy retry.Policy) *Client {
	var inner *openai.Client
	if strings.TrimSpace(apiKey) != "" {
		inner = openai.NewClient(apiKey)
	}
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	if maxTokens <= 0 {
		maxTokens = 256
	}
	policy.Classify = classifyLLMError
	return &Client{inner: inner, model: model, maxTokens: maxTokens, policy: policy}
}

// Available reports whether an API key was configured.
func (c *Client) Available() bool { return c.inner != nil }

// Complete issues a single-turn chat completion with the given system and
// user prompts and returns the assistant's trimmed text content.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.inner == nil {
		return "", pipelineerr.Wrap(pipelineerr.ErrBackendGone, pipelineerr.KindBackendGone, "analyze", "llm", "no API key configured", nil)
	}

	var result string
	err := c.policy.Do(ctx, func(attempt int) error {
		resp, err := c.inner.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:     c.model,
			MaxTokens: c.maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
		})
		if err != nil {
			return classifyChatError(err)
		}
		if len(resp.Choices) == 0 {
			return pipelineerr.Wrap(pipelineerr.ErrValidation, pipelineerr.KindValidation, "analyze", "llm", "empty completion", nil)
		}
		result = strings.TrimSpace(resp.Choices[0].Message.Content)
		if result == "" {
			return pipelineerr.Wrap(pipelineerr.ErrValidation, pipelineerr.KindValidation, "analyze", "llm", "empty completion content", nil)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

func classifyChatError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate") || strings.Contains(msg, "429"):
		return pipelineerr.Wrap(pipelineerr.ErrRateLimit, pipelineerr.KindRateLimit, "analyze", "llm", "rate limited", err)
	case errors.Is(err, context.DeadlineExceeded):
		return pipelineerr.Wrap(pipelineerr.ErrTransient, pipelineerr.KindTransient, "analyze", "llm", "timeout", err)
	case isAuthError(err):
		return pipelineerr.Wrap(pipelineerr.ErrClientMisuse, pipelineerr.KindClientMisuse, "analyze", "llm", "authentication failed", err)
	default:
		return pipelineerr.Wrap(pipelineerr.ErrTransient, pipelineerr.KindTransient, "analyze", "llm", "request failed", err)
	}
}

func isAuthError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden
	}
	return false
}

// classifyLLMError adapts pipelineerr's kind taxonomy to retry.Classification.
func classifyLLMError(err error) retry.Classification {
	switch {
	case errors.Is(err, pipelineerr.ErrRateLimit):
		return retry.ClassifyRateLimited
	case errors.Is(err, pipelineerr.ErrTransient):
		return retry.ClassifyRetry
	default:
		return retry.ClassifyFatal
	}
}

// DefaultTimeout is used by callers that need to bound a single Complete
// call independent of the retry policy's own attempt budget.
const DefaultTimeout = 30 * time.Second
