// Package storeclient implements the document-store collaborator
// (spec.md §1, §6): a thin HTTP client against the Notion API's page and
// database-query endpoints. The schema and wire format are the
// collaborator's contract, not engineering surface, so the client is a
// direct net/http wrapper rather than a hand-rolled SDK -- no suitable
// third-party Notion client appears anywhere in the retrieval pack (see
// DESIGN.md).
package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voicepipe/internal/pipelineerr"
	"voicepipe/internal/retry"
)

const (
	defaultBaseURL    = "https://api.notion.com/v1"
	notionVersion     = "2022-06-28"
	defaultHTTPTimeout = 15 * time.Second
)

// Client wraps the Notion REST API's page/database endpoints with the
// shared retry policy (spec.md §4.8).
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	policy     retry.Policy
}

// New builds a Client. token empty means the client reports itself
// unavailable.
func New(token string, policy retry.Policy) *Client {
	policy.Classify = classifyStoreError
	return &Client{
		token:      strings.TrimSpace(token),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		policy:     policy,
	}
}

// Available reports whether an integration token was configured.
func (c *Client) Available() bool { return c.token != "" }

// Page mirrors the subset of the Notion page object the pipeline needs.
type Page struct {
	ID         string         `json:"id"`
	Archived   bool           `json:"archived"`
	Properties map[string]any `json:"properties,omitempty"`
	Icon       *Icon          `json:"icon,omitempty"`
	Parent     *Parent        `json:"parent,omitempty"`
	Children   []Block        `json:"children,omitempty"`
}

// Icon is a Notion page-level emoji icon.
type Icon struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
}

// Parent identifies the database a new page is created under.
type Parent struct {
	DatabaseID string `json:"database_id"`
}

// Block is a single paragraph content block.
type Block struct {
	Object    string         `json:"object"`
	Type      string         `json:"type"`
	Paragraph map[string]any `json:"paragraph"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if !c.Available() {
		return pipelineerr.Wrap(pipelineerr.ErrBackendGone, pipelineerr.KindBackendGone, "store", method, "no store token configured", nil)
	}

	return c.policy.Do(ctx, func(attempt int) error {
		var reader io.Reader
		if body != nil {
			encoded, err := json.Marshal(body)
			if err != nil {
				return pipelineerr.Wrap(pipelineerr.ErrValidation, pipelineerr.KindValidation, "store", "marshal", "encode request body", err)
			}
			reader = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return pipelineerr.Fatal(pipelineerr.ErrClientMisuse, pipelineerr.KindClientMisuse, "store", "request", "build request", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Notion-Version", notionVersion)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return pipelineerr.Wrap(pipelineerr.ErrTransient, pipelineerr.KindTransient, "store", method, "request failed", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return pipelineerr.Wrap(pipelineerr.ErrTransient, pipelineerr.KindTransient, "store", method, "read response", err)
		}

		if resp.StatusCode >= 300 {
			return classifyHTTPStatus(resp.StatusCode, data)
		}

		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return pipelineerr.Fatal(pipelineerr.ErrClientMisuse, pipelineerr.KindClientMisuse, "store", method, "parse response", err)
			}
		}
		return nil
	})
}

func classifyHTTPStatus(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	switch {
	case status == http.StatusTooManyRequests:
		return pipelineerr.Wrap(pipelineerr.ErrRateLimit, pipelineerr.KindRateLimit, "store", "http", fmt.Sprintf("rate limited: %s", msg), nil)
	case status >= 400 && status < 500:
		return pipelineerr.Fatal(pipelineerr.ErrClientMisuse, pipelineerr.KindClientMisuse, "store", "http", fmt.Sprintf("client error %d: %s", status, msg), nil)
	default:
		return pipelineerr.Wrap(pipelineerr.ErrTransient, pipelineerr.KindTransient, "store", "http", fmt.Sprintf("server error %d: %s", status, msg), nil)
	}
}

// classifyStoreError adapts pipelineerr's kind taxonomy to
// retry.Classification per spec.md §4.8's failure table: rate-limit and
// transient retry, 4xx (other than 429) surfaces immediately, 5xx
// retries.
func classifyStoreError(err error) retry.Classification {
	switch {
	case errors.Is(err, pipelineerr.ErrRateLimit):
		return retry.ClassifyRateLimited
	case errors.Is(err, pipelineerr.ErrTransient):
		return retry.ClassifyRetry
	default:
		return retry.ClassifyFatal
	}
}
