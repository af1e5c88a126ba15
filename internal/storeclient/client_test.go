package storeclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicepipe/internal/retry"
)

func testPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:         3,
		BaseDelay:           time.Millisecond,
		RateLimitMultiplier: 1,
		Sleeper:             func(context.Context, time.Duration) error { return nil },
	}
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	c := New("test-token", testPolicy())
	c.baseURL = server.URL
	return c
}

func TestClientUnavailableWithoutToken(t *testing.T) {
	c := New("", testPolicy())
	assert.False(t, c.Available())

	_, err := c.RetrievePage(context.Background(), "page-1")
	require.Error(t, err)
}

func TestCreatePageReturnsID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pages", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, notionVersion, r.Header.Get("Notion-Version"))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(Page{ID: "page-123"})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	id, err := c.CreatePage(context.Background(), "db-1", map[string]any{"Name": "x"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "page-123", id)
}

func TestCreatePageRetriesOnRateLimit(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"rate limited"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(Page{ID: "page-after-retry"})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	id, err := c.CreatePage(context.Background(), "db-1", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "page-after-retry", id)
	assert.Equal(t, 2, attempts)
}

func TestCreatePageDoesNotRetryClientError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad request"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	_, err := c.CreatePage(context.Background(), "db-1", nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetrievePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pages/page-1", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(Page{ID: "page-1", Archived: true})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	page, err := c.RetrievePage(context.Background(), "page-1")
	require.NoError(t, err)
	assert.Equal(t, "page-1", page.ID)
	assert.True(t, page.Archived)
}

func TestQueryDatabaseFollowsPagination(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req queryRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		w.WriteHeader(http.StatusOK)
		if req.StartCursor == "" {
			_ = json.NewEncoder(w).Encode(queryResponse{
				Results:    []Page{{ID: "p1"}},
				HasMore:    true,
				NextCursor: "cursor-2",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(queryResponse{Results: []Page{{ID: "p2"}}})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	pages, err := c.QueryDatabase(context.Background(), "db-1", map[string]any{"property": "Status"})
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "p1", pages[0].ID)
	assert.Equal(t, "p2", pages[1].ID)
	assert.Equal(t, 2, calls)
}
