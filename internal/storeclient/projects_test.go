package storeclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchProjectsParsesNameStatusAliases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(queryResponse{
			Results: []Page{
				{
					ID: "page-1",
					Properties: map[string]any{
						"Name":    map[string]any{"title": []any{map[string]any{"plain_text": "Life Admin HQ"}}},
						"Status":  map[string]any{"select": map[string]any{"name": "Ongoing"}},
						"Aliases": map[string]any{"multi_select": []any{map[string]any{"name": "admin hq"}, map[string]any{"name": "life admin"}}},
					},
				},
			},
		})
	}))
	defer server.Close()

	fetcher := ProjectCatalogFetcher{Client: newTestClient(t, server), DatabaseID: "db-1"}
	records, err := fetcher.FetchProjects()
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "page-1", records[0].PageID)
	assert.Equal(t, "Life Admin HQ", records[0].Name)
	assert.Equal(t, "Ongoing", records[0].Status)
	assert.ElementsMatch(t, []string{"admin hq", "life admin"}, records[0].Aliases)
}

func TestFetchProjectsHandlesMissingProperties(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(queryResponse{Results: []Page{{ID: "page-2"}}})
	}))
	defer server.Close()

	fetcher := ProjectCatalogFetcher{Client: newTestClient(t, server), DatabaseID: "db-1"}
	records, err := fetcher.FetchProjects()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "page-2", records[0].PageID)
	assert.Empty(t, records[0].Name)
}
