package storeclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicepipe/internal/model"
)

func TestCreateRecordPageWiresPropertiesIconAndContent(t *testing.T) {
	var captured Page
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(Page{ID: "created-1"})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	record := model.AnalysisRecord{
		Category: model.CategoryTask,
		Title:    "Call plumber",
		Icon:     "📞",
		Content:  "Call the plumber about the leak in the kitchen.",
	}

	id, err := c.CreateRecordPage(context.Background(), "db-1", record)
	require.NoError(t, err)
	assert.Equal(t, "created-1", id)

	require.NotNil(t, captured.Icon)
	assert.Equal(t, "📞", captured.Icon.Emoji)
	require.Len(t, captured.Children, 1)
}

func TestCreatePageValidationErrorOnMissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(Page{})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	_, err := c.CreatePage(context.Background(), "db-1", nil, nil, nil)
	require.Error(t, err)
}
