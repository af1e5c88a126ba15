package storeclient

import (
	"context"
	"fmt"

	"voicepipe/internal/model"
	"voicepipe/internal/pipelineerr"
)

// CreateRecordPage builds and creates a page from an AnalysisRecord,
// wiring properties, icon, and chunked content blocks (spec.md §4.8
// Request construction).
func (c *Client) CreateRecordPage(ctx context.Context, databaseID string, record model.AnalysisRecord) (string, error) {
	return c.CreatePage(ctx, databaseID,
		BuildProperties(record),
		BuildIcon(record.Icon),
		BuildContentBlocks(record.Content))
}

// CreatePage creates a page in the given database and returns its ID
// (spec.md §4.8 Output).
func (c *Client) CreatePage(ctx context.Context, databaseID string, properties map[string]any, icon *Icon, children []Block) (string, error) {
	page := Page{
		Parent:     &Parent{DatabaseID: databaseID},
		Properties: properties,
		Icon:       icon,
		Children:   children,
	}

	var created Page
	if err := c.do(ctx, "POST", "/pages", page, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", pipelineerr.Wrap(pipelineerr.ErrValidation, pipelineerr.KindValidation, "store", "create_page", "no page id returned", nil)
	}
	return created.ID, nil
}

// RetrievePage fetches a page by ID; used by the verifier (spec.md §4.9).
func (c *Client) RetrievePage(ctx context.Context, pageID string) (Page, error) {
	var page Page
	if err := c.do(ctx, "GET", fmt.Sprintf("/pages/%s", pageID), nil, &page); err != nil {
		return Page{}, err
	}
	return page, nil
}

// queryRequest is the Notion database-query body.
type queryRequest struct {
	Filter      map[string]any `json:"filter,omitempty"`
	StartCursor string         `json:"start_cursor,omitempty"`
}

type queryResponse struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// QueryDatabase runs a filtered query against a database, following
// pagination cursors until exhausted (spec.md §6: "Query database for
// projects").
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, filter map[string]any) ([]Page, error) {
	var all []Page
	cursor := ""
	for {
		body := queryRequest{Filter: filter, StartCursor: cursor}

		var resp queryResponse
		if err := c.do(ctx, "POST", fmt.Sprintf("/databases/%s/query", databaseID), body, &resp); err != nil {
			return all, err
		}
		all = append(all, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}
	return all, nil
}
