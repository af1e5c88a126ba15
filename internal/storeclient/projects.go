package storeclient

import (
	"context"
	"time"

	"voicepipe/internal/model"
)

// projectFetchTimeout bounds the catalog-refresh query issued at the start
// of the analyzer stage (spec.md §5 "refresh is performed synchronously").
const projectFetchTimeout = 30 * time.Second

// ProjectCatalogFetcher adapts a Client + database ID into
// resolver.ProjectFetcher, translating the store's page shape into
// model.ProjectRecord (spec.md §4.6).
type ProjectCatalogFetcher struct {
	Client     *Client
	DatabaseID string
}

// FetchProjects queries the projects database and parses each page's
// Name/Status/Aliases properties, keeping the page ID for later relation
// attachment (spec.md §4.8 "attaches a project relation").
func (f ProjectCatalogFetcher) FetchProjects() ([]model.ProjectRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), projectFetchTimeout)
	defer cancel()

	pages, err := f.Client.QueryDatabase(ctx, f.DatabaseID, nil)
	if err != nil {
		return nil, err
	}

	records := make([]model.ProjectRecord, 0, len(pages))
	for _, page := range pages {
		records = append(records, parseProjectRecord(page))
	}
	return records, nil
}

func parseProjectRecord(page Page) model.ProjectRecord {
	record := model.ProjectRecord{PageID: page.ID}

	if nameProp, ok := page.Properties["Name"].(map[string]any); ok {
		record.Name = firstPlainText(nameProp["title"])
	}
	if statusProp, ok := page.Properties["Status"].(map[string]any); ok {
		if sel, ok := statusProp["select"].(map[string]any); ok {
			if name, ok := sel["name"].(string); ok {
				record.Status = name
			}
		}
	}
	if aliasProp, ok := page.Properties["Aliases"].(map[string]any); ok {
		if items, ok := aliasProp["multi_select"].([]any); ok {
			for _, item := range items {
				if entry, ok := item.(map[string]any); ok {
					if name, ok := entry["name"].(string); ok && name != "" {
						record.Aliases = append(record.Aliases, name)
					}
				}
			}
		}
	}
	return record
}

// firstPlainText extracts the first rich-text segment's plain content from
// a Notion title/rich_text property array decoded as []any.
func firstPlainText(raw any) string {
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return ""
	}
	entry, ok := items[0].(map[string]any)
	if !ok {
		return ""
	}
	if text, ok := entry["plain_text"].(string); ok && text != "" {
		return text
	}
	if textObj, ok := entry["text"].(map[string]any); ok {
		if content, ok := textObj["content"].(string); ok {
			return content
		}
	}
	return ""
}
