// Package resolver implements the project catalog cache and fuzzy matcher
// (spec.md §4.6): a JSON-backed, freshness-policed cache of known projects
// and a five-level matcher that maps extracted phrases onto catalog
// entries.
package resolver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"voicepipe/internal/logging"
	"voicepipe/internal/model"
)

// CatalogMetadata tracks cache provenance (spec.md §3 ProjectCatalog).
type CatalogMetadata struct {
	LastFetch      time.Time `json:"last_fetch"`
	Source         string    `json:"source"` // "store" or "fallback"
	Total          int       `json:"total"`
	FetchDurationMs int64    `json:"fetch_duration_ms"`
	FailedAttempts int       `json:"failed_attempts"`
}

// catalogFile is the on-disk JSON shape.
type catalogFile struct {
	Projects map[string]model.ProjectRecord `json:"projects"`
	Aliases  map[string]string              `json:"aliases"`
	Metadata CatalogMetadata                `json:"metadata"`
}

// FallbackProjects is the hard-coded list used when the store is
// unreachable and no cached contents exist at all (spec.md §4.6).
var FallbackProjects = []model.ProjectRecord{
	{Name: "Life Admin HQ", Status: "Ongoing"},
	{Name: "Home Projects", Status: "Ongoing"},
	{Name: "Personal", Status: "Ongoing"},
}

// ProjectFetcher queries the external document store's Projects
// collection (spec.md §4.6). Implemented by internal/storeclient.
type ProjectFetcher interface {
	FetchProjects() ([]model.ProjectRecord, error)
}

// Catalog is the in-memory, file-backed project cache.
type Catalog struct {
	path   string
	logger *slog.Logger

	maxAge       time.Duration
	hardCeiling  time.Duration

	mu       sync.RWMutex
	projects map[string]model.ProjectRecord // keyed by lowercased name
	aliases  map[string]string              // lowercased alias -> name
	metadata CatalogMetadata

	// lastNonEmpty preserves the most recent successful fetch's contents,
	// so a refresh failure can fall back to stale-but-usable data
	// (spec.md §4.6) even after projects/aliases have been cleared.
	lastNonEmpty catalogFile
}

// NewCatalog constructs a catalog backed by the given path, loading any
// existing cache contents synchronously.
func NewCatalog(path string, maxAge, hardCeiling time.Duration, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "resolver")

	c := &Catalog{
		path:        path,
		logger:      logger,
		maxAge:      maxAge,
		hardCeiling: hardCeiling,
		projects:    make(map[string]model.ProjectRecord),
		aliases:     make(map[string]string),
	}

	if path == "" {
		return c
	}
	if err := c.load(); err != nil {
		logger.Warn("failed to load project cache",
			logging.String(logging.FieldEventType, "project_cache_load_failed"),
			logging.Error(err))
	}
	return c
}

// NeedsRefresh reports whether the catalog should be refreshed: empty,
// older than the hard ceiling (24h default), or older than maxAge
// (spec.md §4.6, §8 invariant 7).
func (c *Catalog) NeedsRefresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.projects) == 0 {
		return true
	}
	age := time.Since(c.metadata.LastFetch)
	if c.hardCeiling > 0 && age > c.hardCeiling {
		return true
	}
	return c.maxAge > 0 && age > c.maxAge
}

// Refresh re-populates the catalog from fetcher. On failure it increments
// failed_attempts and falls back to the most recent non-empty cache
// contents, finally to FallbackProjects if nothing usable remains
// (spec.md §4.6).
func (c *Catalog) Refresh(fetcher ProjectFetcher) error {
	start := time.Now()
	records, err := fetcher.FetchProjects()
	if err != nil {
		c.mu.Lock()
		c.metadata.FailedAttempts++
		hadCache := len(c.lastNonEmpty.Projects) > 0
		if hadCache {
			c.projects = c.lastNonEmpty.Projects
			c.aliases = c.lastNonEmpty.Aliases
		}
		c.mu.Unlock()

		if !hadCache {
			c.applyFallback()
		}
		c.logger.Warn("project catalog refresh failed",
			logging.String(logging.FieldEventType, "project_refresh_failed"),
			logging.Error(err),
			logging.Bool("used_stale_cache", hadCache))
		return fmt.Errorf("refresh projects: %w", err)
	}

	c.apply(records, "store", time.Since(start))
	return c.save()
}

func (c *Catalog) applyFallback() {
	c.apply(FallbackProjects, "fallback", 0)
}

func (c *Catalog) apply(records []model.ProjectRecord, source string, fetchDuration time.Duration) {
	projects := make(map[string]model.ProjectRecord, len(records))
	aliases := make(map[string]string)
	for _, r := range records {
		key := strings.ToLower(strings.TrimSpace(r.Name))
		if key == "" {
			continue
		}
		projects[key] = r
		for _, alias := range r.Aliases {
			aliasKey := strings.ToLower(strings.TrimSpace(alias))
			if aliasKey != "" {
				aliases[aliasKey] = r.Name
			}
		}
	}

	c.mu.Lock()
	c.projects = projects
	c.aliases = aliases
	c.metadata.LastFetch = time.Now()
	c.metadata.Source = source
	c.metadata.Total = len(projects)
	c.metadata.FetchDurationMs = fetchDuration.Milliseconds()
	if source == "store" {
		c.metadata.FailedAttempts = 0
		c.lastNonEmpty = catalogFile{Projects: projects, Aliases: aliases, Metadata: c.metadata}
	}
	c.mu.Unlock()
}

// Projects returns a snapshot of the cached project names, sorted by
// insertion order of the underlying map is not guaranteed; callers that
// need deterministic output should sort.
func (c *Catalog) Projects() []model.ProjectRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.ProjectRecord, 0, len(c.projects))
	for _, p := range c.projects {
		out = append(out, p)
	}
	return out
}

func (c *Catalog) lookupExactName(candidate string) (model.ProjectRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.projects[strings.ToLower(strings.TrimSpace(candidate))]
	return p, ok
}

func (c *Catalog) lookupExactAlias(candidate string) (model.ProjectRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.aliases[strings.ToLower(strings.TrimSpace(candidate))]
	if !ok {
		return model.ProjectRecord{}, false
	}
	p, ok := c.projects[strings.ToLower(name)]
	return p, ok
}

func (c *Catalog) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read project cache: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse project cache: %w", err)
	}

	c.mu.Lock()
	c.projects = file.Projects
	c.aliases = file.Aliases
	c.metadata = file.Metadata
	if len(file.Projects) > 0 {
		c.lastNonEmpty = file
	}
	c.mu.Unlock()
	return nil
}

func (c *Catalog) save() error {
	if c.path == "" {
		return nil
	}

	c.mu.RLock()
	file := catalogFile{Projects: c.projects, Aliases: c.aliases, Metadata: c.metadata}
	c.mu.RUnlock()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project cache: %w", err)
	}

	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create project cache directory: %w", err)
		}
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write project cache temp file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename project cache temp file: %w", err)
	}
	return nil
}
