// Package memory tracks per-project generation history: file metadata,
// architectural decisions, change history, error history, and
// access-weighted file priorities. Every collection is size-bounded.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/forgeloop/forged/pkg/depgraph"
)

const (
	maxProjects      = 50
	maxGraphs        = 50
	maxErrorHistory  = 100
	maxChangeEntries = 100
	maxDecisions     = 50
	maxActiveDeps    = 50
)

// FileMetadata is what the service remembers about one generated file.
type FileMetadata struct {
	Path         string    `json:"path"`
	Purpose      string    `json:"purpose,omitempty"`
	Imports      []string  `json:"imports,omitempty"`
	Exports      []string  `json:"exports,omitempty"`
	LineCount    int       `json:"line_count"`
	LastModified time.Time `json:"last_modified"`
}

// Decision is one recorded architectural decision.
type Decision struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Topic     string    `json:"topic"`
	Choice    string    `json:"choice"`
	Rationale string    `json:"rationale,omitempty"`
}

// ChangeEntry is one recorded change to the project.
type ChangeEntry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	File        string    `json:"file"`
	Description string    `json:"description"`
	Diff        string    `json:"diff,omitempty"`
}

// ProjectContext holds everything remembered about one project.
type ProjectContext struct {
	ProjectID  string                       `json:"project_id"`
	Files      map[string]*FileMetadata     `json:"files"`
	Decisions  []Decision                   `json:"decisions"`
	Changes    []ChangeEntry                `json:"changes"`
	Errors     []ErrorHistoryEntry          `json:"errors"`
	ActiveDeps map[string]*ActiveDependency `json:"active_deps"`
	UpdatedAt  time.Time                    `json:"updated_at"`
}

// Service owns all per-project memory, keyed by project identifier.
// Projects are independent map entries; there is no cross-project state.
// Note that per-project access is not serialized: two sessions working the
// same project ID race on its context, matching the original behavior.
type Service struct {
	projects *lru.Cache[string, *ProjectContext]
	graphs   *lru.Cache[string, *depgraph.Graph]
	mu       sync.Mutex
	now      func() time.Time
}

// NewService creates a memory service with bounded project and graph
// caches. Exceeding the caps silently evicts the least recently used
// project's history; callers must not assume history persists.
func NewService() *Service {
	projects, _ := lru.New[string, *ProjectContext](maxProjects)
	graphs, _ := lru.New[string, *depgraph.Graph](maxGraphs)
	return &Service{
		projects: projects,
		graphs:   graphs,
		now:      time.Now,
	}
}

// Project returns the context for projectID, creating it on first use.
func (s *Service) Project(projectID string) *ProjectContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectLocked(projectID)
}

func (s *Service) projectLocked(projectID string) *ProjectContext {
	if ctx, ok := s.projects.Get(projectID); ok {
		return ctx
	}
	ctx := &ProjectContext{
		ProjectID:  projectID,
		Files:      make(map[string]*FileMetadata),
		ActiveDeps: make(map[string]*ActiveDependency),
		UpdatedAt:  s.now(),
	}
	s.projects.Add(projectID, ctx)
	return ctx
}

// RecordFile stores or refreshes metadata for one file.
func (s *Service) RecordFile(projectID string, meta FileMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.projectLocked(projectID)
	meta.LastModified = s.now()
	ctx.Files[meta.Path] = &meta
	ctx.UpdatedAt = meta.LastModified
}

// RecordDecision appends an architectural decision, evicting the oldest
// past the cap.
func (s *Service) RecordDecision(projectID string, decision Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.projectLocked(projectID)
	if decision.ID == "" {
		decision.ID = uuid.NewString()
	}
	decision.Timestamp = s.now()
	ctx.Decisions = append(ctx.Decisions, decision)
	if len(ctx.Decisions) > maxDecisions {
		ctx.Decisions = ctx.Decisions[len(ctx.Decisions)-maxDecisions:]
	}
	ctx.UpdatedAt = decision.Timestamp
}

// RecordChange appends a change entry, evicting the oldest past the cap.
func (s *Service) RecordChange(projectID string, change ChangeEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.projectLocked(projectID)
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	change.Timestamp = s.now()
	ctx.Changes = append(ctx.Changes, change)
	if len(ctx.Changes) > maxChangeEntries {
		ctx.Changes = ctx.Changes[len(ctx.Changes)-maxChangeEntries:]
	}
	ctx.UpdatedAt = change.Timestamp
}

// CacheGraph stores the freshly built dependency graph for a project.
func (s *Service) CacheGraph(projectID string, graph *depgraph.Graph) {
	s.graphs.Add(projectID, graph)
}

// CachedGraph returns the cached graph for a project, if any.
func (s *Service) CachedGraph(projectID string) (*depgraph.Graph, bool) {
	return s.graphs.Get(projectID)
}

// GetRelatedFiles returns files connected to the given file through
// recorded import metadata: what it imports and what imports it.
func (s *Service) GetRelatedFiles(projectID, file string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.projectLocked(projectID)
	meta, ok := ctx.Files[file]
	if !ok {
		return nil
	}

	var related []string
	seen := map[string]bool{file: true}
	add := func(path string) {
		if _, exists := ctx.Files[path]; exists && !seen[path] {
			seen[path] = true
			related = append(related, path)
		}
	}

	for _, imp := range meta.Imports {
		add(imp)
	}
	var importers []string
	for path, other := range ctx.Files {
		for _, imp := range other.Imports {
			if imp == file {
				importers = append(importers, path)
				break
			}
		}
	}
	sort.Strings(importers)
	for _, path := range importers {
		add(path)
	}

	return related
}

// EstimateFileTokens approximates the prompt cost of keeping a file in
// view, at roughly five tokens per line.
func EstimateFileTokens(lineCount int) int {
	return lineCount * 5
}
