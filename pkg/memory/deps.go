package memory

import (
	"sort"
	"time"
)

// AccessType labels why a file was touched.
type AccessType string

const (
	AccessRead      AccessType = "read"
	AccessWrite     AccessType = "write"
	AccessImport    AccessType = "import"
	AccessReference AccessType = "reference"
)

const accessTypeCount = 4

// ActiveDependency tracks how hot one file is across a refinement session.
// Priority is a live decayed score recomputed on every access, not a
// stored constant.
type ActiveDependency struct {
	File         string              `json:"file"`
	AccessCount  int                 `json:"access_count"`
	LastAccessed time.Time           `json:"last_accessed"`
	AccessTypes  map[AccessType]bool `json:"access_types"`
	Priority     float64             `json:"priority"`
}

// TrackAccess records one access to a file and recomputes its priority.
// The active-dependency table is capped; the coldest entry is evicted when
// a new file pushes past the cap.
func (s *Service) TrackAccess(projectID, file string, accessType AccessType) *ActiveDependency {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.projectLocked(projectID)
	dep, ok := ctx.ActiveDeps[file]
	if !ok {
		dep = &ActiveDependency{
			File:        file,
			AccessTypes: make(map[AccessType]bool),
		}
		if len(ctx.ActiveDeps) >= maxActiveDeps {
			evictColdest(ctx.ActiveDeps)
		}
		ctx.ActiveDeps[file] = dep
	}

	now := s.now()
	dep.AccessCount++
	dep.LastAccessed = now
	dep.AccessTypes[accessType] = true
	dep.Priority = computePriority(dep, now)
	ctx.UpdatedAt = now

	return dep
}

// computePriority scores a dependency from frequency, recency within the
// trailing hour, access-type diversity, and whether it was ever written:
//
//	min(count/10, 1)*30 + clamp(recency)*40 + diversity*10 + 20 if written
func computePriority(dep *ActiveDependency, now time.Time) float64 {
	frequency := float64(dep.AccessCount) / 10
	if frequency > 1 {
		frequency = 1
	}

	recency := 1 - now.Sub(dep.LastAccessed).Hours()
	if recency < 0 {
		recency = 0
	}

	diversity := float64(len(dep.AccessTypes)) / accessTypeCount

	score := frequency*30 + recency*40 + diversity*10
	if dep.AccessTypes[AccessWrite] {
		score += 20
	}
	return score
}

// evictColdest drops the entry with the lowest priority, breaking ties by
// oldest access.
func evictColdest(deps map[string]*ActiveDependency) {
	var coldest *ActiveDependency
	for _, dep := range deps {
		if coldest == nil ||
			dep.Priority < coldest.Priority ||
			(dep.Priority == coldest.Priority && dep.LastAccessed.Before(coldest.LastAccessed)) {
			coldest = dep
		}
	}
	if coldest != nil {
		delete(deps, coldest.File)
	}
}

// GetHighPriorityFiles selects files by descending priority until the
// estimated token cost would exceed the budget. This is what stays "in
// view" across multi-turn refinement without resending the whole project.
func (s *Service) GetHighPriorityFiles(projectID string, budget int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.projectLocked(projectID)
	deps := make([]*ActiveDependency, 0, len(ctx.ActiveDeps))
	for _, dep := range ctx.ActiveDeps {
		deps = append(deps, dep)
	}
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Priority != deps[j].Priority {
			return deps[i].Priority > deps[j].Priority
		}
		return deps[i].File < deps[j].File
	})

	var selected []string
	used := 0
	for _, dep := range deps {
		lines := 0
		if meta, ok := ctx.Files[dep.File]; ok {
			lines = meta.LineCount
		}
		cost := EstimateFileTokens(lines)
		if used+cost > budget {
			break
		}
		selected = append(selected, dep.File)
		used += cost
	}
	return selected
}
