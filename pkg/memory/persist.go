package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveSnapshot writes a project's memory to disk as JSON. The write goes
// to a temporary file first and is renamed into place for atomicity.
func (s *Service) SaveSnapshot(projectID, path string) error {
	s.mu.Lock()
	ctx := s.projectLocked(projectID)
	data, err := json.MarshalIndent(ctx, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to serialize memory snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary snapshot: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// LoadSnapshot restores a project's memory from disk, replacing whatever
// the service currently holds for that project. A missing file is not an
// error; the project simply starts fresh.
func (s *Service) LoadSnapshot(projectID, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	var ctx ProjectContext
	if err := json.Unmarshal(data, &ctx); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}
	ctx.ProjectID = projectID
	if ctx.Files == nil {
		ctx.Files = make(map[string]*FileMetadata)
	}
	if ctx.ActiveDeps == nil {
		ctx.ActiveDeps = make(map[string]*ActiveDependency)
	}

	s.mu.Lock()
	s.projects.Add(projectID, &ctx)
	s.mu.Unlock()

	return nil
}
