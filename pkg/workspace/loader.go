// Package workspace loads a project's source files from disk for graph
// construction and context selection, honoring ignore rules.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/forgeloop/forged/pkg/types"
)

// sourceExtensions are the file types handed to the dependency graph.
var sourceExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true,
}

const maxFileSize = 512 * 1024

// GetIgnoreRules combines the project's .gitignore with patterns that are
// always excluded from analysis.
func GetIgnoreRules(rootDir string) *ignore.GitIgnore {
	lines := []string{
		".forged/",
		"node_modules/",
		"dist/",
		"build/",
		".git/",
	}

	if content, err := os.ReadFile(filepath.Join(rootDir, ".gitignore")); err == nil {
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "#") {
				lines = append(lines, line)
			}
		}
	}

	return ignore.CompileIgnoreLines(lines...)
}

// LoadSourceFiles walks the project root and returns all non-ignored
// source files, paths relative to the root with forward slashes.
func LoadSourceFiles(rootDir string) ([]types.SourceFile, error) {
	rules := GetIgnoreRules(rootDir)

	var files []types.SourceFile
	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(rootDir, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rules.MatchesPath(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if rules.MatchesPath(rel) || !sourceExtensions[filepath.Ext(rel)] {
			return nil
		}
		if info.Size() > maxFileSize {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("could not read %s: %w", rel, readErr)
		}
		files = append(files, types.SourceFile{Path: rel, Content: string(content)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan workspace %s: %w", rootDir, err)
	}

	return files, nil
}
