package autofix

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/forgeloop/forged/pkg/filesystem"
	"github.com/forgeloop/forged/pkg/types"
)

// ApplyPatch applies a patch to its file under the project root and
// returns a diff of the change. Patch modes, in order of precedence:
// line-range replacement, verbatim string replacement, full-file
// replacement.
func ApplyPatch(root *filesystem.Root, patch *types.CodePatch) (string, error) {
	original := ""
	if root.Exists(patch.File) {
		content, err := root.ReadFile(patch.File)
		if err != nil {
			return "", err
		}
		original = content
	}

	updated, err := patchedContent(original, patch)
	if err != nil {
		return "", err
	}

	if err := root.WriteFile(patch.File, updated); err != nil {
		return "", err
	}

	return PatchDiff(original, updated), nil
}

func patchedContent(original string, patch *types.CodePatch) (string, error) {
	switch {
	case patch.LineStart > 0 && patch.LineEnd >= patch.LineStart:
		lines := strings.Split(original, "\n")
		if patch.LineStart > len(lines) {
			return "", fmt.Errorf("patch line range %d-%d beyond end of %s (%d lines)",
				patch.LineStart, patch.LineEnd, patch.File, len(lines))
		}
		end := patch.LineEnd
		if end > len(lines) {
			end = len(lines)
		}
		var out []string
		out = append(out, lines[:patch.LineStart-1]...)
		out = append(out, strings.Split(patch.NewContent, "\n")...)
		out = append(out, lines[end:]...)
		return strings.Join(out, "\n"), nil

	case patch.OldContent != "":
		if !strings.Contains(original, patch.OldContent) {
			return "", fmt.Errorf("patch target text not found in %s", patch.File)
		}
		return strings.Replace(original, patch.OldContent, patch.NewContent, 1), nil

	default:
		return patch.NewContent, nil
	}
}

// PatchDiff renders a semantic-cleaned text diff between two versions of
// a file, recorded in the change history.
func PatchDiff(original, updated string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, updated, true)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.DiffPrettyText(diffs)
}
