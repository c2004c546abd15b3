package autofix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeloop/forged/pkg/filesystem"
	"github.com/forgeloop/forged/pkg/types"
)

func testRoot(t *testing.T) *filesystem.Root {
	t.Helper()
	root, err := filesystem.NewRoot(t.TempDir())
	require.NoError(t, err)
	return root
}

func TestApplyPatchLineRange(t *testing.T) {
	root := testRoot(t)
	require.NoError(t, root.WriteFile("a.ts", "one\ntwo\nthree\nfour"))

	diff, err := ApplyPatch(root, &types.CodePatch{
		File:       "a.ts",
		NewContent: "TWO\nTHREE",
		LineStart:  2,
		LineEnd:    3,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, diff)

	content, err := root.ReadFile("a.ts")
	require.NoError(t, err)
	assert.Equal(t, "one\nTWO\nTHREE\nfour", content)
}

func TestApplyPatchLineRangeClampsEnd(t *testing.T) {
	root := testRoot(t)
	require.NoError(t, root.WriteFile("a.ts", "one\ntwo"))

	_, err := ApplyPatch(root, &types.CodePatch{
		File:       "a.ts",
		NewContent: "replaced",
		LineStart:  2,
		LineEnd:    10,
	})
	require.NoError(t, err)

	content, err := root.ReadFile("a.ts")
	require.NoError(t, err)
	assert.Equal(t, "one\nreplaced", content)
}

func TestApplyPatchLineRangeBeyondEnd(t *testing.T) {
	root := testRoot(t)
	require.NoError(t, root.WriteFile("a.ts", "one"))

	_, err := ApplyPatch(root, &types.CodePatch{
		File:       "a.ts",
		NewContent: "x",
		LineStart:  5,
		LineEnd:    6,
	})
	assert.Error(t, err)
}

func TestApplyPatchVerbatimReplacement(t *testing.T) {
	root := testRoot(t)
	require.NoError(t, root.WriteFile("a.ts", "const a = 1;\nconst b = a;\nconst c = a;"))

	_, err := ApplyPatch(root, &types.CodePatch{
		File:       "a.ts",
		OldContent: "const b = a;",
		NewContent: "const b = 2;",
	})
	require.NoError(t, err)

	content, err := root.ReadFile("a.ts")
	require.NoError(t, err)
	assert.Equal(t, "const a = 1;\nconst b = 2;\nconst c = a;", content)
}

func TestApplyPatchVerbatimTargetMissing(t *testing.T) {
	root := testRoot(t)
	require.NoError(t, root.WriteFile("a.ts", "const a = 1;"))

	_, err := ApplyPatch(root, &types.CodePatch{
		File:       "a.ts",
		OldContent: "not present",
		NewContent: "anything",
	})
	assert.Error(t, err)
}

func TestApplyPatchFullFile(t *testing.T) {
	root := testRoot(t)

	// A full-file patch may create the file.
	_, err := ApplyPatch(root, &types.CodePatch{
		File:       "fresh.ts",
		NewContent: "export const n = 1;",
	})
	require.NoError(t, err)

	content, err := root.ReadFile("fresh.ts")
	require.NoError(t, err)
	assert.Equal(t, "export const n = 1;", content)
}

func TestApplyPatchRejectsEscapingPath(t *testing.T) {
	root := testRoot(t)

	_, err := ApplyPatch(root, &types.CodePatch{
		File:       "../outside.ts",
		NewContent: "nope",
	})
	assert.Error(t, err)
}

func TestPatchDiff(t *testing.T) {
	diff := PatchDiff("const a = 1;", "const a = 2;")
	assert.Contains(t, diff, "2")
	// Equal inputs render as plain unchanged text.
	assert.Equal(t, "same", PatchDiff("same", "same"))
}
