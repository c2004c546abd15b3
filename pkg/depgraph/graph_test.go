package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeloop/forged/pkg/types"
)

func TestBuildGraphRoundTrip(t *testing.T) {
	files := []types.SourceFile{
		{Path: "a.ts", Content: "import { b } from './b';\nexport const a = b;"},
		{Path: "b.ts", Content: "export const b = 1;"},
	}

	graph := Build(files)

	require.Contains(t, graph.Nodes, "a.ts")
	require.Contains(t, graph.Nodes, "b.ts")
	assert.Equal(t, []string{"b.ts"}, graph.Nodes["a.ts"].Imports)
	assert.Equal(t, []string{"a.ts"}, graph.Nodes["b.ts"].ImportedBy)
	assert.Equal(t, []string{"a.ts"}, graph.EntryPoints)
	assert.Equal(t, 0, graph.Nodes["a.ts"].Depth)
	assert.Equal(t, 1, graph.Nodes["b.ts"].Depth)
	assert.Empty(t, graph.Cycles)
}

func TestBuildGraphCycleDetection(t *testing.T) {
	files := []types.SourceFile{
		{Path: "a.ts", Content: "import { b } from './b';\nexport const a = 1;"},
		{Path: "b.ts", Content: "import { a } from './a';\nexport const b = 2;"},
	}

	graph := Build(files)

	require.NotEmpty(t, graph.Cycles)
	assert.Contains(t, graph.Cycles, []string{"a.ts", "b.ts", "a.ts"})
}

func TestResolveExtensionProbingOrder(t *testing.T) {
	// Both b.ts and b.js exist; .ts must win because it is probed
	// first.
	files := []types.SourceFile{
		{Path: "a.ts", Content: "import { b } from './b';"},
		{Path: "b.ts", Content: "export const b = 1;"},
		{Path: "b.js", Content: "module.exports.b = 1;"},
	}

	graph := Build(files)
	assert.Equal(t, []string{"b.ts"}, graph.Nodes["a.ts"].Imports)
}

func TestResolveIndexFiles(t *testing.T) {
	files := []types.SourceFile{
		{Path: "a.ts", Content: "import { util } from './lib';"},
		{Path: "lib/index.ts", Content: "export const util = 1;"},
	}

	graph := Build(files)
	assert.Equal(t, []string{"lib/index.ts"}, graph.Nodes["a.ts"].Imports)
}

func TestUnresolvedRelativeImportDropped(t *testing.T) {
	files := []types.SourceFile{
		{Path: "a.ts", Content: "import { gone } from './missing';"},
	}

	graph := Build(files)
	assert.Empty(t, graph.Nodes["a.ts"].Imports)
	assert.Len(t, graph.Nodes, 1)
}

func TestExternalImportsIgnored(t *testing.T) {
	files := []types.SourceFile{
		{Path: "a.ts", Content: "import React from 'react';\nimport { b } from './b';"},
		{Path: "b.ts", Content: "export const b = 1;"},
	}

	graph := Build(files)
	assert.Equal(t, []string{"b.ts"}, graph.Nodes["a.ts"].Imports)
}

func TestParentDirectoryResolution(t *testing.T) {
	files := []types.SourceFile{
		{Path: "src/deep/a.ts", Content: "import { s } from '../shared';"},
		{Path: "src/shared.ts", Content: "export const s = 1;"},
	}

	graph := Build(files)
	assert.Equal(t, []string{"src/shared.ts"}, graph.Nodes["src/deep/a.ts"].Imports)
}

func TestDepthMultiSourceBFS(t *testing.T) {
	// Two entry points converge on shared.ts; the first visit wins and
	// depth stays 1.
	files := []types.SourceFile{
		{Path: "entry1.ts", Content: "import { s } from './shared';"},
		{Path: "entry2.ts", Content: "import { s } from './shared';"},
		{Path: "shared.ts", Content: "import { d } from './deep';\nexport const s = 1;"},
		{Path: "deep.ts", Content: "export const d = 1;"},
	}

	graph := Build(files)
	assert.ElementsMatch(t, []string{"entry1.ts", "entry2.ts"}, graph.EntryPoints)
	assert.Equal(t, 1, graph.Nodes["shared.ts"].Depth)
	assert.Equal(t, 2, graph.Nodes["deep.ts"].Depth)
}

func TestSelfContainedCycleUnreachableDepth(t *testing.T) {
	// A pure cycle has no entry points and stays at depth zero.
	files := []types.SourceFile{
		{Path: "a.ts", Content: "import { b } from './b';\nexport const a = 1;"},
		{Path: "b.ts", Content: "import { a } from './a';\nexport const b = 2;"},
		{Path: "main.ts", Content: "export const main = 1;"},
	}

	graph := Build(files)
	assert.Equal(t, []string{"main.ts"}, graph.EntryPoints)
	assert.Equal(t, 0, graph.Nodes["a.ts"].Depth)
	assert.Equal(t, 0, graph.Nodes["b.ts"].Depth)
}
