package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeloop/forged/pkg/types"
)

func TestNormalizePattern(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{
			name:    "module path",
			message: "Cannot find module './utils/helpers'",
			want:    "Cannot find module '<path>'",
		},
		{
			name:    "bare relative path",
			message: "Module not found: ./utils/helpers",
			want:    "Module not found: <path>",
		},
		{
			name:    "parent relative path",
			message: "Cannot find module '../shared/types'",
			want:    "Cannot find module '<path>'",
		},
		{
			name:    "line number",
			message: "Unexpected token at line 42",
			want:    "Unexpected token at line <n>",
		},
		{
			name:    "camel case identifier",
			message: "Property 'getUserName' does not exist",
			want:    "Property '<identifier>' does not exist",
		},
		{
			name:    "mixed",
			message: "src/app.ts line 7 references fetchData",
			want:    "<path> line <n> references <identifier>",
		},
		{
			name:    "plain words untouched",
			message: "unexpected end of input",
			want:    "unexpected end of input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePattern(tt.message))
		})
	}
}

func TestGetSimilarErrorsByPattern(t *testing.T) {
	svc, _ := testService(t)

	svc.RecordError("proj", types.ParsedError{
		Type:    types.ErrorTypeImport,
		Message: "Cannot find module './components/Button'",
	}, "added import", true)
	svc.RecordError("proj", types.ParsedError{
		Type:    types.ErrorTypeSyntax,
		Message: "Unexpected token }",
	}, "", false)

	similar := svc.GetSimilarErrors("proj", "Cannot find module './lib/format'")
	require.Len(t, similar, 1)
	assert.Equal(t, "Cannot find module './components/Button'", similar[0].Message)
}

func TestGetSimilarErrorsByWordOverlap(t *testing.T) {
	svc, _ := testService(t)

	svc.RecordError("proj", types.ParsedError{
		Type:    types.ErrorTypeType,
		Message: "Type 'string' is not assignable to type 'number'",
	}, "cast value", true)

	similar := svc.GetSimilarErrors("proj", "Type 'boolean' is not assignable to type 'number'")
	assert.Len(t, similar, 1)

	// Exactly half the words shared is not similar enough.
	none := svc.GetSimilarErrors("proj", "value not assignable here")
	assert.Empty(t, none)
}

func TestGetSuccessfulFixesLastFive(t *testing.T) {
	svc, _ := testService(t)

	for i := 0; i < 7; i++ {
		svc.RecordError("proj", types.ParsedError{
			Type:    types.ErrorTypeType,
			Message: fmt.Sprintf("type error %d", i),
		}, fmt.Sprintf("fix %d", i), true)
	}
	svc.RecordError("proj", types.ParsedError{
		Type:    types.ErrorTypeType,
		Message: "failed one",
	}, "bad fix", false)
	svc.RecordError("proj", types.ParsedError{
		Type:    types.ErrorTypeSyntax,
		Message: "other type",
	}, "syntax fix", true)

	fixes := svc.GetSuccessfulFixes("proj", types.ErrorTypeType)
	require.Len(t, fixes, 5)
	assert.Equal(t, "fix 2", fixes[0].Fix)
	assert.Equal(t, "fix 6", fixes[4].Fix)
}

func TestErrorHistoryCapped(t *testing.T) {
	svc, _ := testService(t)

	for i := 0; i < maxErrorHistory+5; i++ {
		svc.RecordError("proj", types.ParsedError{
			Type:    types.ErrorTypeRuntime,
			Message: fmt.Sprintf("runtime error %d", i),
		}, "", false)
	}

	errs := svc.Project("proj").Errors
	require.Len(t, errs, maxErrorHistory)
	assert.Equal(t, "runtime error 5", errs[0].Message)
}

func TestWordOverlap(t *testing.T) {
	assert.Equal(t, 1.0, wordOverlap("cannot find name", "cannot find name"))
	assert.Equal(t, 0.0, wordOverlap("", "anything"))
	assert.InDelta(t, 0.5, wordOverlap("one two three four", "one two five six"), 1e-9)
}
