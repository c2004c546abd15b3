package autofix

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgeloop/forged/pkg/types"
)

func TestPrioritizeError(t *testing.T) {
	tests := []struct {
		name string
		errs []types.ParsedError
		want int
	}{
		{
			name: "empty",
			errs: nil,
			want: -1,
		},
		{
			name: "single",
			errs: []types.ParsedError{{Type: types.ErrorTypeRuntime}},
			want: 0,
		},
		{
			name: "syntax beats type",
			errs: []types.ParsedError{
				{Type: types.ErrorTypeType},
				{Type: types.ErrorTypeSyntax},
				{Type: types.ErrorTypeRuntime},
			},
			want: 1,
		},
		{
			name: "import beats reference",
			errs: []types.ParsedError{
				{Type: types.ErrorTypeReference},
				{Type: types.ErrorTypeImport},
			},
			want: 1,
		},
		{
			name: "unknown loses to everything",
			errs: []types.ParsedError{
				{Type: types.ErrorTypeUnknown},
				{Type: types.ErrorTypeRuntime},
			},
			want: 1,
		},
		{
			name: "ties keep first",
			errs: []types.ParsedError{
				{Type: types.ErrorTypeSyntax, Message: "first"},
				{Type: types.ErrorTypeSyntax, Message: "second"},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrioritizeError(tt.errs))
		})
	}
}

func TestNewSessionDefaults(t *testing.T) {
	session := newSession("proj", 0)
	assert.Equal(t, DefaultMaxIterations, session.MaxIterations)
	assert.Equal(t, StatusIdle, session.Status)
	assert.NotEmpty(t, session.ID)
	assert.Nil(t, session.CompletedAt)
}

func TestSameErrorIdentity(t *testing.T) {
	a := types.ParsedError{Message: "m", File: "f.ts", Line: 1}
	b := types.ParsedError{Message: "m", File: "f.ts", Line: 99}
	c := types.ParsedError{Message: "m", File: "g.ts"}

	// Identity is (message, file); line number does not matter.
	assert.True(t, sameError(a, b))
	assert.False(t, sameError(a, c))
}
