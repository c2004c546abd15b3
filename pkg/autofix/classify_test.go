package autofix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeloop/forged/pkg/types"
)

func TestParseOutputLocations(t *testing.T) {
	output := "src/app.ts:10:5 - Cannot find name 'foo'\n" +
		"lib/util.ts(3,7): ';' expected.\n"

	errs := ParseOutput(output)
	require.Len(t, errs, 2)

	assert.Equal(t, "src/app.ts", errs[0].File)
	assert.Equal(t, 10, errs[0].Line)
	assert.Equal(t, 5, errs[0].Column)
	assert.Equal(t, types.ErrorTypeReference, errs[0].Type)

	assert.Equal(t, "lib/util.ts", errs[1].File)
	assert.Equal(t, 3, errs[1].Line)
	assert.Equal(t, 7, errs[1].Column)
	assert.Equal(t, types.ErrorTypeSyntax, errs[1].Type)
}

func TestParseOutputClassification(t *testing.T) {
	tests := []struct {
		message string
		want    types.ErrorType
	}{
		{"Unexpected token '}'", types.ErrorTypeSyntax},
		{"Cannot find module './missing'", types.ErrorTypeImport},
		{"'useState' is not defined", types.ErrorTypeReference},
		{"Type 'string' is not assignable to type 'number'", types.ErrorTypeType},
		{"Cannot read properties of undefined", types.ErrorTypeRuntime},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			errs := ParseOutput("x.ts:1:1 - " + tt.message)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.want, errs[0].Type)
		})
	}
}

func TestParseOutputUnrecognizedFoldsToUnknown(t *testing.T) {
	errs := ParseOutput("npm WARN something\nbuild pipeline exploded\n")
	require.Len(t, errs, 1)
	assert.Equal(t, types.ErrorTypeUnknown, errs[0].Type)
	assert.Contains(t, errs[0].Message, "npm WARN something")
	assert.Contains(t, errs[0].Message, "build pipeline exploded")
}

func TestParseOutputDropsNoiseWhenDiagnosticsExist(t *testing.T) {
	output := "compiling...\nx.ts:1:1 - Unexpected token '}'\ndone\n"
	errs := ParseOutput(output)
	require.Len(t, errs, 1)
	assert.Equal(t, "x.ts", errs[0].File)
}

func TestParseOutputEmpty(t *testing.T) {
	assert.Empty(t, ParseOutput(""))
	assert.Empty(t, ParseOutput("\n\n"))
}
