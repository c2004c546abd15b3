package autofix

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/forgeloop/forged/pkg/types"
)

// Strategy is a rule-based fix for a recognized error shape. Strategies
// are tried in priority order; the first whose pattern matches the error
// message wins. The patches they build are best-effort and line-targeted,
// and may be syntactically unsafe; they are a fallback, not a correctness
// guarantee.
type Strategy struct {
	Name     string
	Priority int
	Pattern  *regexp.Regexp
	Build    func(parsed types.ParsedError, fileContent string) *types.CodePatch
}

// missingImportPattern recognizes both the compiler's and the runtime's
// unresolved-name shapes. Shared between the strategy table and the
// builder, which re-matches to extract the name.
var missingImportPattern = regexp.MustCompile(`(?i)cannot find (?:name|module) '([^']+)'|'([^']+)' is not defined`)

var builtinStrategies = []Strategy{
	{
		Name:     "missing-import",
		Priority: 1,
		Pattern:  missingImportPattern,
		Build:    buildMissingImportFix,
	},
	{
		Name:     "optional-chaining",
		Priority: 2,
		Pattern:  regexp.MustCompile(`(?i)cannot read propert(?:y|ies) of (?:undefined|null)|object is possibly '(?:undefined|null)'`),
		Build:    buildOptionalChainingFix,
	},
	{
		Name:     "assert-any",
		Priority: 3,
		Pattern:  regexp.MustCompile(`(?i)is not assignable to type`),
		Build:    buildAssertAnyFix,
	},
	{
		Name:     "missing-semicolon",
		Priority: 4,
		Pattern:  regexp.MustCompile(`(?i)';' expected|missing semicolon`),
		Build:    buildMissingSemicolonFix,
	},
}

// matchStrategy returns the first strategy whose pattern matches the
// error message, in priority order.
func matchStrategy(parsed types.ParsedError) *Strategy {
	for i := range builtinStrategies {
		if builtinStrategies[i].Pattern.MatchString(parsed.Message) {
			return &builtinStrategies[i]
		}
	}
	return nil
}

// buildMissingImportFix inserts an import line for the unresolved name,
// before the first existing import or at the top of the file.
func buildMissingImportFix(parsed types.ParsedError, fileContent string) *types.CodePatch {
	match := missingImportPattern.FindStringSubmatch(parsed.Message)
	if match == nil {
		return nil
	}
	name := match[1]
	if name == "" {
		name = match[2]
	}

	importLine := fmt.Sprintf("import { %s } from './%s';", name, strings.ToLower(name))
	lines := strings.Split(fileContent, "\n")
	insertAt := 0
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "import ") {
			insertAt = i
			break
		}
	}

	var out []string
	out = append(out, lines[:insertAt]...)
	out = append(out, importLine)
	out = append(out, lines[insertAt:]...)

	return &types.CodePatch{
		File:        parsed.File,
		NewContent:  strings.Join(out, "\n"),
		Description: fmt.Sprintf("add import for %s", name),
	}
}

var memberAccess = regexp.MustCompile(`([A-Za-z_$][\w$]*)\.`)

// buildOptionalChainingFix rewrites member accesses on the offending line
// to optional chaining (a.b -> a?.b).
func buildOptionalChainingFix(parsed types.ParsedError, fileContent string) *types.CodePatch {
	lines := strings.Split(fileContent, "\n")
	if parsed.Line < 1 || parsed.Line > len(lines) {
		return nil
	}
	line := lines[parsed.Line-1]
	fixed := memberAccess.ReplaceAllString(line, "$1?.")
	if fixed == line {
		return nil
	}

	return &types.CodePatch{
		File:        parsed.File,
		NewContent:  fixed,
		LineStart:   parsed.Line,
		LineEnd:     parsed.Line,
		Description: "guard member access with optional chaining",
	}
}

// buildAssertAnyFix appends an "as any" assertion to the offending
// assignment as a last resort for unresolved type mismatches.
func buildAssertAnyFix(parsed types.ParsedError, fileContent string) *types.CodePatch {
	lines := strings.Split(fileContent, "\n")
	if parsed.Line < 1 || parsed.Line > len(lines) {
		return nil
	}
	line := lines[parsed.Line-1]
	if strings.Contains(line, " as any") {
		return nil
	}

	fixed := line
	if strings.HasSuffix(strings.TrimRight(line, " \t"), ";") {
		trimmed := strings.TrimRight(line, " \t")
		fixed = strings.TrimSuffix(trimmed, ";") + " as any;"
	} else {
		fixed = line + " as any"
	}

	return &types.CodePatch{
		File:        parsed.File,
		NewContent:  fixed,
		LineStart:   parsed.Line,
		LineEnd:     parsed.Line,
		Description: "assert as any to satisfy the type checker",
	}
}

// buildMissingSemicolonFix appends the missing semicolon to the offending
// line.
func buildMissingSemicolonFix(parsed types.ParsedError, fileContent string) *types.CodePatch {
	lines := strings.Split(fileContent, "\n")
	if parsed.Line < 1 || parsed.Line > len(lines) {
		return nil
	}
	line := lines[parsed.Line-1]
	if strings.HasSuffix(strings.TrimRight(line, " \t"), ";") {
		return nil
	}

	return &types.CodePatch{
		File:        parsed.File,
		NewContent:  strings.TrimRight(line, " \t") + ";",
		LineStart:   parsed.Line,
		LineEnd:     parsed.Line,
		Description: "add missing semicolon",
	}
}
