package autofix

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/forgeloop/forged/pkg/types"
)

// location matches the common "file:line:col" and "file(line,col)"
// compiler location prefixes.
var location = regexp.MustCompile(`^([\w./\\-]+)[:(](\d+)[,:](\d+)\)?`)

// ParseOutput turns raw build or test output into classified errors, one
// per non-empty line that looks like a diagnostic. Lines with no
// recognizable shape become a single unknown error so nothing is lost.
func ParseOutput(output string) []types.ParsedError {
	var errs []types.ParsedError
	var leftover []string

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parsed := types.ParsedError{Message: line, Type: classifyMessage(line)}
		if match := location.FindStringSubmatch(line); match != nil {
			parsed.File = match[1]
			parsed.Line, _ = strconv.Atoi(match[2])
			parsed.Column, _ = strconv.Atoi(match[3])
		} else if parsed.Type == types.ErrorTypeUnknown {
			leftover = append(leftover, line)
			continue
		}
		errs = append(errs, parsed)
	}

	if len(errs) == 0 && len(leftover) > 0 {
		errs = append(errs, types.ParsedError{
			Type:    types.ErrorTypeUnknown,
			Message: strings.Join(leftover, "\n"),
		})
	}
	return errs
}

func classifyMessage(message string) types.ErrorType {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "syntax") || strings.Contains(lower, "unexpected token") || strings.Contains(lower, "';' expected"):
		return types.ErrorTypeSyntax
	case strings.Contains(lower, "cannot find module") || strings.Contains(lower, "import"):
		return types.ErrorTypeImport
	case strings.Contains(lower, "is not defined") || strings.Contains(lower, "cannot find name"):
		return types.ErrorTypeReference
	case strings.Contains(lower, "not assignable") || strings.Contains(lower, "type error") || strings.Contains(lower, "type '"):
		return types.ErrorTypeType
	case strings.Contains(lower, "runtime") || strings.Contains(lower, "cannot read propert"):
		return types.ErrorTypeRuntime
	default:
		return types.ErrorTypeUnknown
	}
}
