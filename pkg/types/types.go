package types

import "time"

// ErrorType classifies a validation error. Lower-priority categories are
// fixed first by the auto-fix loop.
type ErrorType string

const (
	ErrorTypeSyntax    ErrorType = "syntax"
	ErrorTypeImport    ErrorType = "import"
	ErrorTypeReference ErrorType = "reference"
	ErrorTypeType      ErrorType = "type"
	ErrorTypeRuntime   ErrorType = "runtime"
	ErrorTypeUnknown   ErrorType = "unknown"
)

// Priority returns the fix-scheduling priority for this error type.
// Lower values are fixed first.
func (t ErrorType) Priority() int {
	switch t {
	case ErrorTypeSyntax:
		return 1
	case ErrorTypeImport:
		return 2
	case ErrorTypeReference:
		return 3
	case ErrorTypeType:
		return 4
	case ErrorTypeRuntime:
		return 5
	default:
		return 6
	}
}

// ParsedError is a single classified validation error. It is data, not a Go
// error: validation errors drive the fix loop rather than aborting it.
type ParsedError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	File       string    `json:"file,omitempty"`
	Line       int       `json:"line,omitempty"`
	Column     int       `json:"column,omitempty"`
	Stack      string    `json:"stack,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
}

// ValidationResult is the outcome of one validation pass over the generated
// code.
type ValidationResult struct {
	Success bool          `json:"success"`
	Errors  []ParsedError `json:"errors,omitempty"`
}

// CodePatch describes how to change one file. Exactly one mode applies:
// a line-range replacement when LineStart/LineEnd are set, a verbatim string
// replacement when OldContent is non-empty, otherwise a full-file
// replacement with NewContent.
type CodePatch struct {
	File        string `json:"file"`
	OldContent  string `json:"old_content,omitempty"`
	NewContent  string `json:"new_content"`
	LineStart   int    `json:"line_start,omitempty"`
	LineEnd     int    `json:"line_end,omitempty"`
	Description string `json:"description"`
}

// SourceFile is a path/content pair handed to the dependency graph builder
// and the context selector. Paths are project-root relative.
type SourceFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// FixAttempt is one append-only log entry of an auto-fix session.
type FixAttempt struct {
	ID               string            `json:"id"`
	Iteration        int               `json:"iteration"`
	Error            ParsedError       `json:"error"`
	Fix              string            `json:"fix"`
	Patch            *CodePatch        `json:"patch,omitempty"`
	Success          bool              `json:"success"`
	ValidationResult *ValidationResult `json:"validation_result,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}

// EstimateTokens approximates the token cost of a string at ~4 characters
// per token, rounding up. The context selector and the prompt builders use
// the same estimate so budgets line up.
func EstimateTokens(content string) int {
	return (len(content) + 3) / 4
}
