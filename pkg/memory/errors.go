package memory

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/forgeloop/forged/pkg/types"
)

// ErrorHistoryEntry is one recorded validation error and, when known, the
// fix that was attempted for it.
type ErrorHistoryEntry struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	Type          types.ErrorType `json:"type"`
	Message       string          `json:"message"`
	File          string          `json:"file,omitempty"`
	Line          int             `json:"line,omitempty"`
	Fix           string          `json:"fix,omitempty"`
	FixSuccessful bool            `json:"fix_successful"`
	Pattern       string          `json:"pattern"`
}

// RecordError appends an error (and its fix outcome) to the project's
// history, evicting the oldest entry past the cap.
func (s *Service) RecordError(projectID string, parsed types.ParsedError, fix string, fixSuccessful bool) ErrorHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.projectLocked(projectID)
	entry := ErrorHistoryEntry{
		ID:            uuid.NewString(),
		Timestamp:     s.now(),
		Type:          parsed.Type,
		Message:       parsed.Message,
		File:          parsed.File,
		Line:          parsed.Line,
		Fix:           fix,
		FixSuccessful: fixSuccessful,
		Pattern:       NormalizePattern(parsed.Message),
	}
	ctx.Errors = append(ctx.Errors, entry)
	if len(ctx.Errors) > maxErrorHistory {
		ctx.Errors = ctx.Errors[len(ctx.Errors)-maxErrorHistory:]
	}
	ctx.UpdatedAt = entry.Timestamp
	return entry
}

// GetSimilarErrors returns past entries similar to the given message:
// word-overlap ratio above 0.5 or an identical normalized pattern.
func (s *Service) GetSimilarErrors(projectID, message string) []ErrorHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.projectLocked(projectID)
	pattern := NormalizePattern(message)

	var similar []ErrorHistoryEntry
	for _, entry := range ctx.Errors {
		if entry.Pattern == pattern || wordOverlap(entry.Message, message) > 0.5 {
			similar = append(similar, entry)
		}
	}
	return similar
}

// GetSuccessfulFixes returns the last five fixes recorded as successful
// for the given error type, most recent last.
func (s *Service) GetSuccessfulFixes(projectID string, errorType types.ErrorType) []ErrorHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.projectLocked(projectID)
	var fixes []ErrorHistoryEntry
	for _, entry := range ctx.Errors {
		if entry.Type == errorType && entry.FixSuccessful && entry.Fix != "" {
			fixes = append(fixes, entry)
		}
	}
	if len(fixes) > 5 {
		fixes = fixes[len(fixes)-5:]
	}
	return fixes
}

// NormalizePattern reduces an error message to a reusable shape: file
// paths become <path>, digit runs become <n>, CamelCase identifiers
// become <identifier>.
func NormalizePattern(message string) string {
	fields := strings.Fields(message)
	for i, field := range fields {
		trimmed := strings.Trim(field, `'"().,:;`)
		// Dots stay in the path candidate so a quoted "./x" keeps its
		// leading segment.
		pathCandidate := strings.Trim(field, `'"(),:;`)
		switch {
		case looksLikePath(pathCandidate):
			fields[i] = strings.Replace(field, pathCandidate, "<path>", 1)
		case isDigits(trimmed):
			fields[i] = strings.Replace(field, trimmed, "<n>", 1)
		case isCamelCase(trimmed):
			fields[i] = strings.Replace(field, trimmed, "<identifier>", 1)
		}
	}
	return strings.Join(fields, " ")
}

func looksLikePath(s string) bool {
	return strings.ContainsRune(s, '/') && !strings.HasPrefix(s, "//")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isCamelCase reports whether s is a single identifier with an interior
// lower-to-upper transition (camelCase or PascalCase with multiple humps).
func isCamelCase(s string) bool {
	if s == "" {
		return false
	}
	hasTransition := false
	prev := rune(0)
	for i, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
		if i > 0 && unicode.IsLower(prev) && unicode.IsUpper(r) {
			hasTransition = true
		}
		prev = r
	}
	return hasTransition
}

// wordOverlap computes the overlap ratio of two messages' word sets:
// shared words over the smaller set's size.
func wordOverlap(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	shared := 0
	for w := range wordsA {
		if wordsB[w] {
			shared++
		}
	}

	smaller := len(wordsA)
	if len(wordsB) < smaller {
		smaller = len(wordsB)
	}
	return float64(shared) / float64(smaller)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[strings.Trim(w, `'"().,:;`)] = true
	}
	return set
}
