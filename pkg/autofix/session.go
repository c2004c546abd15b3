// Package autofix drives the error-repair loop: prioritize a validation
// error, generate or look up a fix, apply it as a patch, re-validate, and
// repeat until resolved, exhausted, or cancelled.
package autofix

import (
	"time"

	"github.com/google/uuid"

	"github.com/forgeloop/forged/pkg/types"
)

// Status is the state of an auto-fix session.
type Status string

const (
	StatusIdle                 Status = "idle"
	StatusAnalyzing            Status = "analyzing"
	StatusFixing               Status = "fixing"
	StatusValidating           Status = "validating"
	StatusCompleted            Status = "completed"
	StatusFailed               Status = "failed"
	StatusMaxIterationsReached Status = "max_iterations_reached"
)

// DefaultMaxIterations bounds a session when the caller passes zero.
const DefaultMaxIterations = 5

// Session holds the state of one auto-fix run. It is created at session
// start, mutated only by the loop that owns it, and returned to the caller
// at session end. CurrentIteration never decreases and never exceeds
// MaxIterations.
type Session struct {
	ID               string              `json:"id"`
	ProjectID        string              `json:"project_id"`
	Status           Status              `json:"status"`
	MaxIterations    int                 `json:"max_iterations"`
	CurrentIteration int                 `json:"current_iteration"`
	OriginalErrors   []types.ParsedError `json:"original_errors"`
	FixAttempts      []types.FixAttempt  `json:"fix_attempts"`
	ResolvedErrors   []types.ParsedError `json:"resolved_errors"`
	UnresolvedErrors []types.ParsedError `json:"unresolved_errors"`
	StartedAt        time.Time           `json:"started_at"`
	CompletedAt      *time.Time          `json:"completed_at,omitempty"`
}

func newSession(projectID string, maxIterations int) *Session {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Session{
		ID:            uuid.NewString(),
		ProjectID:     projectID,
		Status:        StatusIdle,
		MaxIterations: maxIterations,
		StartedAt:     time.Now(),
	}
}

func (s *Session) finish(status Status) {
	s.Status = status
	now := time.Now()
	s.CompletedAt = &now
}

// PrioritizeError picks the error to fix next: the one whose type has the
// lowest numeric priority, with ties keeping their current order. Returns
// the index into errs, or -1 when errs is empty.
func PrioritizeError(errs []types.ParsedError) int {
	best := -1
	for i, e := range errs {
		if best == -1 || e.Type.Priority() < errs[best].Type.Priority() {
			best = i
		}
	}
	return best
}

// sameError matches errors by (message, file), the identity used for
// resolution bookkeeping across validation passes.
func sameError(a, b types.ParsedError) bool {
	return a.Message == b.Message && a.File == b.File
}

func containsError(list []types.ParsedError, e types.ParsedError) bool {
	for _, other := range list {
		if sameError(other, e) {
			return true
		}
	}
	return false
}
