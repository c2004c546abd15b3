package autofix

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/forgeloop/forged/pkg/filesystem"
	"github.com/forgeloop/forged/pkg/llmclient"
	"github.com/forgeloop/forged/pkg/memory"
	"github.com/forgeloop/forged/pkg/types"
	"github.com/forgeloop/forged/pkg/utils"
)

// ValidateFunc re-checks the generated code and reports the current error
// list. Validation errors are data; a non-nil Go error means validation
// itself could not run.
type ValidateFunc func(ctx context.Context) (types.ValidationResult, error)

// Fix is one proposed repair for a prioritized error.
type Fix struct {
	Description string           `json:"description"`
	Patch       *types.CodePatch `json:"patch,omitempty"`
	Source      string           `json:"source"`
}

// ApplyFunc applies a fix and reports whether it was actually applied,
// along with a rendered diff of the change when one was made. A false
// return is not fatal: the loop logs it and moves to the next iteration,
// which guarantees termination by iteration count even for an error that
// can never be fixed.
type ApplyFunc func(fix Fix, parsed types.ParsedError) (applied bool, diff string)

// Engine runs auto-fix sessions against a project. The memory service is
// consulted for related files and past fixes, and every iteration is
// recorded back into it.
type Engine struct {
	memory *memory.Service
	client *llmclient.Client
	logger *utils.Logger

	// OnIteration, when set, is called at the start of each fix
	// iteration with the iteration number and the iteration budget.
	OnIteration func(iteration, maxIterations int)
}

// NewEngine creates an auto-fix engine. client may be nil, in which case
// only the rule-based strategies and error suggestions are used.
func NewEngine(mem *memory.Service, client *llmclient.Client, logger *utils.Logger) *Engine {
	return &Engine{memory: mem, client: client, logger: logger}
}

// DefaultApplier returns an ApplyFunc that applies patches under the
// given project root.
func (e *Engine) DefaultApplier(root *filesystem.Root) ApplyFunc {
	return func(fix Fix, parsed types.ParsedError) (bool, string) {
		if fix.Patch == nil {
			return false, ""
		}
		diff, err := ApplyPatch(root, fix.Patch)
		if err != nil {
			e.logger.LogError(fmt.Errorf("could not apply patch to %s: %w", fix.Patch.File, err))
			return false, ""
		}
		return true, diff
	}
}

// Run executes one auto-fix session to a terminal status. Cancellation of
// ctx is observed at the top of each iteration and ends the session as
// failed; there is no mid-iteration preemption.
func (e *Engine) Run(ctx context.Context, projectID string, validate ValidateFunc, apply ApplyFunc, fileContent func(path string) string, maxIterations int) (*Session, error) {
	session := newSession(projectID, maxIterations)
	session.Status = StatusAnalyzing

	result, err := validate(ctx)
	if err != nil {
		session.finish(StatusFailed)
		return session, fmt.Errorf("initial validation failed to run: %w", err)
	}
	session.OriginalErrors = append(session.OriginalErrors, result.Errors...)
	session.UnresolvedErrors = append(session.UnresolvedErrors, result.Errors...)

	for session.CurrentIteration < session.MaxIterations &&
		len(session.UnresolvedErrors) > 0 &&
		session.Status != StatusFailed {

		if ctx.Err() != nil {
			session.finish(StatusFailed)
			return session, nil
		}

		session.CurrentIteration++
		session.Status = StatusFixing
		if e.OnIteration != nil {
			e.OnIteration(session.CurrentIteration, session.MaxIterations)
		}

		target := session.UnresolvedErrors[PrioritizeError(session.UnresolvedErrors)]
		e.logger.LogProcessStep(fmt.Sprintf("Fix iteration %d/%d: [%s] %s",
			session.CurrentIteration, session.MaxIterations, target.Type, target.Message))

		fix, genErr := e.generateFix(ctx, projectID, target, fileContent)
		if genErr != nil {
			// Generation failures are per-iteration: log, skip,
			// keep the loop alive.
			e.logger.LogError(fmt.Errorf("fix generation failed on iteration %d: %w", session.CurrentIteration, genErr))
			e.recordIteration(session, target, Fix{}, false, nil, "")
			continue
		}

		applied, diff := apply(fix, target)
		if !applied {
			e.logger.Logf("Fix for %q was not applied; error remains unresolved", target.Message)
			e.recordIteration(session, target, fix, false, nil, "")
			continue
		}

		session.Status = StatusValidating
		revalidated, valErr := validate(ctx)
		if valErr != nil {
			e.logger.LogError(fmt.Errorf("re-validation failed to run on iteration %d: %w", session.CurrentIteration, valErr))
			e.recordIteration(session, target, fix, false, nil, diff)
			continue
		}

		resolved := revalidated.Success || !containsError(revalidated.Errors, target)
		e.recordIteration(session, target, fix, resolved, &revalidated, diff)

		if resolved {
			session.ResolvedErrors = append(session.ResolvedErrors, target)
			remaining := session.UnresolvedErrors[:0]
			for _, u := range session.UnresolvedErrors {
				if !sameError(u, target) {
					remaining = append(remaining, u)
				}
			}
			session.UnresolvedErrors = remaining

			// A fix can introduce fresh errors; merge anything
			// present now that was neither original nor already
			// tracked.
			for _, current := range revalidated.Errors {
				if !containsError(session.OriginalErrors, current) &&
					!containsError(session.UnresolvedErrors, current) {
					session.UnresolvedErrors = append(session.UnresolvedErrors, current)
				}
			}
		}
	}

	switch {
	case session.Status == StatusFailed:
		session.finish(StatusFailed)
	case len(session.UnresolvedErrors) == 0:
		session.finish(StatusCompleted)
	default:
		// Exhausting retries is a normal outcome surfaced as
		// "partially fixed", not an error.
		session.finish(StatusMaxIterationsReached)
	}

	return session, nil
}

// generateFix builds a fix for the target error: rule-based strategies
// first, then the registered structured-patch collaborator, then the
// error's own suggestion text.
func (e *Engine) generateFix(ctx context.Context, projectID string, target types.ParsedError, fileContent func(path string) string) (Fix, error) {
	content := ""
	if target.File != "" && fileContent != nil {
		content = fileContent(target.File)
	}

	if strategy := matchStrategy(target); strategy != nil {
		if patch := strategy.Build(target, content); patch != nil {
			return Fix{
				Description: patch.Description,
				Patch:       patch,
				Source:      "strategy:" + strategy.Name,
			}, nil
		}
	}

	if e.client != nil && e.client.Patch != nil {
		patch, err := e.client.Patch(ctx, target, content, e.fixContext(projectID, target))
		if err != nil {
			return Fix{}, err
		}
		if patch != nil {
			return Fix{Description: patch.Description, Patch: patch, Source: "llm"}, nil
		}
	}

	if target.Suggestion != "" {
		return Fix{Description: target.Suggestion, Source: "suggestion"}, nil
	}

	return Fix{}, fmt.Errorf("no fix available for error: %s", target.Message)
}

// fixContext assembles the prompt context for a structured-patch request:
// related files from memory plus past fixes that worked for this error
// type.
func (e *Engine) fixContext(projectID string, target types.ParsedError) string {
	var sb strings.Builder

	if related := e.memory.GetRelatedFiles(projectID, target.File); len(related) > 0 {
		sb.WriteString("Related files: ")
		sb.WriteString(strings.Join(related, ", "))
		sb.WriteString("\n")
	}

	if similar := e.memory.GetSimilarErrors(projectID, target.Message); len(similar) > 0 {
		sb.WriteString(fmt.Sprintf("This error has been seen %d time(s) before.\n", len(similar)))
	}

	if fixes := e.memory.GetSuccessfulFixes(projectID, target.Type); len(fixes) > 0 {
		sb.WriteString("Fixes that worked for this error type:\n")
		for _, f := range fixes {
			sb.WriteString("- ")
			sb.WriteString(f.Fix)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// recordIteration appends the FixAttempt and writes the change entry into
// project memory, carrying the applied patch's diff when there was one.
// Both happen every iteration regardless of outcome.
func (e *Engine) recordIteration(session *Session, target types.ParsedError, fix Fix, success bool, validation *types.ValidationResult, diff string) {
	attempt := types.FixAttempt{
		ID:               uuid.NewString(),
		Iteration:        session.CurrentIteration,
		Error:            target,
		Fix:              fix.Description,
		Patch:            fix.Patch,
		Success:          success,
		ValidationResult: validation,
		Timestamp:        time.Now(),
	}
	session.FixAttempts = append(session.FixAttempts, attempt)

	e.memory.RecordError(session.ProjectID, target, fix.Description, success)
	e.memory.RecordChange(session.ProjectID, memory.ChangeEntry{
		File:        target.File,
		Description: fmt.Sprintf("fix attempt %d (%s): %s", session.CurrentIteration, statusWord(success), target.Message),
		Diff:        diff,
	})
}

func statusWord(success bool) string {
	if success {
		return "resolved"
	}
	return "unresolved"
}
