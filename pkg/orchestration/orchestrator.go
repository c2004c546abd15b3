// Package orchestration sequences LLM-driven code generation through its
// phases: planning, building, validating, fixing, and reviewing, emitting
// a typed event stream along the way.
package orchestration

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgeloop/forged/pkg/autofix"
	"github.com/forgeloop/forged/pkg/depgraph"
	"github.com/forgeloop/forged/pkg/events"
	"github.com/forgeloop/forged/pkg/llmclient"
	"github.com/forgeloop/forged/pkg/memory"
	"github.com/forgeloop/forged/pkg/types"
	"github.com/forgeloop/forged/pkg/utils"
)

// Phase is one stage of the orchestration state machine.
type Phase string

const (
	PhasePlanning   Phase = "planning"
	PhaseSearching  Phase = "searching"
	PhaseBuilding   Phase = "building"
	PhaseValidating Phase = "validating"
	PhaseFixing     Phase = "fixing"
	PhaseReviewing  Phase = "reviewing"
	PhaseComplete   Phase = "complete"
	PhaseFailed     Phase = "failed"
)

// SearchFunc is the optional search collaborator used during the
// production-quality design phase. It returns the number of results.
type SearchFunc func(ctx context.Context, query string) (int, error)

// State tracks one generation run.
type State struct {
	Phase            Phase
	Plan             *Plan
	TaskIndex        int
	Code             map[string]string
	ValidationErrors []types.ParsedError
	FixAttempts      int
	Transcript       []string
}

// Orchestrator drives one project's generation runs. It owns no
// cross-project state; concurrent runs against distinct project IDs are
// independent.
type Orchestrator struct {
	projectID string
	client    *llmclient.Client
	validate  autofix.ValidateFunc
	fixer     *autofix.Engine
	memory    *memory.Service
	bus       *events.Bus
	logger    *utils.Logger
	applier   autofix.ApplyFunc
	search    SearchFunc

	state State
}

// New creates an orchestrator for one project. validate and applier are
// the validation and patch-application collaborators; search is optional.
func New(projectID string, client *llmclient.Client, validate autofix.ValidateFunc, applier autofix.ApplyFunc, mem *memory.Service, bus *events.Bus, logger *utils.Logger) *Orchestrator {
	return &Orchestrator{
		projectID: projectID,
		client:    client,
		validate:  validate,
		applier:   applier,
		fixer:     autofix.NewEngine(mem, client, logger),
		memory:    mem,
		bus:       bus,
		logger:    logger,
		state:     State{Phase: PhasePlanning, Code: make(map[string]string)},
	}
}

// SetSearch registers the optional search collaborator.
func (o *Orchestrator) SetSearch(search SearchFunc) {
	o.search = search
}

// State returns a copy of the current run state.
func (o *Orchestrator) State() State {
	return o.state
}

// Run executes one full generation: plan, build, validate, fix, review.
// It returns the terminal phase with a nil error for the normal partial
// outcomes; a non-nil error means the run could not proceed at all.
func (o *Orchestrator) Run(ctx context.Context, request string, quality Quality) error {
	o.state.Transcript = append(o.state.Transcript, "user: "+request)

	plan, err := o.runPlanning(ctx, request, quality)
	if err != nil {
		return o.fail(fmt.Errorf("planning failed: %w", err))
	}
	o.state.Plan = plan

	if quality == QualityProduction && o.search != nil {
		o.runSearch(ctx, request)
	}

	if err := o.runBuilding(ctx, plan); err != nil {
		return o.fail(fmt.Errorf("building failed: %w", err))
	}

	session, err := o.runValidateAndFix(ctx, plan)
	if err != nil {
		return o.fail(err)
	}

	reviewSummary := o.runReview(ctx, request)

	o.transition(PhaseComplete, "Generation complete")
	summary := plan.Summary
	if session != nil && session.Status == autofix.StatusMaxIterationsReached {
		summary = fmt.Sprintf("%s (partially fixed: %d error(s) remain)", summary, len(session.UnresolvedErrors))
	}
	o.bus.Publish(events.Complete{
		Code:          o.state.Code,
		Summary:       summary,
		ReviewSummary: reviewSummary,
	})
	return nil
}

func (o *Orchestrator) runPlanning(ctx context.Context, request string, quality Quality) (*Plan, error) {
	o.transition(PhasePlanning, "Planning generation tasks")

	if o.client == nil || o.client.Complete == nil {
		return nil, fmt.Errorf("no completion service registered")
	}

	o.bus.Publish(events.Thinking{Model: o.client.Model, Content: "Breaking the request into build tasks"})
	response, err := o.client.Complete(ctx, planPrompt(request, quality), "")
	if err != nil {
		return nil, err
	}
	o.state.Transcript = append(o.state.Transcript, "planner: "+response)

	plan, err := parsePlan(response, quality)
	if err != nil {
		return nil, err
	}

	o.logger.LogProcessStep(fmt.Sprintf("Plan generated with %d task(s)", len(plan.Tasks)))
	o.publishTasks(plan)
	return plan, nil
}

func (o *Orchestrator) runSearch(ctx context.Context, request string) {
	o.transition(PhaseSearching, "Searching for supporting material")

	query := firstLine(request)
	o.bus.Publish(events.Search{Query: query})
	count, err := o.search(ctx, query)
	if err != nil {
		// Search is advisory; a failure never stops the run.
		o.logger.LogError(fmt.Errorf("search failed: %w", err))
		return
	}
	o.bus.Publish(events.SearchResult{Query: query, ResultCount: count})
}

func (o *Orchestrator) runBuilding(ctx context.Context, plan *Plan) error {
	o.transition(PhaseBuilding, "Generating code")

	for i := range plan.Tasks {
		task := &plan.Tasks[i]
		o.state.TaskIndex = i
		task.Status = "in_progress"
		o.bus.Publish(events.TaskStart{TaskID: task.ID, Description: task.Description, File: task.File})
		o.publishTasks(plan)

		content, err := o.generateTask(ctx, task)
		if err != nil {
			task.Status = "failed"
			o.publishTasks(plan)
			return fmt.Errorf("task %s: %w", task.ID, err)
		}

		if task.File != "" {
			o.state.Code[task.File] = content
			o.memory.RecordFile(o.projectID, memory.FileMetadata{
				Path:      task.File,
				Purpose:   task.Description,
				LineCount: strings.Count(content, "\n") + 1,
			})
			o.memory.TrackAccess(o.projectID, task.File, memory.AccessWrite)
		}

		task.Status = "completed"
		o.bus.Publish(events.TaskComplete{TaskID: task.ID, Description: task.Description, File: task.File})
		o.publishTasks(plan)
	}

	// A fresh graph over the generated set feeds context selection for
	// the fix phase.
	graph := depgraph.Build(o.sourceFiles())
	o.memory.CacheGraph(o.projectID, graph)

	return nil
}

// generateTask streams one task's code from the completion service,
// forwarding chunks as events and accumulating the result.
func (o *Orchestrator) generateTask(ctx context.Context, task *Task) (string, error) {
	contextBlock := o.taskContext(task)
	prompt := fmt.Sprintf("Generate the complete content of %s.\n\n%s\n\nRespond with only the file content, no commentary and no code fences.", task.File, task.Description)

	var sb strings.Builder
	onChunk := func(chunk string) {
		sb.WriteString(chunk)
		o.bus.Publish(events.CodeChunk{Content: chunk})
	}

	if o.client.Stream != nil {
		if err := o.client.Stream(ctx, prompt, contextBlock, onChunk); err != nil {
			return "", err
		}
	} else {
		response, err := o.client.Complete(ctx, prompt, contextBlock)
		if err != nil {
			return "", err
		}
		onChunk(response)
	}

	return stripCodeFences(sb.String()), nil
}

// taskContext selects the already-generated files most relevant to the
// task, under the default token budget.
func (o *Orchestrator) taskContext(task *Task) string {
	files := o.sourceFiles()
	if len(files) == 0 || task.File == "" {
		return ""
	}
	graph := depgraph.Build(files)
	selection := depgraph.SelectContext(graph, task.File, files, depgraph.DefaultContextBudget)
	if len(selection.ContextFiles) == 0 {
		// The target may not exist yet; fall back to the hottest
		// files from memory.
		var sb strings.Builder
		for _, path := range o.memory.GetHighPriorityFiles(o.projectID, depgraph.DefaultContextBudget) {
			if content, ok := o.state.Code[path]; ok {
				sb.WriteString(fmt.Sprintf("--- %s ---\n%s\n", path, content))
			}
		}
		return sb.String()
	}
	return selection.RenderPromptBlock(files)
}

func (o *Orchestrator) runValidateAndFix(ctx context.Context, plan *Plan) (*autofix.Session, error) {
	o.transition(PhaseValidating, "Validating generated code")

	if o.validate == nil {
		return nil, nil
	}

	result, err := o.validate(ctx)
	if err != nil {
		return nil, fmt.Errorf("validation failed to run: %w", err)
	}
	o.state.ValidationErrors = result.Errors
	o.bus.Publish(events.Validation{Valid: result.Success, Errors: errorMessages(result.Errors)})

	if result.Success {
		return nil, nil
	}

	o.transition(PhaseFixing, fmt.Sprintf("Fixing %d validation error(s)", len(result.Errors)))
	maxIterations := plan.Quality.MaxFixIterations()
	o.fixer.OnIteration = func(iteration, max int) {
		o.state.FixAttempts = iteration
		o.bus.Publish(events.FixAttempt{Attempt: iteration, MaxAttempts: max})
	}

	session, err := o.fixer.Run(ctx, o.projectID, o.validate, o.applier, o.fileContent, maxIterations)
	if err != nil {
		return session, fmt.Errorf("auto-fix failed: %w", err)
	}
	o.state.ValidationErrors = session.UnresolvedErrors
	return session, nil
}

// runReview asks the completion service for a review summary. Review is
// best-effort; failures degrade to an empty summary.
func (o *Orchestrator) runReview(ctx context.Context, request string) string {
	o.transition(PhaseReviewing, "Reviewing generated code")

	review, err := o.reviewCode(ctx, request)
	if err != nil {
		o.logger.LogError(fmt.Errorf("review failed: %w", err))
		return ""
	}
	o.bus.Publish(events.Review{
		Summary:        review.Summary,
		IssueCount:     review.IssueCount(),
		SeverityCounts: review.SeverityCounts(),
	})
	return review.Summary
}

func (o *Orchestrator) fileContent(path string) string {
	return o.state.Code[path]
}

func (o *Orchestrator) sourceFiles() []types.SourceFile {
	files := make([]types.SourceFile, 0, len(o.state.Code))
	for _, task := range o.tasksInOrder() {
		if content, ok := o.state.Code[task.File]; ok {
			files = append(files, types.SourceFile{Path: task.File, Content: content})
		}
	}
	return files
}

// tasksInOrder returns plan tasks with distinct files, preserving plan
// order so graph construction stays deterministic.
func (o *Orchestrator) tasksInOrder() []Task {
	if o.state.Plan == nil {
		return nil
	}
	seen := make(map[string]bool)
	var tasks []Task
	for _, task := range o.state.Plan.Tasks {
		if task.File == "" || seen[task.File] {
			continue
		}
		seen[task.File] = true
		tasks = append(tasks, task)
	}
	return tasks
}

func (o *Orchestrator) transition(phase Phase, message string) {
	o.state.Phase = phase
	o.logger.LogProcessStep(message)
	o.bus.Publish(events.PhaseChange{Phase: string(phase), Message: message})
}

func (o *Orchestrator) fail(err error) error {
	o.state.Phase = PhaseFailed
	o.logger.LogError(err)
	o.bus.Publish(events.Error{Message: err.Error()})
	return err
}

func (o *Orchestrator) publishTasks(plan *Plan) {
	snapshots := make([]events.TaskSnapshot, len(plan.Tasks))
	completed := 0
	for i, task := range plan.Tasks {
		snapshots[i] = events.TaskSnapshot{ID: task.ID, Description: task.Description, Status: task.Status}
		if task.Status == "completed" {
			completed++
		}
	}
	o.bus.Publish(events.TasksUpdated{Tasks: snapshots, CompletedCount: completed, TotalCount: len(plan.Tasks)})
}

func errorMessages(errs []types.ParsedError) []string {
	messages := make([]string, len(errs))
	for i, e := range errs {
		messages[i] = e.Message
	}
	return messages
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// stripCodeFences removes a wrapping markdown code fence if the model
// added one despite instructions.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return content
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return content
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
