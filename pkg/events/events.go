// Package events provides the typed event stream emitted by the
// orchestration engine and consumed by UI layers.
package events

import "time"

// EventType discriminates the event union.
type EventType string

const (
	EventPhaseChange  EventType = "phase_change"
	EventTaskStart    EventType = "task_start"
	EventTaskComplete EventType = "task_complete"
	EventTasksUpdated EventType = "tasks_updated"
	EventThinking     EventType = "thinking"
	EventCodeChunk    EventType = "code_chunk"
	EventSearch       EventType = "search"
	EventSearchResult EventType = "search_result"
	EventValidation   EventType = "validation"
	EventFixAttempt   EventType = "fix_attempt"
	EventReview       EventType = "review"
	EventComplete     EventType = "complete"
	EventStatus       EventType = "status"
	EventError        EventType = "error"
)

// Payload is implemented by every event payload variant. The set of
// implementations is closed; consumers switch on the concrete type.
type Payload interface {
	EventType() EventType
}

// Event is one envelope on the stream. Ordering is causally sequential
// within a session; no guarantee holds across sessions.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   Payload   `json:"payload"`
}

// PhaseChange announces a transition of the orchestration state machine.
type PhaseChange struct {
	Phase   string `json:"phase"`
	Message string `json:"message"`
}

func (PhaseChange) EventType() EventType { return EventPhaseChange }

// TaskStart marks the beginning of one plan task.
type TaskStart struct {
	TaskID      string `json:"task_id"`
	Description string `json:"description"`
	File        string `json:"file,omitempty"`
}

func (TaskStart) EventType() EventType { return EventTaskStart }

// TaskComplete marks the end of one plan task.
type TaskComplete struct {
	TaskID      string `json:"task_id"`
	Description string `json:"description"`
	File        string `json:"file,omitempty"`
}

func (TaskComplete) EventType() EventType { return EventTaskComplete }

// TaskSnapshot is the per-task view carried by TasksUpdated.
type TaskSnapshot struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// TasksUpdated carries the whole task list after any status change.
type TasksUpdated struct {
	Tasks          []TaskSnapshot `json:"tasks"`
	CompletedCount int            `json:"completed_count"`
	TotalCount     int            `json:"total_count"`
}

func (TasksUpdated) EventType() EventType { return EventTasksUpdated }

// Thinking carries intermediate model output surfaced to the user.
type Thinking struct {
	Model   string `json:"model"`
	Content string `json:"content"`
}

func (Thinking) EventType() EventType { return EventThinking }

// CodeChunk is one increment of streamed generated code.
type CodeChunk struct {
	Content string `json:"content"`
}

func (CodeChunk) EventType() EventType { return EventCodeChunk }

// Search announces an outgoing search query.
type Search struct {
	Query string `json:"query"`
}

func (Search) EventType() EventType { return EventSearch }

// SearchResult reports how many results a query produced.
type SearchResult struct {
	Query       string `json:"query"`
	ResultCount int    `json:"result_count"`
}

func (SearchResult) EventType() EventType { return EventSearchResult }

// Validation reports the outcome of one validation pass.
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func (Validation) EventType() EventType { return EventValidation }

// FixAttempt reports progress of the auto-fix loop.
type FixAttempt struct {
	Attempt     int `json:"attempt"`
	MaxAttempts int `json:"max_attempts"`
}

func (FixAttempt) EventType() EventType { return EventFixAttempt }

// Review carries the review-phase summary.
type Review struct {
	Summary        string         `json:"summary"`
	IssueCount     int            `json:"issue_count"`
	SeverityCounts map[string]int `json:"severity_counts,omitempty"`
}

func (Review) EventType() EventType { return EventReview }

// Complete is the terminal success event of a session.
type Complete struct {
	Code          map[string]string `json:"code"`
	Summary       string            `json:"summary"`
	ReviewSummary string            `json:"review_summary,omitempty"`
}

func (Complete) EventType() EventType { return EventComplete }

// Status is a free-form progress message.
type Status struct {
	Message string `json:"message"`
}

func (Status) EventType() EventType { return EventStatus }

// Error is the terminal failure event of a session.
type Error struct {
	Message string `json:"message"`
}

func (Error) EventType() EventType { return EventError }
