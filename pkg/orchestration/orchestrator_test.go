package orchestration

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/forgeloop/forged/pkg/autofix"
	"github.com/forgeloop/forged/pkg/events"
	"github.com/forgeloop/forged/pkg/llmclient"
	"github.com/forgeloop/forged/pkg/memory"
	"github.com/forgeloop/forged/pkg/types"
	"github.com/forgeloop/forged/pkg/utils"
)

const twoTaskPlan = `{"tasks":[{"description":"create helper","file":"util.ts"},{"description":"create app","file":"app.ts"}],"summary":"two files"}`

func fakeClient(plan string) *llmclient.Client {
	return &llmclient.Client{
		Model: "test-model",
		Complete: func(ctx context.Context, prompt, contextBlock string) (string, error) {
			switch {
			case strings.Contains(prompt, "Break the following request"):
				return plan, nil
			case strings.Contains(prompt, "Review the following generated code"):
				return `{"summary":"looks fine","issues":[]}`, nil
			case strings.Contains(prompt, "util.ts"):
				return "export const helper = 1;", nil
			default:
				return "import { helper } from './util';\nexport const app = helper;", nil
			}
		},
	}
}

func passingValidate(ctx context.Context) (types.ValidationResult, error) {
	return types.ValidationResult{Success: true}, nil
}

func drainEvents(bus *events.Bus, ch <-chan events.Event) []events.Event {
	bus.Unsubscribe("test")
	var collected []events.Event
	for ev := range ch {
		collected = append(collected, ev)
	}
	return collected
}

func eventTypes(evs []events.Event) []events.EventType {
	out := make([]events.EventType, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}

func containsType(evs []events.Event, want events.EventType) bool {
	for _, ev := range evs {
		if ev.Type == want {
			return true
		}
	}
	return false
}

func TestOrchestratorRunHappyPath(t *testing.T) {
	mem := memory.NewService()
	bus := events.NewBus()
	ch := bus.Subscribe("test")
	logger := utils.NewLogger(io.Discard, false)

	orch := New("proj", fakeClient(twoTaskPlan), passingValidate, nil, mem, bus, logger)
	if err := orch.Run(context.Background(), "make an app", QualityDemo); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	state := orch.State()
	if state.Phase != PhaseComplete {
		t.Fatalf("expected terminal phase complete, got %s", state.Phase)
	}
	if len(state.Code) != 2 {
		t.Fatalf("expected 2 generated files, got %d", len(state.Code))
	}
	if !strings.Contains(state.Code["app.ts"], "helper") {
		t.Errorf("app.ts content missing expected text: %q", state.Code["app.ts"])
	}

	if _, ok := mem.CachedGraph("proj"); !ok {
		t.Error("dependency graph was not cached after building")
	}
	if _, ok := mem.Project("proj").Files["util.ts"]; !ok {
		t.Error("generated file metadata was not recorded")
	}

	collected := drainEvents(bus, ch)
	for _, want := range []events.EventType{
		events.EventPhaseChange,
		events.EventThinking,
		events.EventTaskStart,
		events.EventTaskComplete,
		events.EventTasksUpdated,
		events.EventCodeChunk,
		events.EventValidation,
		events.EventReview,
		events.EventComplete,
	} {
		if !containsType(collected, want) {
			t.Errorf("expected a %s event, got %v", want, eventTypes(collected))
		}
	}

	// The terminal event carries the full generated code.
	last := collected[len(collected)-1]
	complete, ok := last.Payload.(events.Complete)
	if !ok {
		t.Fatalf("last event is %T, expected Complete", last.Payload)
	}
	if complete.Summary != "two files" {
		t.Errorf("unexpected completion summary %q", complete.Summary)
	}
	if complete.ReviewSummary != "looks fine" {
		t.Errorf("unexpected review summary %q", complete.ReviewSummary)
	}
}

func TestOrchestratorRunFixesErrors(t *testing.T) {
	mem := memory.NewService()
	bus := events.NewBus()
	ch := bus.Subscribe("test")
	logger := utils.NewLogger(io.Discard, false)

	fixed := false
	validate := func(ctx context.Context) (types.ValidationResult, error) {
		if fixed {
			return types.ValidationResult{Success: true}, nil
		}
		return types.ValidationResult{
			Errors: []types.ParsedError{{
				Type:       types.ErrorTypeSyntax,
				Message:    "Unexpected token }",
				File:       "app.ts",
				Suggestion: "balance the braces",
			}},
		}, nil
	}
	applier := func(fix autofix.Fix, parsed types.ParsedError) (bool, string) {
		fixed = true
		return true, ""
	}

	orch := New("proj", fakeClient(twoTaskPlan), validate, applier, mem, bus, logger)
	if err := orch.Run(context.Background(), "make an app", QualityDemo); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	state := orch.State()
	if state.Phase != PhaseComplete {
		t.Fatalf("expected terminal phase complete, got %s", state.Phase)
	}
	if len(state.ValidationErrors) != 0 {
		t.Errorf("expected no remaining validation errors, got %v", state.ValidationErrors)
	}
	if state.FixAttempts != 1 {
		t.Errorf("expected 1 fix attempt, got %d", state.FixAttempts)
	}

	collected := drainEvents(bus, ch)
	if !containsType(collected, events.EventFixAttempt) {
		t.Errorf("expected a fix_attempt event, got %v", eventTypes(collected))
	}
}

func TestOrchestratorRunPartialFix(t *testing.T) {
	mem := memory.NewService()
	bus := events.NewBus()
	ch := bus.Subscribe("test")
	logger := utils.NewLogger(io.Discard, false)

	validate := func(ctx context.Context) (types.ValidationResult, error) {
		return types.ValidationResult{
			Errors: []types.ParsedError{{
				Type:       types.ErrorTypeRuntime,
				Message:    "keeps failing",
				Suggestion: "restart",
			}},
		}, nil
	}
	refuse := func(fix autofix.Fix, parsed types.ParsedError) (bool, string) { return false, "" }

	orch := New("proj", fakeClient(twoTaskPlan), validate, refuse, mem, bus, logger)
	if err := orch.Run(context.Background(), "make an app", QualityPrototype); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	state := orch.State()
	if state.Phase != PhaseComplete {
		t.Fatalf("expected terminal phase complete, got %s", state.Phase)
	}
	// Prototype quality budgets three fix iterations.
	if state.FixAttempts != 3 {
		t.Errorf("expected 3 fix attempts, got %d", state.FixAttempts)
	}
	if len(state.ValidationErrors) != 1 {
		t.Errorf("expected the unresolved error to remain, got %v", state.ValidationErrors)
	}

	collected := drainEvents(bus, ch)
	last := collected[len(collected)-1]
	complete, ok := last.Payload.(events.Complete)
	if !ok {
		t.Fatalf("last event is %T, expected Complete", last.Payload)
	}
	if !strings.Contains(complete.Summary, "partially fixed") {
		t.Errorf("expected partial-fix summary, got %q", complete.Summary)
	}
}

func TestOrchestratorPlanningFailure(t *testing.T) {
	mem := memory.NewService()
	bus := events.NewBus()
	ch := bus.Subscribe("test")
	logger := utils.NewLogger(io.Discard, false)

	client := &llmclient.Client{
		Complete: func(ctx context.Context, prompt, contextBlock string) (string, error) {
			return "", errors.New("model unavailable")
		},
	}

	orch := New("proj", client, passingValidate, nil, mem, bus, logger)
	if err := orch.Run(context.Background(), "make an app", QualityDemo); err == nil {
		t.Fatal("expected planning failure to surface as an error")
	}

	if orch.State().Phase != PhaseFailed {
		t.Errorf("expected terminal phase failed, got %s", orch.State().Phase)
	}
	collected := drainEvents(bus, ch)
	if !containsType(collected, events.EventError) {
		t.Errorf("expected an error event, got %v", eventTypes(collected))
	}
}

func TestOrchestratorSearchOnlyForProduction(t *testing.T) {
	logger := utils.NewLogger(io.Discard, false)

	for _, tc := range []struct {
		quality Quality
		want    bool
	}{
		{QualityProduction, true},
		{QualityDemo, false},
	} {
		mem := memory.NewService()
		bus := events.NewBus()
		searched := false

		orch := New("proj", fakeClient(twoTaskPlan), passingValidate, nil, mem, bus, logger)
		orch.SetSearch(func(ctx context.Context, query string) (int, error) {
			searched = true
			return 3, nil
		})

		if err := orch.Run(context.Background(), "make an app", tc.quality); err != nil {
			t.Fatalf("%s: Run returned error: %v", tc.quality, err)
		}
		if searched != tc.want {
			t.Errorf("%s: search called = %v, want %v", tc.quality, searched, tc.want)
		}
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"no fence", "const a = 1;", "const a = 1;"},
		{"plain fence", "```\nconst a = 1;\n```", "const a = 1;"},
		{"language fence", "```typescript\nconst a = 1;\n```", "const a = 1;"},
		{"unterminated fence", "```\nconst a = 1;", "const a = 1;"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripCodeFences(tc.input); got != tc.want {
				t.Errorf("stripCodeFences(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
