package orchestration

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Quality selects how thorough a generation run is.
type Quality string

const (
	QualityPrototype  Quality = "prototype"
	QualityDemo       Quality = "demo"
	QualityProduction Quality = "production"
)

// MaxFixIterations returns the auto-fix budget for this quality profile.
func (q Quality) MaxFixIterations() int {
	switch q {
	case QualityPrototype:
		return 3
	case QualityProduction:
		return 8
	default:
		return 5
	}
}

// Task is one unit of the generation plan, usually one file.
type Task struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	File        string `json:"file,omitempty"`
	Status      string `json:"status"`
}

// Plan is the ordered task list produced by the planning phase.
type Plan struct {
	Tasks   []Task  `json:"tasks"`
	Quality Quality `json:"quality"`
	Summary string  `json:"summary,omitempty"`
}

// parsePlan extracts the plan JSON from a completion response, tolerating
// both raw JSON and a fenced code block.
func parsePlan(response string, quality Quality) (*Plan, error) {
	if response == "" {
		return nil, fmt.Errorf("completion service returned an empty plan response")
	}

	jsonStr := ""
	if strings.Contains(response, "```json") {
		parts := strings.Split(response, "```json")
		if len(parts) > 1 {
			jsonPart := parts[1]
			if end := strings.Index(jsonPart, "```"); end > 0 {
				jsonStr = strings.TrimSpace(jsonPart[:end])
			} else {
				jsonStr = strings.TrimSpace(jsonPart)
			}
		}
	} else if strings.Contains(response, `"tasks"`) {
		jsonStr = response
	}

	if jsonStr == "" {
		return nil, fmt.Errorf("plan response did not contain expected JSON: %s", response)
	}

	var plan Plan
	if err := json.Unmarshal([]byte(jsonStr), &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w\nResponse was: %s", err, response)
	}
	if len(plan.Tasks) == 0 {
		return nil, fmt.Errorf("plan contained no tasks")
	}

	plan.Quality = quality
	for i := range plan.Tasks {
		plan.Tasks[i].ID = fmt.Sprintf("task-%d", i+1)
		if plan.Tasks[i].Status == "" {
			plan.Tasks[i].Status = "pending"
		}
	}

	return &plan, nil
}

func planPrompt(request string, quality Quality) string {
	return fmt.Sprintf(`Break the following request into an ordered list of file-generation tasks.
Target quality level: %s.

Request:
%s

Respond with a JSON object with two keys:
1. "tasks": a list of {"description": string, "file": string} objects, in build order.
2. "summary": a one-paragraph description of the planned result.

Your response MUST be only the raw JSON, without any surrounding text or code fences.`, quality, request)
}
