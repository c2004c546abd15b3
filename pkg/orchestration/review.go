package orchestration

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ReviewIssue is one finding from the review phase.
type ReviewIssue struct {
	Severity    string `json:"severity"`
	File        string `json:"file,omitempty"`
	Description string `json:"description"`
}

// CodeReview is the review-phase result for one generation run.
type CodeReview struct {
	Summary string        `json:"summary"`
	Issues  []ReviewIssue `json:"issues"`
}

// IssueCount returns the number of findings.
func (r *CodeReview) IssueCount() int {
	return len(r.Issues)
}

// SeverityCounts buckets the findings by severity.
func (r *CodeReview) SeverityCounts() map[string]int {
	counts := make(map[string]int)
	for _, issue := range r.Issues {
		severity := strings.ToLower(issue.Severity)
		if severity == "" {
			severity = "info"
		}
		counts[severity]++
	}
	return counts
}

// reviewCode asks the completion service to review the accumulated code
// against the original request.
func (o *Orchestrator) reviewCode(ctx context.Context, request string) (*CodeReview, error) {
	if o.client == nil || o.client.Complete == nil {
		return nil, fmt.Errorf("no completion service registered")
	}

	var files strings.Builder
	for _, f := range o.sourceFiles() {
		files.WriteString(fmt.Sprintf("--- %s ---\n%s\n", f.Path, f.Content))
	}

	prompt := fmt.Sprintf(`Review the following generated code against the original request.

Original request:
%s

Respond with a JSON object with two keys:
1. "summary": a short overall assessment.
2. "issues": a list of {"severity": "high"|"medium"|"low", "file": string, "description": string}.

Your response MUST be only the raw JSON, without any surrounding text or code fences.`, request)

	response, err := o.client.Complete(ctx, prompt, files.String())
	if err != nil {
		return nil, err
	}

	return parseReview(response)
}

// parseReview extracts the review JSON, tolerating fenced responses the
// same way the plan parser does.
func parseReview(response string) (*CodeReview, error) {
	jsonStr := strings.TrimSpace(response)
	if strings.Contains(response, "```") {
		if start := strings.Index(response, "{"); start >= 0 {
			if end := strings.LastIndex(response, "}"); end > start {
				jsonStr = response[start : end+1]
			}
		}
	}

	var review CodeReview
	if err := json.Unmarshal([]byte(jsonStr), &review); err != nil {
		return nil, fmt.Errorf("failed to parse review JSON: %w\nResponse was: %s", err, response)
	}
	return &review, nil
}
