package orchestration

import "testing"

func TestParseReviewRawJSON(t *testing.T) {
	review, err := parseReview(`{"summary":"solid","issues":[{"severity":"high","file":"a.ts","description":"bug"}]}`)
	if err != nil {
		t.Fatalf("parseReview returned error: %v", err)
	}
	if review.Summary != "solid" {
		t.Errorf("unexpected summary %q", review.Summary)
	}
	if review.IssueCount() != 1 {
		t.Errorf("expected 1 issue, got %d", review.IssueCount())
	}
}

func TestParseReviewFenced(t *testing.T) {
	response := "```json\n{\"summary\":\"ok\",\"issues\":[]}\n```"
	review, err := parseReview(response)
	if err != nil {
		t.Fatalf("parseReview returned error: %v", err)
	}
	if review.Summary != "ok" {
		t.Errorf("unexpected summary %q", review.Summary)
	}
}

func TestParseReviewInvalid(t *testing.T) {
	if _, err := parseReview("not json at all"); err == nil {
		t.Fatal("expected error for invalid review response")
	}
}

func TestSeverityCounts(t *testing.T) {
	review := &CodeReview{Issues: []ReviewIssue{
		{Severity: "High"},
		{Severity: "high"},
		{Severity: "low"},
		{Severity: ""},
	}}

	counts := review.SeverityCounts()
	if counts["high"] != 2 {
		t.Errorf("expected 2 high, got %d", counts["high"])
	}
	if counts["low"] != 1 {
		t.Errorf("expected 1 low, got %d", counts["low"])
	}
	if counts["info"] != 1 {
		t.Errorf("expected empty severity to bucket as info, got %d", counts["info"])
	}
}
