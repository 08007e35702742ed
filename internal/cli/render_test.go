package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/andywolf/speclinear/internal/config"
	"github.com/andywolf/speclinear/internal/linear"
)

func strPtr(s string) *string { return &s }

func sampleIssue() *linear.Issue {
	return &linear.Issue{
		ID:          "abc",
		Identifier:  "TIM-1",
		Title:       "Add retry",
		Description: strPtr("Retry twice."),
		Priority:    linear.PriorityHigh,
		State:       &linear.WorkflowState{ID: "s-1", Name: "Todo"},
		Labels:      []linear.Label{{ID: "lab-1", Name: "bug"}, {ID: "lab-2", Name: "agent"}},
		Relations: []linear.IssueRelation{{
			ID:                     "r1",
			Type:                   linear.RelationBlockedBy,
			IssueID:                "abc",
			RelatedIssueID:         "b1",
			RelatedIssueIdentifier: strPtr("TIM-2"),
			RelatedIssueState:      strPtr("Done"),
		}},
	}
}

func TestPrinterIssue_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, config.FormatPlain, 80)

	if err := p.Issue(sampleIssue()); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"TIM-1 Add retry\n",
		"State: Todo",
		"Labels: bug, agent\n",
		"Relation: blocked_by TIM-2 (Done)\n",
		"\nRetry twice.\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("plain output must not contain ANSI escapes")
	}
}

func TestPrinterIssue_JSON(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, config.FormatJSON, 80)

	if err := p.Issue(sampleIssue()); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if decoded["Identifier"] != "TIM-1" {
		t.Errorf("Identifier = %v", decoded["Identifier"])
	}
}

func TestPrinterIssues_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := newPrinter(&buf, config.FormatPlain, 80).Issues(nil); err != nil {
		t.Fatalf("Issues: %v", err)
	}
	if buf.String() != "No issues found.\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrinterBlockers(t *testing.T) {
	tests := []struct {
		name   string
		report blockerReport
		want   string
	}{
		{
			name:   "complete",
			report: blockerReport{Issue: "TIM-1", Complete: true, Incomplete: []string{}},
			want:   "✓ all blockers of TIM-1 are complete\n",
		},
		{
			name:   "blocked",
			report: blockerReport{Issue: "TIM-1", Incomplete: []string{"TIM-2", "TIM-3"}},
			want:   "✗ TIM-1 is blocked by: TIM-2, TIM-3\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := newPrinter(&buf, config.FormatPlain, 80).Blockers(tt.report); err != nil {
				t.Fatalf("Blockers: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestPrinterMessage_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := newPrinter(&buf, config.FormatJSON, 80).Message("Created label %s", "bug"); err != nil {
		t.Fatalf("Message: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "{\n  \"message\": \"Created label bug\"\n}" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrinterRich_RendersMarkdown(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, config.FormatRich, 80)

	if got := p.markdown("Retry **twice**."); strings.Contains(got, "**") {
		t.Errorf("markdown was not rendered: %q", got)
	}
}

func TestRelatedLabel_FallsBackToID(t *testing.T) {
	r := linear.IssueRelation{RelatedIssueID: "b1"}
	if got := relatedLabel(r); got != "b1" {
		t.Errorf("relatedLabel = %q", got)
	}
}
