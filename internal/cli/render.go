package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/andywolf/speclinear/internal/config"
	"github.com/andywolf/speclinear/internal/linear"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("#5E6AD2")
	dimColor     = lipgloss.Color("#6C7086")

	identifierStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	titleStyle      = lipgloss.NewStyle().Bold(true)
	dimStyle        = lipgloss.NewStyle().Foreground(dimColor)
	okStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
	warnStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
)

// printer writes records in the configured output format.
type printer struct {
	w        io.Writer
	format   string
	markdown func(string) string
}

func newPrinter(w io.Writer, format string, width int) *printer {
	p := &printer{w: w, format: format, markdown: plainMarkdown}
	if format == config.FormatRich {
		p.markdown = markdownRenderer(width)
	}
	return p
}

func plainMarkdown(s string) string { return strings.TrimSpace(s) }

// markdownRenderer returns a glamour renderer, or plainMarkdown if one cannot
// be built.
func markdownRenderer(width int) func(string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return plainMarkdown
	}
	return func(input string) string {
		out, err := renderer.Render(input)
		if err != nil {
			return plainMarkdown(input)
		}
		return strings.TrimSpace(out)
	}
}

func (p *printer) style(s lipgloss.Style, text string) string {
	if p.format != config.FormatRich {
		return text
	}
	return s.Render(text)
}

func (p *printer) json() bool { return p.format == config.FormatJSON }

func (p *printer) writeJSON(v interface{}) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) body(text *string) {
	if text == nil || strings.TrimSpace(*text) == "" {
		return
	}
	p.printf("\n%s\n", p.markdown(*text))
}

func optional(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func (p *printer) Message(format string, args ...interface{}) error {
	if p.json() {
		return p.writeJSON(map[string]string{"message": fmt.Sprintf(format, args...)})
	}
	p.printf(format+"\n", args...)
	return nil
}

func (p *printer) Issue(issue *linear.Issue) error {
	if p.json() {
		return p.writeJSON(issue)
	}

	p.printf("%s %s\n", p.style(identifierStyle, issue.Identifier), p.style(titleStyle, issue.Title))
	state := "-"
	if issue.State != nil {
		state = issue.State.Name
	}
	p.printf("%s %s  %s %s\n",
		p.style(dimStyle, "State:"), state,
		p.style(dimStyle, "Priority:"), issue.Priority)
	if issue.Project != nil {
		p.printf("%s %s\n", p.style(dimStyle, "Project:"), issue.Project.Name)
	}
	if issue.Milestone != nil {
		p.printf("%s %s\n", p.style(dimStyle, "Milestone:"), issue.Milestone.Name)
	}
	if len(issue.Labels) > 0 {
		names := make([]string, 0, len(issue.Labels))
		for _, l := range issue.Labels {
			names = append(names, l.Name)
		}
		p.printf("%s %s\n", p.style(dimStyle, "Labels:"), strings.Join(names, ", "))
	}
	if issue.URL != nil {
		p.printf("%s %s\n", p.style(dimStyle, "URL:"), *issue.URL)
	}
	for _, r := range issue.Relations {
		p.printf("%s %s %s (%s)\n", p.style(dimStyle, "Relation:"), r.Type,
			relatedLabel(r), optional(r.RelatedIssueState))
	}
	p.body(issue.Description)
	return nil
}

func relatedLabel(r linear.IssueRelation) string {
	if r.RelatedIssueIdentifier != nil && *r.RelatedIssueIdentifier != "" {
		return *r.RelatedIssueIdentifier
	}
	return r.RelatedIssueID
}

func (p *printer) Issues(issues []linear.Issue) error {
	if p.json() {
		return p.writeJSON(issues)
	}
	if len(issues) == 0 {
		p.printf("No issues found.\n")
		return nil
	}
	for _, issue := range issues {
		state := "-"
		if issue.State != nil {
			state = issue.State.Name
		}
		p.printf("%-10s %-14s %s\n", p.style(identifierStyle, issue.Identifier), state, issue.Title)
	}
	return nil
}

func (p *printer) Project(project *linear.Project) error {
	if p.json() {
		return p.writeJSON(project)
	}

	p.printf("%s %s\n", p.style(titleStyle, project.Name), p.style(dimStyle, optional(project.Identifier)))
	p.printf("%s %s\n", p.style(dimStyle, "Status:"), optional(project.StatusName))
	if len(project.TeamIDs) > 0 {
		p.printf("%s %s\n", p.style(dimStyle, "Teams:"), strings.Join(project.TeamIDs, ", "))
	}
	if project.URL != nil {
		p.printf("%s %s\n", p.style(dimStyle, "URL:"), *project.URL)
	}
	for _, m := range project.Milestones {
		p.printf("%s %s (%s)\n", p.style(dimStyle, "Milestone:"), m.Name, optional(m.TargetDate))
	}
	p.body(project.Description)
	p.body(project.Content)
	return nil
}

func (p *printer) Team(team *linear.Team) error {
	if p.json() {
		return p.writeJSON(team)
	}

	p.printf("%s %s\n", p.style(identifierStyle, team.Key), p.style(titleStyle, team.Name))
	p.printf("\n%s\n", p.style(titleStyle, "States"))
	for _, s := range team.States {
		marker := " "
		if s.IsTerminal() {
			marker = "✓"
		}
		p.printf("  %s %-20s %-10s %s\n", marker, s.Name, s.Category, p.style(dimStyle, s.ID))
	}
	p.printf("\n%s\n", p.style(titleStyle, "Labels"))
	for _, l := range team.Labels {
		p.printf("  %-22s %s\n", l.Name, p.style(dimStyle, l.ID))
	}
	return nil
}

func (p *printer) Comments(comments []linear.Comment) error {
	if p.json() {
		return p.writeJSON(comments)
	}
	if len(comments) == 0 {
		p.printf("No comments.\n")
		return nil
	}
	for i, c := range comments {
		if i > 0 {
			p.printf("\n")
		}
		p.printf("%s %s\n", p.style(dimStyle, c.CreatedAt), p.style(dimStyle, optional(c.UserID)))
		p.printf("%s\n", p.markdown(c.Body))
	}
	return nil
}

func (p *printer) Comment(c *linear.Comment) error {
	if p.json() {
		return p.writeJSON(c)
	}
	p.printf("Created comment %s\n", c.ID)
	return nil
}

func (p *printer) Milestone(m *linear.Milestone) error {
	if p.json() {
		return p.writeJSON(m)
	}
	p.printf("Created milestone %s %s\n", p.style(titleStyle, m.Name), p.style(dimStyle, m.ID))
	return nil
}

func (p *printer) Relation(r *linear.IssueRelation) error {
	if p.json() {
		return p.writeJSON(r)
	}
	p.printf("%s %s %s\n", r.IssueID, r.Type, relatedLabel(*r))
	return nil
}

func (p *printer) ProjectStatuses(statuses []linear.ProjectStatus) error {
	if p.json() {
		return p.writeJSON(statuses)
	}
	for _, s := range statuses {
		p.printf("%-20s %s\n", s.Name, p.style(dimStyle, s.ID))
	}
	return nil
}

type blockerReport struct {
	Issue      string   `json:"issue"`
	Complete   bool     `json:"complete"`
	Incomplete []string `json:"incomplete"`
}

func (p *printer) Blockers(r blockerReport) error {
	if p.json() {
		return p.writeJSON(r)
	}
	if r.Complete {
		p.printf("%s all blockers of %s are complete\n", p.style(okStyle, "✓"), r.Issue)
		return nil
	}
	p.printf("%s %s is blocked by: %s\n", p.style(warnStyle, "✗"), r.Issue, strings.Join(r.Incomplete, ", "))
	return nil
}
