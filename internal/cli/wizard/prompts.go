// Package wizard provides interactive prompts for CLI commands.
package wizard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/andywolf/speclinear/internal/linear"
	"github.com/charmbracelet/huh"
)

// Selection is the subset of a team's names the user chose to keep.
type Selection struct {
	Labels   []string
	States   []string
	Statuses []string
}

// ConfirmTeam shows a summary of the fetched team and asks whether to write
// the team config for it.
func ConfirmTeam(team *linear.Team, statuses []linear.ProjectStatus) (bool, error) {
	var confirmed bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Team "+team.Key).
				Description(teamSummary(team, statuses)),

			huh.NewConfirm().
				Title("Write a team config for this team?").
				Value(&confirmed),
		),
	)

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt cancelled: %w", err)
	}
	return confirmed, nil
}

// SelectNames lets the user pick which labels, states and project statuses go
// into the team config. Everything starts selected.
func SelectNames(team *linear.Team, statuses []linear.ProjectStatus) (*Selection, error) {
	sel := &Selection{
		Labels:   labelNames(team.Labels),
		States:   stateNames(team.States),
		Statuses: statusNames(statuses),
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Labels").
				Options(huh.NewOptions(sel.Labels...)...).
				Value(&sel.Labels),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Workflow states").
				Options(huh.NewOptions(sel.States...)...).
				Value(&sel.States),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Project statuses").
				Options(huh.NewOptions(sel.Statuses...)...).
				Value(&sel.Statuses),
		),
	)

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("prompt cancelled: %w", err)
	}
	return sel, nil
}

// Apply drops every name from cfg that sel does not keep.
func (sel *Selection) Apply(cfg *linear.Config) {
	cfg.Labels = keep(cfg.Labels, sel.Labels)
	cfg.States = keep(cfg.States, sel.States)
	cfg.ProjectStatuses = keep(cfg.ProjectStatuses, sel.Statuses)
}

func keep(m map[string]string, names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, name := range names {
		if id, ok := m[name]; ok {
			out[name] = id
		}
	}
	return out
}

func teamSummary(team *linear.Team, statuses []linear.ProjectStatus) string {
	return fmt.Sprintf("Name: %s\nStates: %s\nLabels: %s\nProject statuses: %s",
		team.Name,
		joinOrNone(stateNames(team.States)),
		joinOrNone(labelNames(team.Labels)),
		joinOrNone(statusNames(statuses)),
	)
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func labelNames(labels []linear.Label) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.Name)
	}
	sort.Strings(names)
	return names
}

// stateNames keeps the team's workflow order.
func stateNames(states []linear.WorkflowState) []string {
	names := make([]string, 0, len(states))
	for _, s := range states {
		names = append(names, s.Name)
	}
	return names
}

func statusNames(statuses []linear.ProjectStatus) []string {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.Name)
	}
	return names
}
