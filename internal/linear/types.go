// Package linear is a typed client for the Linear GraphQL API.
//
// It is split into three layers: Client executes a single GraphQL operation,
// Queries reads issues, projects, teams and comments, and Mutations writes them.
// Every record returned is a snapshot built from one response; nothing is cached
// apart from the optional team config file.
package linear

import (
	"encoding/json"
	"strings"
)

// Priority is an issue priority as stored by Linear (0 = no priority, 1 = urgent, 4 = low).
type Priority int

const (
	PriorityNone   Priority = 0
	PriorityUrgent Priority = 1
	PriorityHigh   Priority = 2
	PriorityMedium Priority = 3
	PriorityLow    Priority = 4
)

// PriorityFromInt maps a raw priority to the enum. Values outside 0-4 degrade to PriorityNone.
func PriorityFromInt(v int) Priority {
	if v < int(PriorityNone) || v > int(PriorityLow) {
		return PriorityNone
	}
	return Priority(v)
}

// PriorityFromValue maps the raw JSON priority of an issue. Anything other
// than an integral number from 0 to 4 (absent, null, a string, a fraction)
// degrades to PriorityNone.
func PriorityFromValue(raw json.RawMessage) Priority {
	var v float64
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return PriorityNone
	}
	if v < float64(PriorityNone) || v > float64(PriorityLow) || v != float64(int(v)) {
		return PriorityNone
	}
	return Priority(int(v))
}

// ParsePriority accepts either a priority name ("urgent") or its number ("1").
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "0", "":
		return PriorityNone, true
	case "urgent", "1":
		return PriorityUrgent, true
	case "high", "2":
		return PriorityHigh, true
	case "medium", "3":
		return PriorityMedium, true
	case "low", "4":
		return PriorityLow, true
	}
	return PriorityNone, false
}

func (p Priority) String() string {
	switch p {
	case PriorityUrgent:
		return "urgent"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "none"
	}
}

// RelationType is the direction-aware kind of an IssueRelation.
type RelationType string

const (
	RelationBlocks    RelationType = "blocks"
	RelationBlockedBy RelationType = "blocked_by"
	RelationRelated   RelationType = "related"
	RelationDuplicate RelationType = "duplicate"
)

// ParseRelationType lower-cases s and maps it to a RelationType.
// Unrecognized values return a *MappingError.
func ParseRelationType(s string) (RelationType, error) {
	switch t := RelationType(strings.ToLower(s)); t {
	case RelationBlocks, RelationBlockedBy, RelationRelated, RelationDuplicate:
		return t, nil
	}
	return "", &MappingError{Field: "relation.type", Value: s}
}

// inverse returns the type as seen from the other end of the edge.
func (t RelationType) inverse() RelationType {
	switch t {
	case RelationBlocks:
		return RelationBlockedBy
	case RelationBlockedBy:
		return RelationBlocks
	default:
		return t
	}
}

// StateCategory is the workflow state type Linear groups states by.
type StateCategory string

const (
	StateCategoryUnknown   StateCategory = ""
	StateCategoryTriage    StateCategory = "triage"
	StateCategoryBacklog   StateCategory = "backlog"
	StateCategoryUnstarted StateCategory = "unstarted"
	StateCategoryStarted   StateCategory = "started"
	StateCategoryCompleted StateCategory = "completed"
	StateCategoryCanceled  StateCategory = "canceled"
)

// ParseStateCategory maps a raw state type. Unknown values map to StateCategoryUnknown.
func ParseStateCategory(s string) StateCategory {
	switch c := StateCategory(strings.ToLower(s)); c {
	case StateCategoryTriage, StateCategoryBacklog, StateCategoryUnstarted,
		StateCategoryStarted, StateCategoryCompleted, StateCategoryCanceled:
		return c
	}
	return StateCategoryUnknown
}

// WorkflowState is a team workflow state such as "In Progress".
type WorkflowState struct {
	ID       string
	Name     string
	Category StateCategory
	Color    *string
	Position *float64
}

// IsTerminal reports whether issues in this state are finished.
func (s WorkflowState) IsTerminal() bool {
	return s.Category == StateCategoryCompleted || s.Category == StateCategoryCanceled
}

type Label struct {
	ID          string
	Name        string
	Color       *string
	Description *string
}

// Team holds a team's workflow states, ordered by position, and its labels.
type Team struct {
	ID     string
	Name   string
	Key    string
	States []WorkflowState
	Labels []Label
}

type Comment struct {
	ID        string
	Body      string
	CreatedAt string
	UpdatedAt *string
	UserID    *string
}

// IssueRelation is a directed edge typed from IssueID's point of view.
// The Related* fields are a snapshot of the other issue taken by the same query.
type IssueRelation struct {
	ID                     string
	Type                   RelationType
	IssueID                string
	RelatedIssueID         string
	RelatedIssueIdentifier *string
	RelatedIssueTitle      *string
	RelatedIssueState      *string
}

type Milestone struct {
	ID          string
	Name        string
	Description *string
	SortOrder   *float64
	ProjectID   *string
	TargetDate  *string
}

// Project is a Linear project. Content carries the long-form spec text.
type Project struct {
	ID          string
	Name        string
	Identifier  *string
	Description *string
	Content     *string
	URL         *string
	StatusID    *string
	StatusName  *string
	TeamIDs     []string
	Milestones  []Milestone
}

type ProjectStatus struct {
	ID       string
	Name     string
	Color    *string
	Position *float64
}

// Issue is a Linear issue. Nested records are denormalized from the query that
// fetched it and may be partially populated.
type Issue struct {
	ID          string
	Identifier  string // e.g. "TIM-123"
	Title       string
	Description *string
	Priority    Priority
	State       *WorkflowState
	Project     *Project
	Milestone   *Milestone
	Labels      []Label
	Comments    []Comment
	Relations   []IssueRelation
	BranchName  *string
	URL         *string
	AssigneeID  *string
	TeamID      *string
}

// LabelIDs returns the ids of the issue's labels in order.
func (i *Issue) LabelIDs() []string {
	ids := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		ids = append(ids, l.ID)
	}
	return ids
}

// StateName returns the issue's state name or "" when the state was not fetched.
func (i *Issue) StateName() string {
	if i.State == nil {
		return ""
	}
	return i.State.Name
}
