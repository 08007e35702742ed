package linear

import (
	"encoding/json"
	"sort"
)

// Response fragments. Optional scalars are pointers so a missing or null field
// stays distinguishable from an empty one after mapping.

type connection[T any] struct {
	Nodes []T `json:"nodes"`
}

type idNode struct {
	ID string `json:"id"`
}

type nameNode struct {
	ID   string  `json:"id"`
	Name *string `json:"name"`
}

type stateNode struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     *string  `json:"type"`
	Color    *string  `json:"color"`
	Position *float64 `json:"position"`
}

type labelNode struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Color       *string `json:"color"`
	Description *string `json:"description"`
}

type commentNode struct {
	ID        string  `json:"id"`
	Body      string  `json:"body"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt *string `json:"updatedAt"`
	User      *idNode `json:"user"`
}

type relatedIssueNode struct {
	ID         string    `json:"id"`
	Identifier *string   `json:"identifier"`
	Title      *string   `json:"title"`
	State      *nameNode `json:"state"`
}

type relationNode struct {
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	RelatedIssue *relatedIssueNode `json:"relatedIssue"`
	Issue        *relatedIssueNode `json:"issue"`
}

type milestoneNode struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	SortOrder   *float64 `json:"sortOrder"`
	TargetDate  *string  `json:"targetDate"`
	Project     *idNode  `json:"project"`
}

type projectNode struct {
	ID                string                     `json:"id"`
	Name              string                     `json:"name"`
	SlugID            *string                    `json:"slugId"`
	Description       *string                    `json:"description"`
	Content           *string                    `json:"content"`
	URL               *string                    `json:"url"`
	Status            *nameNode                  `json:"status"`
	Teams             *connection[idNode]        `json:"teams"`
	ProjectMilestones *connection[milestoneNode] `json:"projectMilestones"`
}

type issueNode struct {
	ID               string                    `json:"id"`
	Identifier       string                    `json:"identifier"`
	Title            string                    `json:"title"`
	Description      *string                   `json:"description"`
	Priority         json.RawMessage           `json:"priority"`
	URL              *string                   `json:"url"`
	BranchName       *string                   `json:"branchName"`
	Assignee         *idNode                   `json:"assignee"`
	Team             *idNode                   `json:"team"`
	State            *stateNode                `json:"state"`
	Project          *projectNode              `json:"project"`
	ProjectMilestone *milestoneNode            `json:"projectMilestone"`
	Labels           *connection[labelNode]    `json:"labels"`
	Comments         *connection[commentNode]  `json:"comments"`
	Relations        *connection[relationNode] `json:"relations"`
	InverseRelations *connection[relationNode] `json:"inverseRelations"`
}

type teamNode struct {
	ID     string                 `json:"id"`
	Name   string                 `json:"name"`
	Key    string                 `json:"key"`
	States *connection[stateNode] `json:"states"`
	Labels *connection[labelNode] `json:"labels"`
}

type projectStatusNode struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Color    *string  `json:"color"`
	Position *float64 `json:"position"`
}

// decodeField unmarshals data[key] into out. A missing key decodes as null.
func decodeField(data map[string]json.RawMessage, key string, out interface{}) error {
	raw, ok := data[key]
	if !ok || len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &MappingError{Field: key, Value: truncate(string(raw)), Err: err}
	}
	return nil
}

func nodesOf[T any](c *connection[T]) []T {
	if c == nil {
		return nil
	}
	return c.Nodes
}

func mapState(n *stateNode) *WorkflowState {
	if n == nil {
		return nil
	}
	s := &WorkflowState{
		ID:       n.ID,
		Name:     n.Name,
		Color:    n.Color,
		Position: n.Position,
	}
	if n.Type != nil {
		s.Category = ParseStateCategory(*n.Type)
	}
	return s
}

func mapLabels(c *connection[labelNode]) []Label {
	nodes := nodesOf(c)
	labels := make([]Label, 0, len(nodes))
	for _, l := range nodes {
		labels = append(labels, Label{
			ID:          l.ID,
			Name:        l.Name,
			Color:       l.Color,
			Description: l.Description,
		})
	}
	return labels
}

func mapComment(n commentNode) Comment {
	c := Comment{
		ID:        n.ID,
		Body:      n.Body,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if n.User != nil {
		c.UserID = stringPtr(n.User.ID)
	}
	return c
}

func mapComments(c *connection[commentNode]) []Comment {
	nodes := nodesOf(c)
	comments := make([]Comment, 0, len(nodes))
	for _, n := range nodes {
		comments = append(comments, mapComment(n))
	}
	return comments
}

// mapMilestone uses the nested project id when present, else projectID.
func mapMilestone(n *milestoneNode, projectID *string) *Milestone {
	if n == nil {
		return nil
	}
	m := &Milestone{
		ID:          n.ID,
		Name:        n.Name,
		Description: n.Description,
		SortOrder:   n.SortOrder,
		ProjectID:   projectID,
		TargetDate:  n.TargetDate,
	}
	if n.Project != nil {
		m.ProjectID = stringPtr(n.Project.ID)
	}
	return m
}

func mapProject(n *projectNode) *Project {
	if n == nil {
		return nil
	}
	p := &Project{
		ID:          n.ID,
		Name:        n.Name,
		Identifier:  n.SlugID,
		Description: n.Description,
		Content:     n.Content,
		URL:         n.URL,
		TeamIDs:     []string{},
		Milestones:  []Milestone{},
	}
	if n.Status != nil {
		p.StatusID = stringPtr(n.Status.ID)
		p.StatusName = n.Status.Name
	}
	for _, t := range nodesOf(n.Teams) {
		p.TeamIDs = append(p.TeamIDs, t.ID)
	}
	projectID := stringPtr(n.ID)
	for i := range nodesOf(n.ProjectMilestones) {
		p.Milestones = append(p.Milestones, *mapMilestone(&n.ProjectMilestones.Nodes[i], projectID))
	}
	return p
}

// mapRelation maps an edge of issueID. Inverse edges are stored on the other
// issue, so their type is flipped to read from issueID's side.
func mapRelation(issueID string, n relationNode, inverse bool) (IssueRelation, error) {
	t, err := ParseRelationType(n.Type)
	if err != nil {
		return IssueRelation{}, err
	}
	other := n.RelatedIssue
	if inverse {
		t = t.inverse()
		other = n.Issue
	}

	r := IssueRelation{
		ID:      n.ID,
		Type:    t,
		IssueID: issueID,
	}
	if other != nil {
		r.RelatedIssueID = other.ID
		r.RelatedIssueIdentifier = other.Identifier
		r.RelatedIssueTitle = other.Title
		if other.State != nil {
			r.RelatedIssueState = other.State.Name
		}
	}
	return r, nil
}

func mapIssue(n *issueNode) (*Issue, error) {
	issue := &Issue{
		ID:          n.ID,
		Identifier:  n.Identifier,
		Title:       n.Title,
		Description: n.Description,
		Priority:    PriorityFromValue(n.Priority),
		State:       mapState(n.State),
		Project:     mapProject(n.Project),
		Labels:      mapLabels(n.Labels),
		Comments:    mapComments(n.Comments),
		Relations:   []IssueRelation{},
		BranchName:  n.BranchName,
		URL:         n.URL,
	}

	var projectID *string
	if n.Project != nil {
		projectID = stringPtr(n.Project.ID)
	}
	issue.Milestone = mapMilestone(n.ProjectMilestone, projectID)

	if n.Assignee != nil {
		issue.AssigneeID = stringPtr(n.Assignee.ID)
	}
	if n.Team != nil {
		issue.TeamID = stringPtr(n.Team.ID)
	}

	for _, r := range nodesOf(n.Relations) {
		rel, err := mapRelation(n.ID, r, false)
		if err != nil {
			return nil, err
		}
		issue.Relations = append(issue.Relations, rel)
	}
	for _, r := range nodesOf(n.InverseRelations) {
		rel, err := mapRelation(n.ID, r, true)
		if err != nil {
			return nil, err
		}
		issue.Relations = append(issue.Relations, rel)
	}

	return issue, nil
}

func mapIssues(nodes []issueNode) ([]Issue, error) {
	issues := make([]Issue, 0, len(nodes))
	for i := range nodes {
		issue, err := mapIssue(&nodes[i])
		if err != nil {
			return nil, err
		}
		issues = append(issues, *issue)
	}
	return issues, nil
}

// mapTeam orders states by position; states without a position sort last.
func mapTeam(n *teamNode) *Team {
	stateNodes := nodesOf(n.States)
	states := make([]WorkflowState, 0, len(stateNodes))
	for i := range stateNodes {
		states = append(states, *mapState(&stateNodes[i]))
	}
	sort.SliceStable(states, func(i, j int) bool {
		a, b := states[i].Position, states[j].Position
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return *a < *b
	})

	return &Team{
		ID:     n.ID,
		Name:   n.Name,
		Key:    n.Key,
		States: states,
		Labels: mapLabels(n.Labels),
	}
}

func mapProjectStatus(n projectStatusNode) ProjectStatus {
	return ProjectStatus{
		ID:       n.ID,
		Name:     n.Name,
		Color:    n.Color,
		Position: n.Position,
	}
}

func stringPtr(s string) *string {
	return &s
}
