package linear

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const createProjectMutation = `
mutation CreateProject($input: ProjectCreateInput!) {
  projectCreate(input: $input) {
    success
    project { id name slugId description content url status { id name } }
  }
}`

const updateProjectMutation = `
mutation UpdateProject($id: String!, $input: ProjectUpdateInput!) {
  projectUpdate(id: $id, input: $input) {
    success
    project { id }
  }
}`

const createIssueMutation = `
mutation CreateIssue($input: IssueCreateInput!) {
  issueCreate(input: $input) {
    success
    issue { id identifier title url }
  }
}`

const updateIssueMutation = `
mutation UpdateIssue($id: String!, $input: IssueUpdateInput!) {
  issueUpdate(id: $id, input: $input) {
    success
    issue { id }
  }
}`

const createCommentMutation = `
mutation CreateComment($input: CommentCreateInput!) {
  commentCreate(input: $input) {
    success
    comment { id body createdAt updatedAt user { id } }
  }
}`

const createMilestoneMutation = `
mutation CreateMilestone($input: ProjectMilestoneCreateInput!) {
  projectMilestoneCreate(input: $input) {
    success
    projectMilestone { id name description sortOrder targetDate }
  }
}`

const createRelationMutation = `
mutation CreateBlockingRelation($input: IssueRelationCreateInput!) {
  issueRelationCreate(input: $input) {
    success
    issueRelation {
      id
      type
      relatedIssue { id identifier title state { id name } }
    }
  }
}`

const createLabelMutation = `
mutation CreateLabel($input: IssueLabelCreateInput!) {
  issueLabelCreate(input: $input) {
    success
    issueLabel { id }
  }
}`

// terminalStateNames are the state names a blocker may be in for the blocked
// issue to proceed. Compared case-insensitively.
var terminalStateNames = map[string]bool{
	"done":      true,
	"completed": true,
	"canceled":  true,
	"cancelled": true,
}

// Mutations holds the write operations. Create and update calls that return
// an Issue re-read it with Queries so the result is fully populated.
type Mutations struct {
	client  *Client
	queries *Queries
}

// NewMutations creates the write layer over c.
func NewMutations(c *Client) *Mutations {
	return &Mutations{client: c, queries: NewQueries(c)}
}

type CreateProjectInput struct {
	Name        string
	TeamIDs     []string
	Description string
	Content     string
	StatusID    string
}

// UpdateProjectInput sends only the non-nil fields.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Content     *string
	StatusID    *string
}

type CreateIssueInput struct {
	Title       string
	TeamID      string
	Description string
	ProjectID   string
	MilestoneID string
	Priority    Priority // PriorityNone leaves the server default
	LabelIDs    []string
	StateID     string
	AssigneeID  string
}

// UpdateIssueInput sends only the non-nil fields. A non-nil LabelIDs replaces
// the issue's whole label set; an empty non-nil slice clears it.
type UpdateIssueInput struct {
	Title       *string
	Description *string
	StateID     *string
	Priority    *Priority
	LabelIDs    []string
	MilestoneID *string
	AssigneeID  *string
}

type CreateMilestoneInput struct {
	ProjectID   string
	Name        string
	Description string
	SortOrder   *float64
	TargetDate  string // YYYY-MM-DD
}

type CreateLabelInput struct {
	TeamID      string
	Name        string
	Color       string
	Description string
}

// setIf adds key to m when v is non-empty.
func setIf(m map[string]interface{}, key, v string) {
	if v != "" {
		m[key] = v
	}
}

func setIfPtr[T any](m map[string]interface{}, key string, v *T) {
	if v != nil {
		m[key] = *v
	}
}

// decodePayload reads a mutation payload such as issueCreate { success issue {...} }
// and decodes the entity under entityKey into out. A payload reporting
// success=false is an *APIError.
func decodePayload(data map[string]json.RawMessage, field, entityKey string, out interface{}) error {
	var payload map[string]json.RawMessage
	if err := decodeField(data, field, &payload); err != nil {
		return err
	}
	if payload == nil {
		return &APIError{Message: "Linear API error: " + field + " returned no payload"}
	}

	var success *bool
	if err := decodeField(payload, "success", &success); err != nil {
		return err
	}
	if success != nil && !*success {
		return &APIError{Message: "Linear API error: " + field + " was not successful"}
	}

	if entityKey == "" {
		return nil
	}
	return decodeField(payload, entityKey, out)
}

// CreateProject creates a project. The result is built from the mutation
// response; TeamIDs are echoed from the input.
func (m *Mutations) CreateProject(ctx context.Context, in CreateProjectInput) (*Project, error) {
	teamIDs := in.TeamIDs
	if teamIDs == nil {
		teamIDs = []string{}
	}
	input := map[string]interface{}{
		"name":    in.Name,
		"teamIds": teamIDs,
	}
	setIf(input, "description", in.Description)
	setIf(input, "content", in.Content)
	setIf(input, "statusId", in.StatusID)

	data, err := m.client.Execute(ctx, createProjectMutation, map[string]interface{}{"input": input})
	if err != nil {
		return nil, err
	}

	var node *projectNode
	if err := decodePayload(data, "projectCreate", "project", &node); err != nil {
		return nil, err
	}
	if node == nil {
		return nil, &MappingError{Field: "projectCreate.project", Value: "null"}
	}

	p := mapProject(node)
	p.TeamIDs = append(p.TeamIDs, teamIDs...)
	return p, nil
}

// UpdateProject applies the non-nil fields of in and returns the re-read project.
func (m *Mutations) UpdateProject(ctx context.Context, projectID string, in UpdateProjectInput) (*Project, error) {
	input := map[string]interface{}{}
	setIfPtr(input, "name", in.Name)
	setIfPtr(input, "description", in.Description)
	setIfPtr(input, "content", in.Content)
	setIfPtr(input, "statusId", in.StatusID)

	data, err := m.client.Execute(ctx, updateProjectMutation, map[string]interface{}{
		"id":    projectID,
		"input": input,
	})
	if err != nil {
		return nil, err
	}
	if err := decodePayload(data, "projectUpdate", "", nil); err != nil {
		return nil, err
	}

	return m.queries.GetProject(ctx, projectID)
}

// CreateIssue creates an issue and returns it fully populated by GetIssue.
func (m *Mutations) CreateIssue(ctx context.Context, in CreateIssueInput) (*Issue, error) {
	input := map[string]interface{}{
		"title":  in.Title,
		"teamId": in.TeamID,
	}
	setIf(input, "description", in.Description)
	setIf(input, "projectId", in.ProjectID)
	setIf(input, "projectMilestoneId", in.MilestoneID)
	setIf(input, "stateId", in.StateID)
	setIf(input, "assigneeId", in.AssigneeID)
	if in.Priority != PriorityNone {
		input["priority"] = int(in.Priority)
	}
	if len(in.LabelIDs) > 0 {
		input["labelIds"] = in.LabelIDs
	}

	data, err := m.client.Execute(ctx, createIssueMutation, map[string]interface{}{"input": input})
	if err != nil {
		return nil, err
	}

	var created *issueNode
	if err := decodePayload(data, "issueCreate", "issue", &created); err != nil {
		return nil, err
	}
	if created == nil || created.ID == "" {
		return nil, &MappingError{Field: "issueCreate.issue", Value: "null"}
	}

	issue, err := m.queries.GetIssue(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching created issue %s: %w", created.ID, err)
	}
	return issue, nil
}

// UpdateIssue applies the non-nil fields of in and returns the re-read issue.
func (m *Mutations) UpdateIssue(ctx context.Context, issueID string, in UpdateIssueInput) (*Issue, error) {
	input := map[string]interface{}{}
	setIfPtr(input, "title", in.Title)
	setIfPtr(input, "description", in.Description)
	setIfPtr(input, "stateId", in.StateID)
	setIfPtr(input, "projectMilestoneId", in.MilestoneID)
	setIfPtr(input, "assigneeId", in.AssigneeID)
	if in.Priority != nil {
		input["priority"] = int(*in.Priority)
	}
	if in.LabelIDs != nil {
		input["labelIds"] = in.LabelIDs
	}

	data, err := m.client.Execute(ctx, updateIssueMutation, map[string]interface{}{
		"id":    issueID,
		"input": input,
	})
	if err != nil {
		return nil, err
	}
	if err := decodePayload(data, "issueUpdate", "", nil); err != nil {
		return nil, err
	}

	return m.queries.GetIssue(ctx, issueID)
}

// AddIssueLabel adds labelID to the issue's labels. Adding a label the issue
// already has changes nothing. The read and the write are separate requests,
// so concurrent label edits on the same issue can be lost.
func (m *Mutations) AddIssueLabel(ctx context.Context, issueID, labelID string) (*Issue, error) {
	issue, err := m.queries.GetIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	ids := issue.LabelIDs()
	for _, id := range ids {
		if id == labelID {
			return m.UpdateIssue(ctx, issueID, UpdateIssueInput{LabelIDs: ids})
		}
	}
	return m.UpdateIssue(ctx, issueID, UpdateIssueInput{LabelIDs: append(ids, labelID)})
}

// RemoveIssueLabel removes labelID from the issue's labels, if present.
// Same read-modify-write caveat as AddIssueLabel.
func (m *Mutations) RemoveIssueLabel(ctx context.Context, issueID, labelID string) (*Issue, error) {
	issue, err := m.queries.GetIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(issue.Labels))
	for _, id := range issue.LabelIDs() {
		if id != labelID {
			ids = append(ids, id)
		}
	}
	return m.UpdateIssue(ctx, issueID, UpdateIssueInput{LabelIDs: ids})
}

// CreateComment posts a markdown comment on an issue.
func (m *Mutations) CreateComment(ctx context.Context, issueID, body string) (*Comment, error) {
	data, err := m.client.Execute(ctx, createCommentMutation, map[string]interface{}{
		"input": map[string]interface{}{
			"issueId": issueID,
			"body":    body,
		},
	})
	if err != nil {
		return nil, err
	}

	var node *commentNode
	if err := decodePayload(data, "commentCreate", "comment", &node); err != nil {
		return nil, err
	}
	if node == nil {
		return nil, &MappingError{Field: "commentCreate.comment", Value: "null"}
	}
	c := mapComment(*node)
	return &c, nil
}

// CreateMilestone creates a project milestone.
func (m *Mutations) CreateMilestone(ctx context.Context, in CreateMilestoneInput) (*Milestone, error) {
	input := map[string]interface{}{
		"projectId": in.ProjectID,
		"name":      in.Name,
	}
	setIf(input, "description", in.Description)
	setIf(input, "targetDate", in.TargetDate)
	setIfPtr(input, "sortOrder", in.SortOrder)

	data, err := m.client.Execute(ctx, createMilestoneMutation, map[string]interface{}{"input": input})
	if err != nil {
		return nil, err
	}

	var node *milestoneNode
	if err := decodePayload(data, "projectMilestoneCreate", "projectMilestone", &node); err != nil {
		return nil, err
	}
	if node == nil {
		return nil, &MappingError{Field: "projectMilestoneCreate.projectMilestone", Value: "null"}
	}
	return mapMilestone(node, stringPtr(in.ProjectID)), nil
}

// CreateBlockingRelation records that blockerID blocks blockedID.
func (m *Mutations) CreateBlockingRelation(ctx context.Context, blockerID, blockedID string) (*IssueRelation, error) {
	data, err := m.client.Execute(ctx, createRelationMutation, map[string]interface{}{
		"input": map[string]interface{}{
			"issueId":        blockerID,
			"relatedIssueId": blockedID,
			"type":           string(RelationBlocks),
		},
	})
	if err != nil {
		return nil, err
	}

	var node *relationNode
	if err := decodePayload(data, "issueRelationCreate", "issueRelation", &node); err != nil {
		return nil, err
	}
	if node == nil {
		return nil, &MappingError{Field: "issueRelationCreate.issueRelation", Value: "null"}
	}
	if node.Type == "" {
		node.Type = string(RelationBlocks)
	}

	rel, err := mapRelation(blockerID, *node, false)
	if err != nil {
		return nil, err
	}
	if rel.RelatedIssueID == "" {
		rel.RelatedIssueID = blockedID
	}
	return &rel, nil
}

// CheckBlockersComplete reports whether every issue blocking issueID is in a
// terminal state (done, completed, canceled or cancelled by name). The second
// result lists the incomplete blockers by identifier, or by id when the
// identifier is unknown, or by relation id when the blocker is missing. A blocker whose state was not returned counts as
// incomplete.
func (m *Mutations) CheckBlockersComplete(ctx context.Context, issueID string) (bool, []string, error) {
	issue, err := m.queries.GetIssue(ctx, issueID)
	if err != nil {
		return false, nil, err
	}

	incomplete := []string{}
	for _, rel := range issue.Relations {
		if rel.Type != RelationBlockedBy {
			continue
		}
		if rel.RelatedIssueState != nil && terminalStateNames[strings.ToLower(*rel.RelatedIssueState)] {
			continue
		}
		switch {
		case rel.RelatedIssueIdentifier != nil && *rel.RelatedIssueIdentifier != "":
			incomplete = append(incomplete, *rel.RelatedIssueIdentifier)
		case rel.RelatedIssueID != "":
			incomplete = append(incomplete, rel.RelatedIssueID)
		default:
			// The blocker itself was not returned; name the relation instead.
			incomplete = append(incomplete, rel.ID)
		}
	}
	return len(incomplete) == 0, incomplete, nil
}

// CreateLabel creates a team label and returns its id.
func (m *Mutations) CreateLabel(ctx context.Context, in CreateLabelInput) (string, error) {
	input := map[string]interface{}{
		"teamId": in.TeamID,
		"name":   in.Name,
	}
	setIf(input, "color", in.Color)
	setIf(input, "description", in.Description)

	data, err := m.client.Execute(ctx, createLabelMutation, map[string]interface{}{"input": input})
	if err != nil {
		return "", err
	}

	var node *idNode
	if err := decodePayload(data, "issueLabelCreate", "issueLabel", &node); err != nil {
		return "", err
	}
	if node == nil || node.ID == "" {
		return "", &MappingError{Field: "issueLabelCreate.issueLabel", Value: "null"}
	}
	return node.ID, nil
}

// CreatePlanIssue creates the "Plan: <project>" issue in project. An empty
// summary gets a default description.
func (m *Mutations) CreatePlanIssue(ctx context.Context, project *Project, teamID, summary string) (*Issue, error) {
	description := summary
	if description == "" {
		description = "Implementation plan for " + project.Name
	}
	return m.CreateIssue(ctx, CreateIssueInput{
		Title:       PlanTitlePrefix + " " + project.Name,
		TeamID:      teamID,
		Description: description,
		ProjectID:   project.ID,
	})
}

// PostArtifact posts content under a "## <artifactType>" heading.
func (m *Mutations) PostArtifact(ctx context.Context, issueID, artifactType, content string) (*Comment, error) {
	return m.CreateComment(ctx, issueID, "## "+artifactType+"\n\n"+content)
}

// TransitionIssue moves an issue to the workflow state named stateName, looked
// up in the client's team config.
func (m *Mutations) TransitionIssue(ctx context.Context, issueID, stateName string) (*Issue, error) {
	cfg, err := m.client.requireConfig("moving an issue by state name")
	if err != nil {
		return nil, err
	}
	stateID, ok := cfg.StateID(stateName)
	if !ok {
		return nil, &ConfigurationError{Message: fmt.Sprintf("state %q is not in the team config", stateName)}
	}
	return m.UpdateIssue(ctx, issueID, UpdateIssueInput{StateID: &stateID})
}
