package linear

import (
	"context"
	"fmt"
	"strings"
)

// PlanTitlePrefix marks the issue that holds a project's implementation plan.
const PlanTitlePrefix = "Plan:"

const getIssueQuery = `
query GetIssue($id: String!) {
  issue(id: $id) {
    id
    identifier
    title
    description
    priority
    url
    branchName
    assignee { id }
    team { id }
    state { id name type color position }
    project { id name slugId description content url }
    projectMilestone { id name description sortOrder targetDate }
    labels { nodes { id name color description } }
    comments { nodes { id body createdAt updatedAt user { id } } }
    relations {
      nodes {
        id
        type
        relatedIssue { id identifier title state { id name } }
      }
    }
    inverseRelations {
      nodes {
        id
        type
        issue { id identifier title state { id name } }
      }
    }
  }
}`

const getProjectQuery = `
query GetProject($id: String!) {
  project(id: $id) {
    id
    name
    slugId
    description
    content
    url
    status { id name }
    teams { nodes { id } }
    projectMilestones { nodes { id name description sortOrder targetDate } }
  }
}`

const getIssueCommentsQuery = `
query GetIssueComments($issueId: String!) {
  issue(id: $issueId) {
    comments { nodes { id body createdAt updatedAt user { id } } }
  }
}`

const getTeamQuery = `
query GetTeam($teamId: String!) {
  team(id: $teamId) {
    id
    name
    key
    states { nodes { id name type color position } }
    labels { nodes { id name color description } }
  }
}`

const getProjectIssuesQuery = `
query GetProjectIssues($projectId: String!) {
  project(id: $projectId) {
    issues {
      nodes {
        id
        identifier
        title
        description
        priority
        url
        state { id name type }
        projectMilestone { id name }
        labels { nodes { id name } }
      }
    }
  }
}`

const searchIssuesQuery = `
query SearchIssues($query: String, $filter: IssueFilter) {
  issueSearch(query: $query, filter: $filter) {
    nodes {
      id
      identifier
      title
      description
      priority
      url
      state { id name type }
      project { id name }
      labels { nodes { id name } }
    }
  }
}`

const getProjectStatusesQuery = `
query GetProjectStatuses {
  projectStatuses {
    nodes { id name color position }
  }
}`

// Queries holds the read operations. Each call is one round trip unless noted.
type Queries struct {
	client *Client
}

// NewQueries creates the read layer over c.
func NewQueries(c *Client) *Queries {
	return &Queries{client: c}
}

// GetIssue fetches an issue by UUID or identifier ("TIM-123") with its state,
// project, milestone, labels, comments and relations.
func (q *Queries) GetIssue(ctx context.Context, idOrIdentifier string) (*Issue, error) {
	data, err := q.client.Execute(ctx, getIssueQuery, map[string]interface{}{"id": idOrIdentifier})
	if err != nil {
		return nil, err
	}

	var node *issueNode
	if err := decodeField(data, "issue", &node); err != nil {
		return nil, err
	}
	if node == nil {
		return nil, &NotFoundError{Entity: "issue", ID: idOrIdentifier}
	}
	return mapIssue(node)
}

// GetProject fetches a project with its status, team ids and milestones.
func (q *Queries) GetProject(ctx context.Context, projectID string) (*Project, error) {
	data, err := q.client.Execute(ctx, getProjectQuery, map[string]interface{}{"id": projectID})
	if err != nil {
		return nil, err
	}

	var node *projectNode
	if err := decodeField(data, "project", &node); err != nil {
		return nil, err
	}
	if node == nil {
		return nil, &NotFoundError{Entity: "project", ID: projectID}
	}
	return mapProject(node), nil
}

// GetIssueComments returns an issue's comments in the order the server sends them.
func (q *Queries) GetIssueComments(ctx context.Context, idOrIdentifier string) ([]Comment, error) {
	data, err := q.client.Execute(ctx, getIssueCommentsQuery, map[string]interface{}{"issueId": idOrIdentifier})
	if err != nil {
		return nil, err
	}

	var node *struct {
		Comments *connection[commentNode] `json:"comments"`
	}
	if err := decodeField(data, "issue", &node); err != nil {
		return nil, err
	}
	if node == nil {
		return nil, &NotFoundError{Entity: "issue", ID: idOrIdentifier}
	}
	return mapComments(node.Comments), nil
}

// GetTeam fetches a team with its workflow states, ordered by position, and labels.
func (q *Queries) GetTeam(ctx context.Context, teamID string) (*Team, error) {
	data, err := q.client.Execute(ctx, getTeamQuery, map[string]interface{}{"teamId": teamID})
	if err != nil {
		return nil, err
	}

	var node *teamNode
	if err := decodeField(data, "team", &node); err != nil {
		return nil, err
	}
	if node == nil {
		return nil, &NotFoundError{Entity: "team", ID: teamID}
	}
	return mapTeam(node), nil
}

// GetProjectIssues lists a project's issues with a reduced field set: comments
// and relations are not fetched. Use GetIssue for full detail.
func (q *Queries) GetProjectIssues(ctx context.Context, projectID string) ([]Issue, error) {
	data, err := q.client.Execute(ctx, getProjectIssuesQuery, map[string]interface{}{"projectId": projectID})
	if err != nil {
		return nil, err
	}

	var node *struct {
		Issues *connection[issueNode] `json:"issues"`
	}
	if err := decodeField(data, "project", &node); err != nil {
		return nil, err
	}
	if node == nil {
		return nil, &NotFoundError{Entity: "project", ID: projectID}
	}
	return mapIssues(nodesOf(node.Issues))
}

// FindPlanIssue returns the first project issue titled "Plan: ...", fully
// fetched. It returns (nil, nil) when the project has no plan issue.
func (q *Queries) FindPlanIssue(ctx context.Context, projectID string) (*Issue, error) {
	issues, err := q.GetProjectIssues(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing issues of project %s: %w", projectID, err)
	}

	for _, issue := range issues {
		if strings.HasPrefix(issue.Title, PlanTitlePrefix) {
			return q.GetIssue(ctx, issue.ID)
		}
	}
	return nil, nil
}

// IssueSearch holds optional search criteria. Zero-valued criteria are left
// out of the request; the ones present are ANDed by the server.
type IssueSearch struct {
	Text      string
	TeamID    string
	ProjectID string
	LabelIDs  []string
	StateIDs  []string
}

// filter builds the IssueFilter input. It returns nil when no criteria are set.
func (s IssueSearch) filter() map[string]interface{} {
	f := map[string]interface{}{}
	if s.TeamID != "" {
		f["team"] = map[string]interface{}{"id": map[string]interface{}{"eq": s.TeamID}}
	}
	if s.ProjectID != "" {
		f["project"] = map[string]interface{}{"id": map[string]interface{}{"eq": s.ProjectID}}
	}
	if len(s.LabelIDs) > 0 {
		f["labels"] = map[string]interface{}{"id": map[string]interface{}{"in": s.LabelIDs}}
	}
	if len(s.StateIDs) > 0 {
		f["state"] = map[string]interface{}{"id": map[string]interface{}{"in": s.StateIDs}}
	}
	if len(f) == 0 {
		return nil
	}
	return f
}

// SearchIssues runs a text and/or filter search over issues.
func (q *Queries) SearchIssues(ctx context.Context, search IssueSearch) ([]Issue, error) {
	vars := map[string]interface{}{}
	if search.Text != "" {
		vars["query"] = search.Text
	}
	if f := search.filter(); f != nil {
		vars["filter"] = f
	}

	data, err := q.client.Execute(ctx, searchIssuesQuery, vars)
	if err != nil {
		return nil, err
	}

	var result *connection[issueNode]
	if err := decodeField(data, "issueSearch", &result); err != nil {
		return nil, err
	}
	return mapIssues(nodesOf(result))
}

// GetProjectStatuses lists the workspace's project statuses.
func (q *Queries) GetProjectStatuses(ctx context.Context) ([]ProjectStatus, error) {
	data, err := q.client.Execute(ctx, getProjectStatusesQuery, nil)
	if err != nil {
		return nil, err
	}

	var result *connection[projectStatusNode]
	if err := decodeField(data, "projectStatuses", &result); err != nil {
		return nil, err
	}

	nodes := nodesOf(result)
	statuses := make([]ProjectStatus, 0, len(nodes))
	for _, n := range nodes {
		statuses = append(statuses, mapProjectStatus(n))
	}
	return statuses, nil
}
