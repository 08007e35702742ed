package linear

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestGetIssue_MapsAllFields(t *testing.T) {
	f := newFakeLinear(t)
	f.respond("GetIssue", fullIssueResponse)
	q := NewQueries(newTestClient(t, f))

	issue, err := q.GetIssue(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}

	if f.calls("GetIssue")[0].Variables["id"] != "abc" {
		t.Errorf("variables = %v", f.calls("GetIssue")[0].Variables)
	}
	if issue.Identifier != "TIM-1" || issue.Title != "T" {
		t.Errorf("identifier/title = %q/%q", issue.Identifier, issue.Title)
	}
	if deref(issue.Description) != "Full description" {
		t.Errorf("Description = %s", deref(issue.Description))
	}
	if issue.Priority != PriorityHigh {
		t.Errorf("Priority = %v", issue.Priority)
	}
	if deref(issue.AssigneeID) != "user-1" || deref(issue.TeamID) != "team-1" {
		t.Errorf("assignee/team = %s/%s", deref(issue.AssigneeID), deref(issue.TeamID))
	}
	if deref(issue.BranchName) != "tim-1-t" || deref(issue.URL) != "https://x" {
		t.Errorf("branch/url = %s/%s", deref(issue.BranchName), deref(issue.URL))
	}

	if issue.State == nil || issue.State.Name != "In Progress" || issue.State.Category != StateCategoryStarted {
		t.Errorf("State = %+v", issue.State)
	}
	if issue.Project == nil || issue.Project.ID != "proj-1" || deref(issue.Project.Identifier) != "widgets-1a2b" {
		t.Errorf("Project = %+v", issue.Project)
	}
	if issue.Project.Description != nil {
		t.Error("null project description should map to nil")
	}
	if issue.Milestone == nil || issue.Milestone.Name != "M1" {
		t.Fatalf("Milestone = %+v", issue.Milestone)
	}
	if deref(issue.Milestone.ProjectID) != "proj-1" {
		t.Errorf("milestone ProjectID = %s", deref(issue.Milestone.ProjectID))
	}
	if issue.Milestone.SortOrder == nil || *issue.Milestone.SortOrder != 1.5 {
		t.Errorf("milestone SortOrder = %v", issue.Milestone.SortOrder)
	}

	if got := issue.LabelIDs(); !reflect.DeepEqual(got, []string{"lab-1", "lab-2"}) {
		t.Errorf("labels = %v", got)
	}
	if issue.Labels[1].Color != nil {
		t.Error("null label color should map to nil")
	}
	if len(issue.Comments) != 1 || deref(issue.Comments[0].UserID) != "user-1" {
		t.Errorf("Comments = %+v", issue.Comments)
	}

	if len(issue.Relations) != 1 {
		t.Fatalf("Relations = %+v", issue.Relations)
	}
	rel := issue.Relations[0]
	if rel.Type != RelationRelated || rel.IssueID != "abc" || rel.RelatedIssueID != "def" {
		t.Errorf("relation = %+v", rel)
	}
	if deref(rel.RelatedIssueIdentifier) != "TIM-2" || deref(rel.RelatedIssueState) != "Todo" {
		t.Errorf("relation snapshot = %s/%s", deref(rel.RelatedIssueIdentifier), deref(rel.RelatedIssueState))
	}
}

func TestGetIssue_AbsentNestedObjects(t *testing.T) {
	f := newFakeLinear(t)
	f.respond("GetIssue", `{"data":{"issue":{
  "id":"abc","identifier":"TIM-1","title":"T",
  "state":null,"projectMilestone":null
}}}`)
	q := NewQueries(newTestClient(t, f))

	issue, err := q.GetIssue(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}

	if issue.State != nil {
		t.Errorf("State = %+v, want nil", issue.State)
	}
	if issue.Project != nil {
		t.Errorf("Project = %+v, want nil", issue.Project)
	}
	if issue.Milestone != nil {
		t.Errorf("Milestone = %+v, want nil", issue.Milestone)
	}
	if issue.Description != nil || issue.URL != nil || issue.AssigneeID != nil {
		t.Error("absent scalars should map to nil")
	}
	if issue.Priority != PriorityNone {
		t.Errorf("Priority = %v, want none", issue.Priority)
	}
	if issue.Labels == nil || issue.Comments == nil || issue.Relations == nil {
		t.Error("list fields should be empty, not nil")
	}
}

func TestGetIssue_NotFound(t *testing.T) {
	f := newFakeLinear(t)
	f.respond("GetIssue", `{"data":{"issue":null}}`)
	q := NewQueries(newTestClient(t, f))

	_, err := q.GetIssue(context.Background(), "TIM-404")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
	if nf.Entity != "issue" || nf.ID != "TIM-404" {
		t.Errorf("NotFoundError = %+v", nf)
	}
}

func TestGetIssue_EmptyErrorsArrayIsAPIError(t *testing.T) {
	f := newFakeLinear(t)
	f.respond("GetIssue", `{"data":{"issue":null},"errors":[]}`)
	q := NewQueries(newTestClient(t, f))

	_, err := q.GetIssue(context.Background(), "x")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if IsNotFound(err) {
		t.Error("an errors array must win over null data")
	}
}

func TestGetIssue_NonNumericPriorityIsNone(t *testing.T) {
	for _, raw := range []string{`"high"`, `true`, `{}`, `2.5`} {
		f := newFakeLinear(t)
		f.respond("GetIssue", `{"data":{"issue":{"id":"abc","identifier":"TIM-1","title":"T","priority":`+raw+`}}}`)
		q := NewQueries(newTestClient(t, f))

		issue, err := q.GetIssue(context.Background(), "abc")
		if err != nil {
			t.Fatalf("priority %s: GetIssue: %v", raw, err)
		}
		if issue.Priority != PriorityNone {
			t.Errorf("priority %s mapped to %v, want none", raw, issue.Priority)
		}
	}
}

func TestGetIssue_UnknownRelationType(t *testing.T) {
	f := newFakeLinear(t)
	f.respond("GetIssue", `{"data":{"issue":{
  "id":"abc","identifier":"TIM-1","title":"T",
  "relations":{"nodes":[{"id":"r","type":"similar","relatedIssue":{"id":"x"}}]}
}}}`)
	q := NewQueries(newTestClient(t, f))

	_, err := q.GetIssue(context.Background(), "abc")
	var me *MappingError
	if !errors.As(err, &me) {
		t.Fatalf("expected *MappingError, got %v", err)
	}
	if me.Value != "similar" {
		t.Errorf("MappingError.Value = %q", me.Value)
	}
}

func TestGetIssue_InverseRelationsReadFromThisIssue(t *testing.T) {
	f := newFakeLinear(t)
	f.respond("GetIssue", `{"data":{"issue":{
  "id":"abc","identifier":"TIM-1","title":"T",
  "relations":{"nodes":[]},
  "inverseRelations":{"nodes":[
    {"id":"r1","type":"blocks","issue":{"id":"b1","identifier":"TIM-7","title":"Blocker","state":{"id":"s","name":"Done"}}}
  ]}
}}}`)
	q := NewQueries(newTestClient(t, f))

	issue, err := q.GetIssue(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if len(issue.Relations) != 1 {
		t.Fatalf("Relations = %+v", issue.Relations)
	}
	rel := issue.Relations[0]
	if rel.Type != RelationBlockedBy {
		t.Errorf("Type = %q, want blocked_by", rel.Type)
	}
	if rel.IssueID != "abc" || rel.RelatedIssueID != "b1" || deref(rel.RelatedIssueIdentifier) != "TIM-7" {
		t.Errorf("relation = %+v", rel)
	}
}

func TestGetIssue_MalformedResponse(t *testing.T) {
	f := newFakeLinear(t)
	f.respond("GetIssue", `{"data":{"issue":"not an object"}}`)
	q := NewQueries(newTestClient(t, f))

	_, err := q.GetIssue(context.Background(), "abc")
	var me *MappingError
	if !errors.As(err, &me) {
		t.Fatalf("expected *MappingError, got %v", err)
	}
}

func TestGetProject(t *testing.T) {
	f := newFakeLinear(t)
	f.respond("GetProject", `{"data":{"project":{
  "id":"proj-1","name":"Widgets","slugId":"widgets-1a2b",
  "description":"Short","content":"# Spec","url":"https://linear.app/p",
  "status":{"id":"ps-1","name":"Planned"},
  "teams":{"nodes":[{"id":"team-1"},{"id":"team-2"}]},
  "projectMilestones":{"nodes":[{"id":"ms-1","name":"M1","sortOrder":1},{"id":"ms-2","name":"M2"}]}
}}}`)
	q := NewQueries(newTestClient(t, f))

	p, err := q.GetProject(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if p.Name != "Widgets" || deref(p.Content) != "# Spec" {
		t.Errorf("project = %+v", p)
	}
	if deref(p.StatusID) != "ps-1" || deref(p.StatusName) != "Planned" {
		t.Errorf("status = %s/%s", deref(p.StatusID), deref(p.StatusName))
	}
	if !reflect.DeepEqual(p.TeamIDs, []string{"team-1", "team-2"}) {
		t.Errorf("TeamIDs = %v", p.TeamIDs)
	}
	if len(p.Milestones) != 2 || deref(p.Milestones[1].ProjectID) != "proj-1" {
		t.Errorf("Milestones = %+v", p.Milestones)
	}
	if p.Milestones[1].SortOrder != nil {
		t.Error("absent sortOrder should map to nil")
	}
}

func TestGetProject_NotFound(t *testing.T) {
	f := newFakeLinear(t)
	f.respond("GetProject", `{"data":{"project":null}}`)
	q := NewQueries(newTestClient(t, f))

	_, err := q.GetProject(context.Background(), "nope")
	if !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestGetProject_NoStatusOrTeams(t *testing.T) {
	f := newFakeLinear(t)
	f.respond("GetProject", `{"data":{"project":{"id":"proj-1","name":"Widgets"}}}`)
	q := NewQueries(newTestClient(t, f))

	p, err := q.GetProject(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if p.StatusID != nil || p.StatusName != nil || p.Identifier != nil {
		t.Error("absent fields should be nil")
	}
	if p.TeamIDs == nil || len(p.TeamIDs) != 0 || p.Milestones == nil {
		t.Error("list fields should be empty, not nil")
	}
}

func TestGetIssueComments_KeepsServerOrder(t *testing.T) {
	f := newFakeLinear(t)
	f.respond("GetIssueComments", `{"data":{"issue":{"comments":{"nodes":[
  {"id":"c-2","body":"later","createdAt":"2026-02-01T00:00:00Z"},
  {"id":"c-1","body":"earlier","createdAt":"2026-01-01T00:00:00Z","user":null}
]}}}}`)
	q := NewQueries(newTestClient(t, f))

	comments, err := q.GetIssueComments(context.Background(), "TIM-1")
	if err != nil {
		t.Fatalf("GetIssueComments: %v", err)
	}
	if len(comments) != 2 || comments[0].ID != "c-2" || comments[1].ID != "c-1" {
		t.Errorf("comments = %+v", comments)
	}
	if comments[1].UserID != nil || comments[0].UpdatedAt != nil {
		t.Error("absent user/updatedAt should map to nil")
	}
	if f.calls("GetIssueComments")[0].Variables["issueId"] != "TIM-1" {
		t.Errorf("variables = %v", f.calls("GetIssueComments")[0].Variables)
	}
}

func TestGetTeam_StatesOrderedByPosition(t *testing.T) {
	f := newFakeLinear(t)
	f.respond("GetTeam", `{"data":{"team":{
  "id":"team-1","name":"Timber","key":"TIM",
  "states":{"nodes":[
    {"id":"s-done","name":"Done","type":"completed","position":3},
    {"id":"s-none","name":"Limbo","type":"mystery"},
    {"id":"s-todo","name":"Todo","type":"unstarted","position":0},
    {"id":"s-prog","name":"In Progress","type":"started","position":1.5}
  ]},
  "labels":{"nodes":[{"id":"lab-1","name":"bug"}]}
}}}`)
	q := NewQueries(newTestClient(t, f))

	team, err := q.GetTeam(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	var order []string
	for _, s := range team.States {
		order = append(order, s.ID)
	}
	want := []string{"s-todo", "s-prog", "s-done", "s-none"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("state order = %v, want %v", order, want)
	}
	if team.States[3].Category != StateCategoryUnknown {
		t.Errorf("unknown state type should map to StateCategoryUnknown, got %q", team.States[3].Category)
	}
	if team.Key != "TIM" || len(team.Labels) != 1 {
		t.Errorf("team = %+v", team)
	}
}

func TestGetProjectIssues(t *testing.T) {
	f := newFakeLinear(t)
	f.respond("GetProjectIssues", `{"data":{"project":{"issues":{"nodes":[
  {"id":"i-1","identifier":"TIM-1","title":"First","priority":1,"state":{"id":"s","name":"Todo","type":"unstarted"}},
  {"id":"i-2","identifier":"TIM-2","title":"Second","priority":7}
]}}}}`)
	q := NewQueries(newTestClient(t, f))

	issues, err := q.GetProjectIssues(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("GetProjectIssues: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("got %d issues", len(issues))
	}
	if issues[0].Priority != PriorityUrgent || issues[1].Priority != PriorityNone {
		t.Errorf("priorities = %v, %v", issues[0].Priority, issues[1].Priority)
	}
	if issues[1].State != nil {
		t.Error("absent state should map to nil")
	}
	if len(issues[0].Comments) != 0 || len(issues[0].Relations) != 0 {
		t.Error("project issue listing does not populate comments or relations")
	}
	if strings.Contains(f.calls("GetProjectIssues")[0].Query, "comments") {
		t.Error("project issue listing should not request comments")
	}
}

func TestFindPlanIssue(t *testing.T) {
	f := newFakeLinear(t)
	f.respond("GetProjectIssues", `{"data":{"project":{"issues":{"nodes":[
  {"id":"i-1","identifier":"TIM-1","title":"Implement widgets"},
  {"id":"abc","identifier":"TIM-2","title":"Plan: Widgets"},
  {"id":"i-3","identifier":"TIM-3","title":"Plan: Second"}
]}}}}`)
	f.respond("GetIssue", fullIssueResponse)
	q := NewQueries(newTestClient(t, f))

	issue, err := q.FindPlanIssue(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("FindPlanIssue: %v", err)
	}
	if issue == nil {
		t.Fatal("expected a plan issue")
	}
	calls := f.calls("GetIssue")
	if len(calls) != 1 || calls[0].Variables["id"] != "abc" {
		t.Errorf("expected one GetIssue for abc, got %+v", calls)
	}
	if len(issue.Comments) != 1 {
		t.Error("plan issue should be fully fetched")
	}
}

func TestFindPlanIssue_None(t *testing.T) {
	f := newFakeLinear(t)
	f.respond("GetProjectIssues", `{"data":{"project":{"issues":{"nodes":[
  {"id":"i-1","identifier":"TIM-1","title":"Planning notes"}
]}}}}`)
	q := NewQueries(newTestClient(t, f))

	issue, err := q.FindPlanIssue(context.Background(), "proj-1")
	if err != nil || issue != nil {
		t.Errorf("FindPlanIssue() = %v, %v; want nil, nil", issue, err)
	}
}

func TestSearchIssues_BuildsFilterFromPresentCriteria(t *testing.T) {
	f := newFakeLinear(t)
	f.respond("SearchIssues", `{"data":{"issueSearch":{"nodes":[{"id":"i-1","identifier":"TIM-1","title":"Hit"}]}}}`)
	q := NewQueries(newTestClient(t, f))

	issues, err := q.SearchIssues(context.Background(), IssueSearch{
		Text:     `auth "token" bug`,
		TeamID:   "team-1",
		LabelIDs: []string{"lab-1", "lab-2"},
	})
	if err != nil {
		t.Fatalf("SearchIssues: %v", err)
	}
	if len(issues) != 1 || issues[0].Title != "Hit" {
		t.Errorf("issues = %+v", issues)
	}

	req := f.calls("SearchIssues")[0]
	if req.Variables["query"] != `auth "token" bug` {
		t.Errorf("query variable = %v", req.Variables["query"])
	}
	if strings.Contains(req.Query, "auth") {
		t.Error("search text must not be interpolated into the document")
	}

	filter, _ := req.Variables["filter"].(map[string]interface{})
	want := map[string]interface{}{
		"team":   map[string]interface{}{"id": map[string]interface{}{"eq": "team-1"}},
		"labels": map[string]interface{}{"id": map[string]interface{}{"in": []interface{}{"lab-1", "lab-2"}}},
	}
	if !reflect.DeepEqual(filter, want) {
		t.Errorf("filter = %v, want %v", filter, want)
	}
}

func TestSearchIssues_NoCriteria(t *testing.T) {
	f := newFakeLinear(t)
	f.respond("SearchIssues", `{"data":{"issueSearch":{"nodes":[]}}}`)
	q := NewQueries(newTestClient(t, f))

	issues, err := q.SearchIssues(context.Background(), IssueSearch{})
	if err != nil {
		t.Fatalf("SearchIssues: %v", err)
	}
	if issues == nil || len(issues) != 0 {
		t.Errorf("issues = %v, want empty", issues)
	}
	if f.calls("SearchIssues")[0].RawVariables {
		t.Error("no criteria should send no variables")
	}
}

func TestIssueSearchFilter(t *testing.T) {
	tests := []struct {
		name string
		in   IssueSearch
		keys []string
	}{
		{"empty", IssueSearch{}, nil},
		{"text only", IssueSearch{Text: "x"}, nil},
		{"project", IssueSearch{ProjectID: "p"}, []string{"project"}},
		{"states", IssueSearch{StateIDs: []string{"s"}}, []string{"state"}},
		{"empty slices", IssueSearch{LabelIDs: []string{}, StateIDs: []string{}}, nil},
		{"all", IssueSearch{TeamID: "t", ProjectID: "p", LabelIDs: []string{"l"}, StateIDs: []string{"s"}},
			[]string{"labels", "project", "state", "team"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.in.filter()
			if tt.keys == nil {
				if f != nil {
					t.Errorf("filter = %v, want nil", f)
				}
				return
			}
			if len(f) != len(tt.keys) {
				t.Errorf("filter = %v, want keys %v", f, tt.keys)
			}
			for _, k := range tt.keys {
				if _, ok := f[k]; !ok {
					t.Errorf("filter missing %q", k)
				}
			}
		})
	}
}

func TestGetProjectStatuses(t *testing.T) {
	f := newFakeLinear(t)
	f.respond("GetProjectStatuses", `{"data":{"projectStatuses":{"nodes":[
  {"id":"ps-1","name":"Planned","color":"#ccc","position":0},
  {"id":"ps-2","name":"Started"}
]}}}`)
	q := NewQueries(newTestClient(t, f))

	statuses, err := q.GetProjectStatuses(context.Background())
	if err != nil {
		t.Fatalf("GetProjectStatuses: %v", err)
	}
	if len(statuses) != 2 || statuses[0].Name != "Planned" || deref(statuses[0].Color) != "#ccc" {
		t.Errorf("statuses = %+v", statuses)
	}
	if statuses[1].Position != nil {
		t.Error("absent position should map to nil")
	}
}
