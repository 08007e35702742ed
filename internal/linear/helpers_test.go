package linear

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// recordedRequest is one GraphQL request as seen by fakeLinear.
type recordedRequest struct {
	OperationName string
	Query         string
	Variables     map[string]interface{}
	RawVariables  bool // "variables" key present in the body
	Header        http.Header
}

// fakeLinear is an httptest server answering by operation name. Unknown
// operations fail the test.
type fakeLinear struct {
	t      *testing.T
	server *httptest.Server

	mu        sync.Mutex
	responses map[string]fakeResponse
	requests  []recordedRequest
}

type fakeResponse struct {
	status int
	body   string
}

func newFakeLinear(t *testing.T) *fakeLinear {
	t.Helper()
	f := &fakeLinear{t: t, responses: map[string]fakeResponse{}}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

// respond registers body as the 200 response for operation op.
func (f *fakeLinear) respond(op, body string) {
	f.respondStatus(op, http.StatusOK, body)
}

func (f *fakeLinear) respondStatus(op string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[op] = fakeResponse{status: status, body: body}
}

func (f *fakeLinear) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		f.t.Errorf("expected POST, got %s", r.Method)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		f.t.Errorf("reading body: %v", err)
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		f.t.Errorf("request body is not JSON: %v", err)
	}
	req := recordedRequest{Header: r.Header.Clone()}
	_ = json.Unmarshal(body["operationName"], &req.OperationName)
	_ = json.Unmarshal(body["query"], &req.Query)
	if raw, ok := body["variables"]; ok {
		req.RawVariables = true
		_ = json.Unmarshal(raw, &req.Variables)
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	resp, ok := f.responses[req.OperationName]
	f.mu.Unlock()

	if !ok {
		f.t.Errorf("unexpected operation %q", req.OperationName)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

// calls returns the recorded requests for op, in order.
func (f *fakeLinear) calls(op string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedRequest
	for _, r := range f.requests {
		if r.OperationName == op {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeLinear) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// lastInput returns the "input" variable of the most recent op request.
func (f *fakeLinear) lastInput(op string) map[string]interface{} {
	f.t.Helper()
	calls := f.calls(op)
	if len(calls) == 0 {
		f.t.Fatalf("no %s request recorded", op)
	}
	input, _ := calls[len(calls)-1].Variables["input"].(map[string]interface{})
	if input == nil {
		f.t.Fatalf("%s request has no input variable", op)
	}
	return input
}

func newTestClient(t *testing.T, f *fakeLinear, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithToken("lin_api_test"), WithEndpoint(f.server.URL)}, opts...)
	c, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func strPtr(s string) *string { return &s }

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

// fullIssueResponse is a GetIssue response with every field populated.
const fullIssueResponse = `{"data":{"issue":{
  "id":"abc",
  "identifier":"TIM-1",
  "title":"T",
  "description":"Full description",
  "priority":2,
  "url":"https://x",
  "branchName":"tim-1-t",
  "assignee":{"id":"user-1"},
  "team":{"id":"team-1"},
  "state":{"id":"state-1","name":"In Progress","type":"started","color":"#f2c94c","position":2},
  "project":{"id":"proj-1","name":"Widgets","slugId":"widgets-1a2b","description":null,"content":null,"url":null},
  "projectMilestone":{"id":"ms-1","name":"M1","description":null,"sortOrder":1.5,"targetDate":"2026-01-31"},
  "labels":{"nodes":[{"id":"lab-1","name":"bug","color":"#ff0000","description":null},{"id":"lab-2","name":"agent","color":null,"description":null}]},
  "comments":{"nodes":[{"id":"c-1","body":"first","createdAt":"2026-01-01T00:00:00Z","updatedAt":null,"user":{"id":"user-1"}}]},
  "relations":{"nodes":[{"id":"rel-1","type":"related","relatedIssue":{"id":"def","identifier":"TIM-2","title":"Other","state":{"id":"s","name":"Todo"}}}]},
  "inverseRelations":{"nodes":[]}
}}}`
