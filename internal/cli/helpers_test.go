package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/andywolf/speclinear/internal/config"
)

// fakeAPI answers GraphQL requests with canned bodies keyed by operation name.
type fakeAPI struct {
	t      *testing.T
	server *httptest.Server

	mu        sync.Mutex
	responses map[string]string
	ops       []string
	variables []map[string]interface{}
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{t: t, responses: map[string]string{}}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) respond(op, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[op] = body
}

func (f *fakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	var body struct {
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		f.t.Errorf("request body is not JSON: %v", err)
	}

	f.mu.Lock()
	f.ops = append(f.ops, body.OperationName)
	f.variables = append(f.variables, body.Variables)
	resp, ok := f.responses[body.OperationName]
	f.mu.Unlock()

	if !ok {
		f.t.Errorf("unexpected operation %q", body.OperationName)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, resp)
}

// lastVariables returns the variables of the most recent request for op.
func (f *fakeAPI) lastVariables(op string) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.ops) - 1; i >= 0; i-- {
		if f.ops[i] == op {
			return f.variables[i]
		}
	}
	f.t.Fatalf("no %s request recorded", op)
	return nil
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, o := range f.ops {
		if o == op {
			n++
		}
	}
	return n
}

const testTeamConfig = `{
  "teamId": "team-1",
  "labels": {"bug": "lab-1", "feature": "lab-2"},
  "states": {"Todo": "s-todo", "Done": "s-done"},
  "projectStatuses": {"Planned": "ps-1"}
}`

func testConfig(t *testing.T, f *fakeAPI) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "linear-config.json")
	if err := os.WriteFile(path, []byte(testTeamConfig), 0o600); err != nil {
		t.Fatalf("writing team config: %v", err)
	}
	return &config.Config{
		Linear: config.LinearConfig{
			Token:      "lin_api_test",
			Endpoint:   f.server.URL,
			Timeout:    "5s",
			TeamConfig: path,
		},
		Output: config.OutputConfig{Format: config.FormatPlain, Width: 80},
	}
}

// newTestSession opens a session against f, returning it with its stdout.
func newTestSession(t *testing.T, f *fakeAPI, cfg *config.Config) (*session, *bytes.Buffer) {
	t.Helper()
	if cfg == nil {
		cfg = testConfig(t, f)
	}
	var stdout, stderr bytes.Buffer
	s, err := newSession(context.Background(), cfg, &stdout, &stderr)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, &stdout
}

const issueResponse = `{"data":{"issue":{
  "id":"abc","identifier":"TIM-1","title":"Add retry","description":"Retry **twice**.",
  "priority":2,"url":"https://linear.app/t/TIM-1",
  "state":{"id":"s-todo","name":"Todo","type":"unstarted"},
  "labels":{"nodes":[{"id":"lab-1","name":"bug"}]},
  "comments":{"nodes":[]},
  "relations":{"nodes":[{"id":"r1","type":"blocked_by","relatedIssue":{"id":"b1","identifier":"TIM-2","title":"Base","state":{"id":"s","name":"In Progress"}}}]},
  "inverseRelations":{"nodes":[]}
}}}`
