package apiserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/TokenRollAI/minicc/internal/history"
	"github.com/TokenRollAI/minicc/internal/task"
	"github.com/TokenRollAI/minicc/internal/tool"
)

func newTestServer(t *testing.T) (*Server, *task.Registry) {
	t.Helper()
	reg := task.NewRegistry()
	defs := []tool.Definition{{Name: "bash", Description: "run a command"}}
	return NewServer("127.0.0.1:0", reg, defs, history.Nop{}, zap.NewNop()), reg
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doGet(t, s, "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected ok status, got %v", body)
	}
}

func TestListTasks(t *testing.T) {
	s, reg := newTestServer(t)
	reg.Add("aaaa0001", "first task", "")
	reg.Add("aaaa0002", "second task", "")

	rr := doGet(t, s, "/api/v1/tasks")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var tasks []*task.AgentTask
	if err := json.Unmarshal(rr.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != "aaaa0001" {
		t.Errorf("expected creation order, got %s first", tasks[0].ID)
	}
}

func TestGetTask(t *testing.T) {
	s, reg := newTestServer(t)
	reg.Add("aaaa0001", "the task", "")
	reg.MarkRunning("aaaa0001")

	rr := doGet(t, s, "/api/v1/tasks/aaaa0001")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var got task.AgentTask
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Phase != task.Running {
		t.Errorf("expected Running phase, got %s", got.Phase)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doGet(t, s, "/api/v1/tasks/ffffffff")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestListTools(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doGet(t, s, "/api/v1/tools")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var defs []tool.Definition
	if err := json.Unmarshal(rr.Body.Bytes(), &defs); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(defs) != 1 || defs[0].Name != "bash" {
		t.Errorf("unexpected tool definitions: %v", defs)
	}
}

func TestHistoryInvalidLimit(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doGet(t, s, "/api/v1/history?limit=bogus")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHistoryEmpty(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doGet(t, s, "/api/v1/history")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body := rr.Body.String(); body != "[]\n" {
		t.Errorf("expected empty JSON array, got %q", body)
	}
}
