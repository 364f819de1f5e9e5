package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/standardbots/sb-mcp/internal/common"
)

func testClient(t *testing.T, serverURL string) *StandardBotsClient {
	t.Helper()
	c, err := NewStandardBotsClient(serverURL, "test-key", "live", common.NewSilentLogger())
	if err != nil {
		t.Fatalf("NewStandardBotsClient failed: %v", err)
	}
	return c
}

func TestNewStandardBotsClient_MissingURL(t *testing.T) {
	_, err := NewStandardBotsClient("", "key", "live", common.NewSilentLogger())
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Expected ErrInvalidArgument for missing URL, got %v", err)
	}
}

func TestNewStandardBotsClient_MissingAPIKey(t *testing.T) {
	_, err := NewStandardBotsClient("http://robot:3000", "", "live", common.NewSilentLogger())
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Expected ErrInvalidArgument for missing API key, got %v", err)
	}
}

func TestNewStandardBotsClient_TrimsTrailingSlash(t *testing.T) {
	c := testClient(t, "http://robot:3000///")
	if c.BaseURL() != "http://robot:3000" {
		t.Errorf("Expected trailing slashes trimmed, got %q", c.BaseURL())
	}
}

func TestNewStandardBotsClient_DefaultsRobotKind(t *testing.T) {
	c, err := NewStandardBotsClient("http://robot:3000", "key", "", common.NewSilentLogger())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.robotKind != "live" {
		t.Errorf("Expected robot kind to default to live, got %q", c.robotKind)
	}
}

func TestClient_AuthHeaders(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Expected Authorization=Bearer test-key, got %q", got)
		}
		if got := r.Header.Get("robot_kind"); got != "live" {
			t.Errorf("Expected robot_kind=live, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer mockServer.Close()

	c := testClient(t, mockServer.URL)
	if _, err := c.StopRoutine(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestGetRoutine_OneRequestUnmodifiedBody(t *testing.T) {
	var requests int32
	payload := `{"id":"r1","name":"Palletize","custom_field":{"nested":true}}`
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/api/v1/routine-editor/routines/r1" {
			t.Errorf("Expected routine path for r1, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, payload)
	}))
	defer mockServer.Close()

	c := testClient(t, mockServer.URL)
	body, err := c.GetRoutine(context.Background(), "r1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(body) != payload {
		t.Errorf("Expected controller payload unmodified, got %q", string(body))
	}
	if n := atomic.LoadInt32(&requests); n != 1 {
		t.Errorf("Expected exactly 1 request, got %d", n)
	}
}

func TestGetRoutine_EmptyID_NoRequest(t *testing.T) {
	var requests int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer mockServer.Close()

	c := testClient(t, mockServer.URL)
	_, err := c.GetRoutine(context.Background(), "")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Expected ErrInvalidArgument, got %v", err)
	}
	if n := atomic.LoadInt32(&requests); n != 0 {
		t.Errorf("Expected no network request, got %d", n)
	}
}

func TestGetRoutine_404_IsNotFound(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "routine not found"})
	}))
	defer mockServer.Close()

	c := testClient(t, mockServer.URL)
	_, err := c.GetRoutine(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for 404, got %v", err)
	}

	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatal("Expected *RemoteError")
	}
	if re.StatusCode != 404 || re.Message != "routine not found" {
		t.Errorf("Unexpected RemoteError contents: %+v", re)
	}
}

func TestGetRoutine_500_IsRemoteNotNotFound(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "controller fault")
	}))
	defer mockServer.Close()

	c := testClient(t, mockServer.URL)
	_, err := c.GetRoutine(context.Background(), "r1")
	if !errors.Is(err, ErrRemote) {
		t.Fatalf("Expected ErrRemote for 500, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("500 must not match ErrNotFound")
	}
}

func TestPlayRoutine_EmptyID_NoRequest(t *testing.T) {
	var requests int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer mockServer.Close()

	c := testClient(t, mockServer.URL)
	_, err := c.PlayRoutine(context.Background(), "", nil)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Expected ErrInvalidArgument, got %v", err)
	}
	if n := atomic.LoadInt32(&requests); n != 0 {
		t.Errorf("Expected no network request for empty routine_id, got %d", n)
	}
}

func TestPlayRoutine_ForwardsVariablesVerbatim(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/v1/routine-editor/routines/r1/play" {
			t.Errorf("Expected play path, got %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Variables map[string]interface{} `json:"variables"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("Request body is not valid JSON: %v", err)
		}
		if got, ok := req.Variables["speed"].(float64); !ok || got != 10 {
			t.Errorf("Expected variables.speed=10 forwarded verbatim, got %v", req.Variables["speed"])
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "RoutineRunning"})
	}))
	defer mockServer.Close()

	c := testClient(t, mockServer.URL)
	_, err := c.PlayRoutine(context.Background(), "r1", map[string]interface{}{"speed": 10})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestPlayRoutine_NoVariables_EmptyObjectBody(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != "{}" {
			t.Errorf("Expected empty object body, got %q", string(body))
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "RoutineRunning"})
	}))
	defer mockServer.Close()

	c := testClient(t, mockServer.URL)
	if _, err := c.PlayRoutine(context.Background(), "r1", nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestPauseRoutine_PathSelection(t *testing.T) {
	var gotPath string
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"status": "paused"})
	}))
	defer mockServer.Close()

	c := testClient(t, mockServer.URL)

	if _, err := c.PauseRoutine(context.Background(), "r1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotPath != "/api/v1/routine-editor/routines/r1/pause" {
		t.Errorf("Expected per-routine pause path, got %s", gotPath)
	}

	if _, err := c.PauseRoutine(context.Background(), ""); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotPath != "/api/v1/routine-editor/pause" {
		t.Errorf("Expected editor-level pause path, got %s", gotPath)
	}
}

func TestStopRoutine_AlwaysIssuesRequest(t *testing.T) {
	var requests int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		if r.URL.Path != "/api/v1/routine-editor/stop" {
			t.Errorf("Expected stop path, got %s", r.URL.Path)
		}
		// Nothing running — controller still answers
		json.NewEncoder(w).Encode(map[string]string{"status": "Idle"})
	}))
	defer mockServer.Close()

	c := testClient(t, mockServer.URL)
	body, err := c.StopRoutine(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(body) == 0 {
		t.Error("Expected controller response body")
	}
	if n := atomic.LoadInt32(&requests); n != 1 {
		t.Errorf("Expected exactly 1 request, got %d", n)
	}
}

func TestStopRoutine_DeliveryFailureSurfaced(t *testing.T) {
	c := testClient(t, "http://localhost:1")
	_, err := c.StopRoutine(context.Background())
	if err == nil {
		t.Fatal("Expected error when controller is unreachable")
	}
	if !errors.Is(err, ErrRemote) {
		t.Errorf("Expected delivery failure to match ErrRemote, got %v", err)
	}
}

func TestListRoutines_PaginationParams(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/routine-editor/routines" {
			t.Errorf("Expected routines path, got %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("limit") != "5" || q.Get("offset") != "20" {
			t.Errorf("Expected limit=5 offset=20, got %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"items": []interface{}{}})
	}))
	defer mockServer.Close()

	c := testClient(t, mockServer.URL)
	if _, err := c.ListRoutines(context.Background(), 5, 20); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestGetRoutineState_PathSelection(t *testing.T) {
	var gotPath string
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]interface{}{"is_paused": false})
	}))
	defer mockServer.Close()

	c := testClient(t, mockServer.URL)

	if _, err := c.GetRoutineState(context.Background(), "r1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotPath != "/api/v1/routine-editor/routines/r1/state" {
		t.Errorf("Expected per-routine state path, got %s", gotPath)
	}

	if _, err := c.GetRoutineState(context.Background(), ""); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotPath != "/api/v1/routine-editor/state" {
		t.Errorf("Expected editor-level state path, got %s", gotPath)
	}
}

func TestGetStepVariables_StepIDMapParam(t *testing.T) {
	var gotQuery string
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]interface{}{"variables": map[string]string{}})
	}))
	defer mockServer.Close()

	c := testClient(t, mockServer.URL)

	if _, err := c.GetStepVariables(context.Background(), "r1", true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotQuery != "step_id_map=true" {
		t.Errorf("Expected step_id_map=true, got %s", gotQuery)
	}

	if _, err := c.GetStepVariables(context.Background(), "", false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotQuery != "step_id_map=false" {
		t.Errorf("Expected step_id_map=false, got %s", gotQuery)
	}
}

func TestSequentialCalls_IndependentRequestsInOrder(t *testing.T) {
	var paths []string
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer mockServer.Close()

	c := testClient(t, mockServer.URL)
	if _, err := c.PlayRoutine(context.Background(), "r1", nil); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if _, err := c.GetRoutineState(context.Background(), ""); err != nil {
		t.Fatalf("State failed: %v", err)
	}

	if len(paths) != 2 {
		t.Fatalf("Expected 2 independent requests, got %d", len(paths))
	}
	if paths[0] != "/api/v1/routine-editor/routines/r1/play" || paths[1] != "/api/v1/routine-editor/state" {
		t.Errorf("Requests out of program order: %v", paths)
	}
}

func TestErrorBody_MessageFieldDecoded(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"message": "routine already running"})
	}))
	defer mockServer.Close()

	c := testClient(t, mockServer.URL)
	_, err := c.PlayRoutine(context.Background(), "r1", nil)
	if err == nil {
		t.Fatal("Expected error for 409")
	}
	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("Expected *RemoteError, got %v", err)
	}
	if re.Message != "routine already running" {
		t.Errorf("Expected controller message decoded, got %q", re.Message)
	}
}
