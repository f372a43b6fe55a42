package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"

	"github.com/interviewace/interviewace/internal/api"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

// newTestServer answers "METHOD /path" keys from responses. A response
// starting with "!" is sent with a 400 status.
func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.mu.Lock()
		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})
		ts.mu.Unlock()

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			if strings.HasPrefix(resp, "!") {
				w.WriteHeader(http.StatusBadRequest)
				resp = resp[1:]
			}
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

func (ts *testServer) recorded() []recordedRequest {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]recordedRequest(nil), ts.requests...)
}

var ctx = context.Background()

func withNoColor(t *testing.T) {
	t.Helper()
	prev := noColor
	noColor = true
	t.Cleanup(func() { noColor = prev })
}

func TestChatCommand_CreatesAgentFirst(t *testing.T) {
	withNoColor(t)
	ts := newTestServer(t, map[string]string{
		"POST /api/chat-agent": `{"success":true,"agentId":"agent-7","response":{"message":"Prepare stories.","success":true}}`,
	})

	var out bytes.Buffer
	if err := runChat(ctx, ts.client(), &out, "", "s1", "how do I prepare?"); err != nil {
		t.Fatalf("runChat: %v", err)
	}

	reqs := ts.recorded()
	if len(reqs) != 2 {
		t.Fatalf("requests = %d, want 2", len(reqs))
	}

	var create, send api.ChatAgentRequest
	if err := json.Unmarshal([]byte(reqs[0].Body), &create); err != nil {
		t.Fatalf("decoding create: %v", err)
	}
	if create.Action != api.ActionCreateAgent {
		t.Errorf("first action = %q, want %q", create.Action, api.ActionCreateAgent)
	}
	if err := json.Unmarshal([]byte(reqs[1].Body), &send); err != nil {
		t.Fatalf("decoding send: %v", err)
	}
	if send.Action != api.ActionSendMessage || send.AgentID != "agent-7" || send.SessionID != "s1" {
		t.Errorf("send = %+v, want send_message to agent-7 in s1", send)
	}
	if send.Message != "how do I prepare?" {
		t.Errorf("message = %q", send.Message)
	}
	if reqs[1].Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want bearer token", reqs[1].Auth)
	}

	if got := strings.TrimSpace(out.String()); got != "Prepare stories." {
		t.Errorf("output = %q, want the reply", got)
	}
}

func TestChatCommand_ReusesAgent(t *testing.T) {
	withNoColor(t)
	ts := newTestServer(t, map[string]string{
		"POST /api/chat-agent": `{"success":true,"response":{"message":"ok","success":true}}`,
	})

	var out bytes.Buffer
	if err := runChat(ctx, ts.client(), &out, "agent-1", "", "hi"); err != nil {
		t.Fatalf("runChat: %v", err)
	}
	if n := len(ts.recorded()); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}

func TestChatCommand_ServerError(t *testing.T) {
	withNoColor(t)
	ts := newTestServer(t, map[string]string{
		"POST /api/chat-agent": `!{"error":"Message and agent ID are required"}`,
	})

	err := runChat(ctx, ts.client(), &bytes.Buffer{}, "agent-1", "", "hi")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Message and agent ID are required") {
		t.Errorf("error = %v, want server message", err)
	}
}

func TestCallCommand(t *testing.T) {
	withNoColor(t)
	ts := newTestServer(t, map[string]string{
		"POST /api/voice-interview": `{"success":true,"requestId":"mock_call_1","status":"dispatched"}`,
	})

	var out bytes.Buffer
	err := runCall(ctx, ts.client(), &out, api.VoiceInterviewRequest{
		PhoneNumber:   "9876543210",
		InterviewType: "technical",
	})
	if err != nil {
		t.Fatalf("runCall: %v", err)
	}

	var sent api.VoiceInterviewRequest
	if err := json.Unmarshal([]byte(ts.recorded()[0].Body), &sent); err != nil {
		t.Fatalf("decoding request: %v", err)
	}
	if sent.PhoneNumber != "9876543210" || sent.InterviewType != "technical" {
		t.Errorf("sent = %+v", sent)
	}
	if !strings.Contains(out.String(), `"requestId": "mock_call_1"`) {
		t.Errorf("output = %s, want the call result", out.String())
	}
}

func TestDiagnoseCommand_SortedTable(t *testing.T) {
	withNoColor(t)
	ts := newTestServer(t, map[string]string{
		"GET /api/voice-interview/test": `{"success":true,"apiKey":"sk-l...","baseUrl":"https://p.example/api/v1","results":{
			"/calls":{"status":404,"statusText":"Not Found","ok":false},
			"/agents":{"status":200,"statusText":"OK","ok":true},
			"/bots":{"error":"connection refused","ok":false}}}`,
	})

	var out bytes.Buffer
	if err := runDiagnose(ctx, ts.client(), &out); err != nil {
		t.Fatalf("runDiagnose: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %d, want header plus 3:\n%s", len(lines), out.String())
	}
	for i, want := range []string{"/agents", "/bots", "/calls"} {
		if !strings.HasPrefix(lines[i+1], want) {
			t.Errorf("line %d = %q, want prefix %q", i+1, lines[i+1], want)
		}
	}
	if !strings.Contains(lines[2], "connection refused") {
		t.Errorf("transport error not shown: %q", lines[2])
	}
}

func TestHistoryCommand(t *testing.T) {
	withNoColor(t)
	ts := newTestServer(t, map[string]string{
		"GET /api/interviews": `[{"id":"iv-1","created_at":"2026-01-02T10:00:00Z","interview_type":"technical",
			"phone":"+********3210","agent_id":"agent-1","call_status":"queued","mock":false},
			{"id":"iv-2","created_at":"2026-01-02T11:00:00Z","interview_type":"general",
			"phone":"+********0000","agent_id":"mock_voice_agent_1","mock":true}]`,
	})

	var out bytes.Buffer
	if err := runHistory(ctx, ts.client(), &out, 5, 10); err != nil {
		t.Fatalf("runHistory: %v", err)
	}

	if got := ts.recorded()[0].Path; got != "/api/interviews?limit=5&offset=10" {
		t.Errorf("path = %q", got)
	}
	text := out.String()
	for _, want := range []string{"iv-1", "queued", "iv-2", "mock", "+********3210"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestHistoryCommand_Empty(t *testing.T) {
	withNoColor(t)
	ts := newTestServer(t, map[string]string{
		"GET /api/interviews": `[]`,
	})

	var out bytes.Buffer
	if err := runHistory(ctx, ts.client(), &out, 20, 0); err != nil {
		t.Fatalf("runHistory: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want empty", out.String())
	}
}

func TestStatsCommand(t *testing.T) {
	withNoColor(t)
	ts := newTestServer(t, map[string]string{
		"GET /api/stats": `{"interviews":3,"live_calls":1,"mock_calls":2,"by_type":{"technical":2,"general":1},"chat_messages":4,"fallback_replies":1}`,
	})

	if err := runStats(ctx, ts.client()); err != nil {
		t.Fatalf("runStats: %v", err)
	}
}

func TestStatsCommand_NotFound(t *testing.T) {
	ts := newTestServer(t, nil)

	err := runStats(ctx, ts.client())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "404: not found") {
		t.Errorf("error = %v, want typed envelope message", err)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"error":"Invalid phone number"}`, "Invalid phone number"},
		{`{"error":{"message":"admin token required","type":"unauthorized"}}`, "admin token required"},
		{"  gateway timeout\n", "gateway timeout"},
		{`{"other":1}`, `{"other":1}`},
	}
	for _, tt := range tests {
		if got := errorMessage([]byte(tt.body)); got != tt.want {
			t.Errorf("errorMessage(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestClient_Unreachable(t *testing.T) {
	ts := newTestServer(t, nil)
	c := ts.client()
	ts.server.Close()

	_, err := c.get(ctx, "/health")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "server not reachable") {
		t.Errorf("error = %v", err)
	}
}

func TestColorize(t *testing.T) {
	withNoColor(t)
	if got := colorize(color.FgRed, "x"); got != "x" {
		t.Errorf("colorize with noColor = %q, want plain", got)
	}

	noColor = false
	got := colorize(color.FgRed, "x")
	if got == "x" || !strings.Contains(got, "x") {
		t.Errorf("colorize = %q, want escape-wrapped text", got)
	}
}

func TestConfigSet_UnknownKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	rootCmd.SetArgs([]string{"config", "set", "nope.key", "1"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug": "DEBUG",
		"WARN":  "WARN",
		"error": "ERROR",
		"info":  "INFO",
		"":      "INFO",
	}
	for in, want := range tests {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
