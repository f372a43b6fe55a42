package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/interviewace/interviewace/internal/knowledge"
)

func TestCreateAgent_DiscriminatorPayloads(t *testing.T) {
	tests := []struct {
		name     string
		cfg      AgentConfig
		first    string
		second   string
		mockTail string
	}{
		{"voice", NewInterviewConfig("technical", false), "voice", "interview", "mock_voice_agent_1700000000000"},
		{"chat", NewChatAssistantConfig(), "chatbot", "assistant", "mock_agent_1700000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp, srv := newFakeProvider(t, alwaysFail)
			c := newTestClient(t, srv.URL)

			if id := c.CreateAgent(context.Background(), tt.cfg); id != tt.mockTail {
				t.Errorf("id = %q, want %q", id, tt.mockTail)
			}

			calls := fp.calls()
			first := calls[0].keys(t)
			if _, ok := first["type"]; ok {
				t.Error("first payload should carry no type")
			}
			if _, ok := first["agent_type"]; ok {
				t.Error("first payload should carry no agent_type")
			}
			checks := []struct {
				idx  int
				key  string
				want string
			}{
				{1, "type", tt.first},
				{2, "type", tt.second},
				{3, "agent_type", tt.first},
				{4, "agent_type", tt.second},
			}
			for _, chk := range checks {
				body := calls[chk.idx].keys(t)
				if body[chk.key] != chk.want {
					t.Errorf("payload %d %s = %v, want %q", chk.idx, chk.key, body[chk.key], chk.want)
				}
				if body["name"] != tt.cfg.Name {
					t.Errorf("payload %d name = %v, want %q", chk.idx, body["name"], tt.cfg.Name)
				}
			}
		})
	}
}

func TestAgentConfig_KnowledgeFields(t *testing.T) {
	cfg := NewInterviewConfig("technical", true).WithKnowledgeFile("file-123")

	raw, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"knowledge_base", "integrations"} {
		list, ok := doc[key].([]any)
		if !ok || len(list) != 1 || list[0] != "file-123" {
			t.Errorf("%s = %v, want [file-123]", key, doc[key])
		}
	}
	if doc["name"] != "Technical HR Screening Assistant" {
		t.Errorf("name = %v", doc["name"])
	}

	sections := cfg.ContextBreakdown
	if len(sections) != 7 {
		t.Fatalf("sections = %d, want 7", len(sections))
	}
	if last := sections[len(sections)-1]; last.Title != "Resume Integration" {
		t.Errorf("last section = %q, want Resume Integration", last.Title)
	}
}

func TestAgentConfig_NoKnowledgeFile(t *testing.T) {
	raw, err := json.Marshal(NewInterviewConfig("technical", false).WithKnowledgeFile(""))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, key := range []string{`"knowledge_base"`, `"integrations"`, `"Kind"`} {
		if bytes.Contains(raw, []byte(key)) {
			t.Errorf("payload contains %s: %s", key, raw)
		}
	}
}

func TestNewInterviewConfig_FreshTemplates(t *testing.T) {
	withResume := NewInterviewConfig("behavioral", true)
	plain := NewInterviewConfig("behavioral", false)
	if len(withResume.ContextBreakdown) != 7 || len(plain.ContextBreakdown) != 6 {
		t.Errorf("sections = %d and %d, want 7 and 6", len(withResume.ContextBreakdown), len(plain.ContextBreakdown))
	}
	again := NewInterviewConfig("behavioral", false)
	if len(again.ContextBreakdown) != 6 {
		t.Errorf("resume section leaked into the shared template")
	}
}

func TestNewInterviewConfig_UnknownTypeIsGeneral(t *testing.T) {
	cfg := NewInterviewConfig("astronaut", false)
	if cfg.Name != "General HR Screening Assistant" {
		t.Errorf("Name = %q, want General HR Screening Assistant", cfg.Name)
	}
	if !strings.Contains(cfg.ContextBreakdown[5].Body, "schedule you for an interview.") {
		t.Errorf("general instructions = %q", cfg.ContextBreakdown[5].Body)
	}
}

func TestNormalizeInterviewType_ExactMatch(t *testing.T) {
	tests := map[string]string{
		"technical":  "technical",
		"leadership": "leadership",
		"Technical":  "general",
		" technical": "general",
		"":           "general",
	}
	for in, want := range tests {
		if got := NormalizeInterviewType(in); got != want {
			t.Errorf("NormalizeInterviewType(%q) = %q, want %q", in, got, want)
		}
	}
	if cfg := NewInterviewConfig("Technical", false); cfg.Name != "General HR Screening Assistant" {
		t.Errorf("Name = %q, want the general template", cfg.Name)
	}
}

func TestFindExistingAgent_Idempotent(t *testing.T) {
	fp, srv := newFakeProvider(t, func(_ int, r *http.Request, _ []byte) (int, string) {
		switch r.URL.Path {
		case "/agents":
			return http.StatusOK, `{"data":[{"id":1,"name":"Someone Else"}]}`
		case "/agent":
			return http.StatusNotFound, `{}`
		case "/agents/list":
			return http.StatusOK, `{"json":{"data":[{"agent_id":"ag-7","name":"Technical HR Screening Assistant"}]}}`
		}
		return http.StatusNotFound, `{}`
	})
	c := newTestClient(t, srv.URL)

	name := NewInterviewConfig("technical", false).Name
	first := c.FindExistingAgent(context.Background(), name)
	firstCalls := len(fp.calls())
	second := c.FindExistingAgent(context.Background(), name)
	secondCalls := len(fp.calls()) - firstCalls

	if first != "ag-7" || second != "ag-7" {
		t.Errorf("ids = %q, %q, want ag-7 twice", first, second)
	}
	if firstCalls != 3 || secondCalls != 3 {
		t.Errorf("calls = %d and %d, want 3 each", firstCalls, secondCalls)
	}

	calls := fp.calls()
	if calls[0].Path != "/agents?page=1&page_size=50" || calls[0].Method != http.MethodGet {
		t.Errorf("first call = %s %s", calls[0].Method, calls[0].Path)
	}
	if len(calls[0].Body) != 0 {
		t.Errorf("GET carried a body: %q", calls[0].Body)
	}
}

func TestFindExistingAgent_BareArray(t *testing.T) {
	_, srv := newFakeProvider(t, func(int, *http.Request, []byte) (int, string) {
		return http.StatusOK, `[{"id":"x1","name":"General HR Screening Assistant"}]`
	})
	c := newTestClient(t, srv.URL)
	if id := c.FindExistingAgent(context.Background(), "General HR Screening Assistant"); id != "x1" {
		t.Errorf("id = %q, want x1", id)
	}
}

func TestFindExistingAgent_NotFound(t *testing.T) {
	fp, srv := newFakeProvider(t, func(int, *http.Request, []byte) (int, string) {
		return http.StatusOK, `{"data":[]}`
	})
	c := newTestClient(t, srv.URL)
	if id := c.FindExistingAgent(context.Background(), "Nobody"); id != "" {
		t.Errorf("id = %q, want empty", id)
	}
	if got := len(fp.calls()); got != 4 {
		t.Errorf("calls = %d, want 4", got)
	}
}

func TestUploadKnowledgeFile_MultipartLastResort(t *testing.T) {
	content := []byte("%PDF-1.4 resume")
	fp, srv := newFakeProvider(t, func(_ int, r *http.Request, body []byte) (int, string) {
		mediaType, params, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType != "multipart/form-data" {
			return http.StatusUnprocessableEntity, `{"detail":"file required"}`
		}
		mr := multipart.NewReader(bytes.NewReader(body), params["boundary"])
		part, err := mr.NextPart()
		if err != nil || part.FormName() != "file" || part.FileName() != "cv.pdf" {
			return http.StatusBadRequest, `{}`
		}
		got, _ := io.ReadAll(part)
		if !bytes.Equal(got, content) {
			return http.StatusBadRequest, `{}`
		}
		return http.StatusOK, `{"file_id":"kb-9"}`
	})
	c := newTestClient(t, srv.URL)

	f := knowledge.File{Data: base64.StdEncoding.EncodeToString(content), Name: "cv.pdf"}
	id, ok := c.UploadKnowledgeFile(context.Background(), f)
	if !ok || id != "kb-9" {
		t.Fatalf("UploadKnowledgeFile = %q, %v, want kb-9, true", id, ok)
	}

	calls := fp.calls()
	if len(calls) != 8*6+1 {
		t.Fatalf("calls = %d, want %d", len(calls), 8*6+1)
	}
	if last := calls[len(calls)-1]; last.Path != "/files" {
		t.Errorf("multipart path = %q, want /files", last.Path)
	}

	first := calls[0].keys(t)
	if first["file_data"] != f.Data || first["file_name"] != "cv.pdf" {
		t.Errorf("first payload = %v", first)
	}
	sixth := calls[5].keys(t)
	if sixth["type"] != "document" {
		t.Errorf("sixth payload type = %v, want document", sixth["type"])
	}
}

func TestUploadKnowledgeFile_Exhausted(t *testing.T) {
	_, srv := newFakeProvider(t, alwaysFail)
	c := newTestClient(t, srv.URL)

	id, ok := c.UploadKnowledgeFile(context.Background(), knowledge.File{Data: "aGVsbG8=", Name: "a.txt"})
	if ok || id != "" {
		t.Errorf("UploadKnowledgeFile = %q, %v, want not found", id, ok)
	}
}

func TestAttachKnowledgeToAgent_Order(t *testing.T) {
	fp, srv := newFakeProvider(t, func(n int, _ *http.Request, _ []byte) (int, string) {
		if n < 6 {
			return http.StatusNotFound, `{}`
		}
		return http.StatusOK, `{"attached":true}`
	})
	c := newTestClient(t, srv.URL)

	result, ok := c.AttachKnowledgeToAgent(context.Background(), []string{"f1"}, "ag-1")
	if !ok {
		t.Fatal("expected attach to succeed")
	}
	if m, _ := result.(map[string]any); m["attached"] != true {
		t.Errorf("result = %v", result)
	}

	calls := fp.calls()
	if len(calls) != 6 {
		t.Fatalf("calls = %d, want 6", len(calls))
	}
	for i, call := range calls[:4] {
		if _, ok := call.keys(t)["file_ids"]; !ok {
			t.Errorf("call %d should use snake_case keys", i)
		}
	}
	if _, ok := calls[4].keys(t)["fileIds"]; !ok {
		t.Error("call 5 should use camelCase keys")
	}
	if calls[4].Path != "/knowledge_base/attach" || calls[5].Path != "/knowledge-base/attach" {
		t.Errorf("camelCase paths = %q, %q", calls[4].Path, calls[5].Path)
	}
}

func TestAttachKnowledgeToAgent_FalsyBodiesFail(t *testing.T) {
	for _, body := range []string{`null`, `false`, `0`, `""`} {
		t.Run(body, func(t *testing.T) {
			fp, srv := newFakeProvider(t, func(int, *http.Request, []byte) (int, string) {
				return http.StatusOK, body
			})
			c := newTestClient(t, srv.URL)

			result, ok := c.AttachKnowledgeToAgent(context.Background(), []string{"f1"}, "ag-1")
			if ok || result != nil {
				t.Errorf("AttachKnowledgeToAgent = (%v, %v), want (nil, false)", result, ok)
			}
			if n := len(fp.calls()); n != 8 {
				t.Errorf("calls = %d, want 8", n)
			}
		})
	}
}

func TestAttachKnowledgeToAgent_EmptyObjectSucceeds(t *testing.T) {
	fp, srv := newFakeProvider(t, func(int, *http.Request, []byte) (int, string) {
		return http.StatusOK, `{}`
	})
	c := newTestClient(t, srv.URL)

	if _, ok := c.AttachKnowledgeToAgent(context.Background(), []string{"f1"}, "ag-1"); !ok {
		t.Error("expected an empty object to count as attached")
	}
	if n := len(fp.calls()); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestSendChatMessage_FallbackOnExhaustion(t *testing.T) {
	fp, srv := newFakeProvider(t, func(int, *http.Request, []byte) (int, string) {
		return http.StatusServiceUnavailable, `{"error":"down"}`
	})
	c := newTestClient(t, srv.URL)

	reply := c.SendChatMessage(context.Background(), "ag-1", "How do I negotiate salary?", "")
	if !reply.Success || !reply.Fallback {
		t.Errorf("reply = %+v, want fallback success", reply)
	}
	if !strings.HasPrefix(reply.Message, "Salary negotiation tips:") {
		t.Errorf("Message = %q, want salary tips", reply.Message)
	}
	if got := len(fp.calls()); got != 90 {
		t.Errorf("calls = %d, want 90", got)
	}
}

func TestSendChatMessage_SessionAndPathParams(t *testing.T) {
	fp, srv := newFakeProvider(t, func(_ int, r *http.Request, _ []byte) (int, string) {
		if r.URL.Path == "/agents/ag-1/chat" {
			return http.StatusOK, `{"data":{"text":"Hi there"}}`
		}
		return http.StatusNotFound, `{}`
	})
	c := newTestClient(t, srv.URL)

	reply := c.SendChatMessage(context.Background(), "ag-1", "hello", "")
	if reply.Message != "Hi there" || reply.Fallback {
		t.Errorf("reply = %+v", reply)
	}

	calls := fp.calls()
	if len(calls) != 3*9+1 {
		t.Fatalf("calls = %d, want %d", len(calls), 3*9+1)
	}
	for i, call := range calls {
		body := call.keys(t)
		if _, ok := body["session_id"]; ok {
			t.Errorf("call %d carries session_id without a session", i)
		}
		if _, ok := body["sessionId"]; ok {
			t.Errorf("call %d carries sessionId without a session", i)
		}
	}
}

func TestSendChatMessage_WithSession(t *testing.T) {
	fp, srv := newFakeProvider(t, func(int, *http.Request, []byte) (int, string) {
		return http.StatusOK, `{"reply":"ok"}`
	})
	c := newTestClient(t, srv.URL)

	c.SendChatMessage(context.Background(), "ag-1", "hello", "sess-1")
	body := fp.calls()[0].keys(t)
	if body["session_id"] != "sess-1" || body["agent_id"] != "ag-1" || body["message"] != "hello" {
		t.Errorf("first payload = %v", body)
	}
}

func TestDispatchVoiceCall(t *testing.T) {
	t.Run("provider response passed through", func(t *testing.T) {
		_, srv := newFakeProvider(t, func(n int, _ *http.Request, _ []byte) (int, string) {
			if n < 3 {
				return http.StatusBadRequest, `{}`
			}
			return http.StatusOK, `{"requestId":"req-1","status":"queued"}`
		})
		c := newTestClient(t, srv.URL)
		result, live := c.DispatchVoiceCall(context.Background(), CallRequest{AgentID: "ag", Phone: "+15550100"})
		m, _ := result.(map[string]any)
		if !live || m["requestId"] != "req-1" {
			t.Errorf("result = %v, live = %v", result, live)
		}
	})

	t.Run("mock acknowledgement", func(t *testing.T) {
		fp, srv := newFakeProvider(t, alwaysFail)
		c := newTestClient(t, srv.URL)
		result, live := c.DispatchVoiceCall(context.Background(), CallRequest{AgentID: "ag", Phone: "+15550100", Context: "ctx"})
		if live {
			t.Error("live = true, want false")
		}
		m := result.(map[string]any)
		if m["success"] != true || m["status"] != "dispatched" || m["requestId"] != "mock_call_1700000000000" {
			t.Errorf("mock = %v", m)
		}
		if got := len(fp.calls()); got != 24 {
			t.Errorf("calls = %d, want 24", got)
		}
		first := fp.calls()[0].keys(t)
		if first["to_number"] != "+15550100" || first["call_context"] != "ctx" {
			t.Errorf("first payload = %v", first)
		}
	})
}

func TestDiagnose(t *testing.T) {
	_, srv := newFakeProvider(t, func(_ int, r *http.Request, _ []byte) (int, string) {
		switch r.URL.Path {
		case "/agents":
			return http.StatusOK, `{"data":[]}`
		case "/agent":
			return http.StatusOK, `<html>`
		}
		return http.StatusNotFound, `{}`
	})
	c := newTestClient(t, srv.URL)

	d := c.Diagnose(context.Background())
	if len(d.Results) != len(DiagnosticPaths) {
		t.Fatalf("results = %d, want %d", len(d.Results), len(DiagnosticPaths))
	}
	if r := d.Results["/agents"]; !r.OK || r.Status != 200 || r.Data == nil {
		t.Errorf("/agents = %+v", r)
	}
	if r := d.Results["/agent"]; r.Data != "Could not parse JSON" {
		t.Errorf("/agent data = %v", r.Data)
	}
	if r := d.Results["/calls"]; r.OK || r.Status != 404 || r.StatusText != "Not Found" || r.Data != nil {
		t.Errorf("/calls = %+v", r)
	}
	if r := d.Results["/calls"]; r.Headers["content-type"] != "application/json" {
		t.Errorf("headers = %v", r.Headers)
	}
	if d.APIKey != "sk-test-0123456789ab..." || d.BaseURL != srv.URL {
		t.Errorf("apiKey = %q, baseUrl = %q", d.APIKey, d.BaseURL)
	}
}
