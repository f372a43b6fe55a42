package provider

import (
	"context"
	"net/http"
	"strings"
)

// AgentKind selects the discriminator values tried when creating an agent.
type AgentKind int

const (
	KindVoice AgentKind = iota
	KindChat
)

// discriminator returns the first or second value tried in the type and
// agent_type fields.
func (k AgentKind) discriminator(second bool) string {
	switch {
	case k == KindChat && second:
		return "assistant"
	case k == KindChat:
		return "chatbot"
	case second:
		return "interview"
	default:
		return "voice"
	}
}

func (k AgentKind) mockTag() string {
	if k == KindChat {
		return "mock_agent"
	}
	return "mock_voice_agent"
}

type ContextSection struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type Transcriber struct {
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	SilenceTimeoutMS int    `json:"silence_timeout_ms"`
}

type ModelSettings struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
}

type Voice struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voice_id"`
}

type WebSearch struct {
	Enabled  bool   `json:"enabled"`
	Provider string `json:"provider"`
}

type Filler struct {
	Enabled  bool     `json:"enabled"`
	AfterSec int      `json:"after_sec"`
	Fillers  []string `json:"fillers"`
}

// AgentConfig is the body sent to the provider when creating an agent.
type AgentConfig struct {
	Kind AgentKind `json:"-"`

	Name             string           `json:"name"`
	WelcomeMessage   string           `json:"welcome_message"`
	ContextBreakdown []ContextSection `json:"context_breakdown"`
	Transcriber      Transcriber      `json:"transcriber"`
	Model            ModelSettings    `json:"model"`
	Voice            Voice            `json:"voice"`
	WebSearch        WebSearch        `json:"web_search"`
	Filler           Filler           `json:"filler"`
	KnowledgeBase    []string         `json:"knowledge_base,omitempty"`
	Integrations     []string         `json:"integrations,omitempty"`
}

// WithKnowledgeFile returns a copy of cfg that references fileID as both its
// knowledge base and its integration. An empty fileID leaves both unset.
func (cfg AgentConfig) WithKnowledgeFile(fileID string) AgentConfig {
	if fileID == "" {
		cfg.KnowledgeBase = nil
		cfg.Integrations = nil
		return cfg
	}
	cfg.KnowledgeBase = []string{fileID}
	cfg.Integrations = []string{fileID}
	return cfg
}

type typedConfig struct {
	AgentConfig
	Type string `json:"type"`
}

type agentTypedConfig struct {
	AgentConfig
	AgentType string `json:"agent_type"`
}

func withType(second bool) Template[AgentConfig] {
	return func(cfg AgentConfig) any {
		return typedConfig{AgentConfig: cfg, Type: cfg.Kind.discriminator(second)}
	}
}

func withAgentType(second bool) Template[AgentConfig] {
	return func(cfg AgentConfig) any {
		return agentTypedConfig{AgentConfig: cfg, AgentType: cfg.Kind.discriminator(second)}
	}
}

var createAgentOp = Operation[AgentConfig]{
	Name:   OpCreateAgent,
	Method: http.MethodPost,
	Endpoints: []string{
		"/agents/create",
		"/agent/create",
		"/agents",
		"/agent",
		"/chatbot/create",
		"/chatbot",
		"/assistant/create",
		"/assistant",
	},
	Payloads: []Template[AgentConfig]{
		func(cfg AgentConfig) any { return cfg },
		withType(false),
		withType(true),
		withAgentType(false),
		withAgentType(true),
	},
	Extract: FirstField("id", "agent_id", "agentId"),
}

// CreateAgent registers cfg with the provider and returns the new agent's id.
// When every attempt fails it returns a mock id (see IsMockID) so callers can
// carry on.
func (c *Client) CreateAgent(ctx context.Context, cfg AgentConfig) string {
	res := Probe(ctx, c, createAgentOp, cfg)
	if res.Exhausted {
		id := c.mockID(cfg.Kind.mockTag())
		c.logger.Warn("agent creation exhausted, using mock id", "name", cfg.Name, "agent_id", id)
		return id
	}
	return res.Value.(string)
}

// IsMockID reports whether id was synthesized locally rather than issued by
// the provider.
func IsMockID(id string) bool {
	return strings.HasPrefix(id, "mock_")
}

var findAgentOp = Operation[string]{
	Name:   OpFindAgent,
	Method: http.MethodGet,
	Endpoints: []string{
		"/agents?page=1&page_size=50",
		"/agent?page=1&page_size=50",
		"/agents/list",
		"/agent/list",
	},
	Payloads: []Template[string]{
		func(string) any { return nil },
	},
}

// FindExistingAgent looks up an agent by exact name on the first listing page
// and returns its id, or "" when no endpoint lists a match.
func (c *Client) FindExistingAgent(ctx context.Context, name string) string {
	op := findAgentOp
	op.Extract = agentNamed(name)
	res := Probe(ctx, c, op, name)
	if res.Exhausted {
		return ""
	}
	return res.Value.(string)
}

// agentNamed extracts the id of the listed agent called name. A listing
// without a match is treated as a failed attempt so the next endpoint is tried.
func agentNamed(name string) Extractor {
	return func(doc any) (any, bool) {
		for _, entry := range agentListing(doc) {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if n, _ := m["name"].(string); n != name {
				continue
			}
			for _, key := range []string{"id", "agent_id"} {
				if id, ok := scalarString(m[key]); ok {
					return id, true
				}
			}
		}
		return nil, false
	}
}

// agentListing unwraps the envelopes seen from agent listings: {data: [...]},
// {json: {data: [...]}} or a bare array.
func agentListing(doc any) []any {
	if list, ok := doc.([]any); ok {
		return list
	}
	for _, path := range []string{"data", "json.data"} {
		if v, ok := lookup(doc, path); ok {
			if list, ok := v.([]any); ok {
				return list
			}
		}
	}
	return nil
}
