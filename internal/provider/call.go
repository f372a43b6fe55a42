package provider

import (
	"context"
	"net/http"
)

// CallRequest describes an outbound screening call.
type CallRequest struct {
	AgentID string
	Phone   string // E.164
	Context string
}

func callFields(idKey, phoneKey, contextKey string) Template[CallRequest] {
	return func(r CallRequest) any {
		return map[string]string{idKey: r.AgentID, phoneKey: r.Phone, contextKey: r.Context}
	}
}

var dispatchCallOp = Operation[CallRequest]{
	Name:   OpDispatchVoiceCall,
	Method: http.MethodPost,
	Endpoints: []string{
		"/calls/dispatch",
		"/call/dispatch",
		"/calls",
		"/call",
		"/voice/call",
		"/voice/dispatch",
	},
	Payloads: []Template[CallRequest]{
		callFields("agent_id", "to_number", "call_context"),
		callFields("agentId", "toNumber", "callContext"),
		callFields("agent_id", "phone_number", "context"),
		callFields("agentId", "phoneNumber", "context"),
	},
}

// DispatchVoiceCall asks the provider to ring r.Phone with the given agent
// and returns the provider's response document unchanged. When every attempt
// fails it returns a mock acknowledgement and false.
func (c *Client) DispatchVoiceCall(ctx context.Context, r CallRequest) (any, bool) {
	res := Probe(ctx, c, dispatchCallOp, r)
	if res.Exhausted {
		c.logger.Warn("call dispatch exhausted, returning mock acknowledgement", "agent_id", r.AgentID)
		return c.mockCall(), false
	}
	return res.Value, true
}

func (c *Client) mockCall() map[string]any {
	return map[string]any{
		"success":   true,
		"requestId": c.mockID("mock_call"),
		"status":    "dispatched",
		"message":   "Call initiated successfully (mock response)",
	}
}
