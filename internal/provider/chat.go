package provider

import (
	"context"
	"net/http"
	"net/url"

	"github.com/interviewace/interviewace/internal/advice"
)

// GenericReply is returned when the provider accepted a chat message but its
// response carried no recognizable text.
const GenericReply = "I understand your message. Let me help you with that."

// ChatReply is the normalized answer to a chat message.
type ChatReply struct {
	Message string `json:"message"`
	Success bool   `json:"success"`

	// Fallback is set when the reply came from the local advice rules
	// because no provider attempt succeeded.
	Fallback bool `json:"-"`
}

type chatInput struct {
	AgentID   string
	Message   string
	SessionID string
}

// chatFields builds a payload from the given key names. The session key is
// omitted when no session id is known.
func chatFields(idKey, textKey, sessionKey string) Template[chatInput] {
	return func(in chatInput) any {
		p := map[string]string{idKey: in.AgentID, textKey: in.Message}
		if sessionKey != "" && in.SessionID != "" {
			p[sessionKey] = in.SessionID
		}
		return p
	}
}

var sendChatOp = Operation[chatInput]{
	Name:   OpSendChatMessage,
	Method: http.MethodPost,
	Endpoints: []string{
		"/chat",
		"/conversation",
		"/message",
		"/agents/{agent_id}/chat",
		"/agents/{agent_id}/message",
		"/chat/{agent_id}",
		"/conversation/{agent_id}",
		"/agents/{agent_id}/conversation",
		"/message/send",
		"/chat/send",
	},
	PathParams: func(in chatInput) map[string]string {
		return map[string]string{"agent_id": url.PathEscape(in.AgentID)}
	},
	Payloads: []Template[chatInput]{
		chatFields("agent_id", "message", "session_id"),
		chatFields("agentId", "message", "sessionId"),
		chatFields("agent_id", "text", "session_id"),
		chatFields("agentId", "text", "sessionId"),
		chatFields("id", "message", "session_id"),
		chatFields("agent_id", "message", ""),
		chatFields("agentId", "message", ""),
		chatFields("agent_id", "content", "session_id"),
		chatFields("agentId", "content", "sessionId"),
	},
	Extract: WithDefault(
		FirstField("message", "text", "response", "data.message", "data.text", "content", "reply"),
		GenericReply,
	),
}

// SendChatMessage relays message to the agent and returns its reply. It never
// fails: when the provider cannot be reached the reply comes from the local
// advice rules.
func (c *Client) SendChatMessage(ctx context.Context, agentID, message, sessionID string) ChatReply {
	res := Probe(ctx, c, sendChatOp, chatInput{AgentID: agentID, Message: message, SessionID: sessionID})
	if res.Exhausted {
		c.logger.Info("chat exhausted, answering locally", "agent_id", agentID, "topic", advice.Classify(message))
		return ChatReply{Message: advice.Respond(message), Success: true, Fallback: true}
	}
	return ChatReply{Message: res.Value.(string), Success: true}
}
