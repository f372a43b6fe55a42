package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/interviewace/interviewace/internal/provider"
	"github.com/interviewace/interviewace/internal/storage"
)

// NewMCPServer exposes the provider operations as MCP tools so an assistant
// can practice with an agent or schedule a call directly.
func NewMCPServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"interviewace",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("interviewace: interview practice through a hosted conversational agent."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("send_chat_message",
			mcp.WithDescription("Send a message to an interview-practice chat agent and return its reply."),
			mcp.WithString("agent_id", mcp.Description("Agent id returned by create_chat_agent"), mcp.Required()),
			mcp.WithString("message", mcp.Description("The message to send"), mcp.Required()),
			mcp.WithString("session_id", mcp.Description("Optional conversation session id")),
		),
		mcpSendChatMessage(deps),
	)

	s.AddTool(
		mcp.NewTool("create_chat_agent",
			mcp.WithDescription("Create the interview-practice chat assistant and return its agent id."),
		),
		mcpCreateChatAgent(deps),
	)

	s.AddTool(
		mcp.NewTool("start_voice_interview",
			mcp.WithDescription("Place an outbound mock-interview phone call."),
			mcp.WithString("phone_number", mcp.Description("Phone number to call; a country code is added when missing"), mcp.Required()),
			mcp.WithString("interview_type", mcp.Description("Interview type"),
				mcp.Required(), mcp.Enum(provider.InterviewTypes()...)),
			mcp.WithString("user_context", mcp.Description("Background the interviewer should know about")),
		),
		mcpStartVoiceInterview(deps),
	)

	s.AddTool(
		mcp.NewTool("diagnose_provider",
			mcp.WithDescription("Probe the provider's listing endpoints and report status and body for each."),
		),
		mcpDiagnoseProvider(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"interviews://recent",
			"Recent Interviews",
			mcp.WithResourceDescription("Last 10 voice interviews"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

func mcpSendChatMessage(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		agentID, err := req.RequireString("agent_id")
		if err != nil {
			return mcpError("agent_id is required"), nil
		}
		message, err := req.RequireString("message")
		if err != nil || message == "" {
			return mcpError("message is required"), nil
		}
		sessionID := req.GetString("session_id", "")

		reply := deps.Provider.SendChatMessage(ctx, agentID, message, sessionID)
		recordChat(deps, ChatAgentRequest{AgentID: agentID, Message: message, SessionID: sessionID}, reply)
		return mcpText(reply.Message), nil
	}
}

func mcpCreateChatAgent(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := deps.Provider.CreateAgent(ctx, provider.NewChatAssistantConfig())
		if provider.IsMockID(id) {
			return mcpText(fmt.Sprintf("Provider unavailable; using placeholder agent %s", id)), nil
		}
		return mcpText(id), nil
	}
}

func mcpStartVoiceInterview(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		in := VoiceInterviewRequest{
			PhoneNumber:   req.GetString("phone_number", ""),
			InterviewType: req.GetString("interview_type", ""),
			UserContext:   req.GetString("user_context", ""),
		}
		call, err := startInterview(ctx, deps, in)
		var reqErr requestError
		if errors.As(err, &reqErr) {
			return mcpError(reqErr.Error()), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("voice interview failed: %v", err)), nil
		}
		return mcpJSON(call)
	}
}

func mcpDiagnoseProvider(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcpJSON(deps.Provider.Diagnose(ctx))
	}
}

func mcpResourceRecent(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		interviews := []storage.Interview{}
		if deps.Store != nil {
			var err error
			interviews, err = deps.Store.ListInterviews(10, 0)
			if err != nil {
				return nil, fmt.Errorf("failed to list interviews: %w", err)
			}
		}

		b, err := json.Marshal(interviews)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal interviews: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
