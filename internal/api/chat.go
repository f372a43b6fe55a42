package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/interviewace/interviewace/internal/knowledge"
	"github.com/interviewace/interviewace/internal/provider"
	"github.com/interviewace/interviewace/internal/storage"
)

// ChatAgentRequest is the body of POST /chat-agent. FileData carries the
// base64 file for upload_knowledge; older clients also send the file id
// list in it for attach_knowledge.
type ChatAgentRequest struct {
	Action    string          `json:"action"`
	Message   string          `json:"message,omitempty"`
	FileData  json.RawMessage `json:"fileData,omitempty"`
	FileName  string          `json:"fileName,omitempty"`
	FileIDs   []string        `json:"fileIds,omitempty"`
	AgentID   string          `json:"agentId,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

const (
	ActionCreateAgent     = "create_agent"
	ActionUploadKnowledge = "upload_knowledge"
	ActionAttachKnowledge = "attach_knowledge"
	ActionSendMessage     = "send_message"
)

type uploadArgs struct {
	Data string `validate:"required"`
	Name string `validate:"required"`
}

type attachArgs struct {
	FileIDs []string `validate:"required,min=1,dive,required"`
	AgentID string   `validate:"required"`
}

type messageArgs struct {
	Message string `validate:"required"`
	AgentID string `validate:"required"`
}

// fileDataString returns FileData when it is a JSON string.
func (req ChatAgentRequest) fileDataString() string {
	var s string
	if json.Unmarshal(req.FileData, &s) != nil {
		return ""
	}
	return s
}

// fileIDs returns fileIds, or FileData when it holds a list of ids.
func (req ChatAgentRequest) fileIDs() []string {
	if len(req.FileIDs) > 0 {
		return req.FileIDs
	}
	var ids []string
	if json.Unmarshal(req.FileData, &ids) != nil {
		return nil
	}
	return ids
}

func handleChatAgent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req ChatAgentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			deps.logger().Warn("undecodable chat-agent request", "error", err)
			clientError(w, http.StatusInternalServerError, "Failed to process request")
			return
		}

		// Probing runs to completion even if the client goes away.
		ctx := context.WithoutCancel(r.Context())
		p := deps.Provider

		switch req.Action {
		case ActionCreateAgent:
			agentID := p.CreateAgent(ctx, provider.NewChatAssistantConfig())
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"agentId": agentID,
				"message": "Chat agent created successfully",
			})

		case ActionUploadKnowledge:
			args := uploadArgs{Data: req.fileDataString(), Name: req.FileName}
			if validate.Struct(args) != nil {
				clientError(w, http.StatusBadRequest, "File data and name are required")
				return
			}
			fileID, ok := p.UploadKnowledgeFile(ctx, knowledge.File{Data: args.Data, Name: args.Name})
			if !ok {
				writeJSON(w, http.StatusOK, map[string]any{
					"success": false,
					"message": "File upload failed, but chat functionality is still available",
				})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"fileId":  fileID,
				"message": "File uploaded to knowledge base successfully",
			})

		case ActionAttachKnowledge:
			args := attachArgs{FileIDs: req.fileIDs(), AgentID: req.AgentID}
			if validate.Struct(args) != nil {
				clientError(w, http.StatusBadRequest, "File IDs and agent ID are required")
				return
			}
			result, ok := p.AttachKnowledgeToAgent(ctx, args.FileIDs, args.AgentID)
			if !ok {
				writeJSON(w, http.StatusOK, map[string]any{
					"success": false,
					"message": "Knowledge base attachment failed, but chat functionality is still available",
				})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"result":  result,
				"message": "Knowledge base attached to agent successfully",
			})

		case ActionSendMessage:
			args := messageArgs{Message: req.Message, AgentID: req.AgentID}
			if validate.Struct(args) != nil {
				clientError(w, http.StatusBadRequest, "Message and agent ID are required")
				return
			}
			reply := p.SendChatMessage(ctx, args.AgentID, args.Message, req.SessionID)
			recordChat(deps, req, reply)
			writeJSON(w, http.StatusOK, map[string]any{
				"success":  true,
				"response": reply,
				"message":  "Message sent successfully",
			})

		default:
			clientError(w, http.StatusBadRequest, "Invalid action")
		}
	}
}

func recordChat(deps Deps, req ChatAgentRequest, reply provider.ChatReply) {
	if deps.Store == nil {
		return
	}
	err := deps.Store.SaveChatExchange(storage.ChatExchange{
		ID:        uuid.New().String(),
		AgentID:   req.AgentID,
		SessionID: req.SessionID,
		Message:   req.Message,
		Reply:     reply.Message,
		Fallback:  reply.Fallback,
	})
	if err != nil {
		deps.logger().Warn("recording chat exchange failed", "agent_id", req.AgentID, "error", err)
	}
}
