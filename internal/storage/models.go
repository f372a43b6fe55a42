package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Interview is one voice-interview request as it was handled.
type Interview struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	InterviewType   string    `json:"interview_type"`
	Phone           string    `json:"phone"` // masked
	AgentID         string    `json:"agent_id"`
	AgentName       string    `json:"agent_name"`
	AgentReused     bool      `json:"agent_reused"`
	KnowledgeFileID string    `json:"knowledge_file_id,omitempty"`
	ResumeFileName  string    `json:"resume_file_name,omitempty"`
	ResumeDigest    string    `json:"resume_digest,omitempty"` // JSON object stored as text
	RequestID       string    `json:"request_id,omitempty"`
	CallStatus      string    `json:"call_status,omitempty"`
	Mock            bool      `json:"mock"`
}

// ChatExchange is one chat message and the reply it received.
type ChatExchange struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	AgentID   string    `json:"agent_id"`
	SessionID string    `json:"session_id,omitempty"`
	Message   string    `json:"message"`
	Reply     string    `json:"reply"`
	Fallback  bool      `json:"fallback"`
}

// Stats aggregates the history log.
type Stats struct {
	Interviews      int            `json:"interviews"`
	LiveCalls       int            `json:"live_calls"`
	MockCalls       int            `json:"mock_calls"`
	ByType          map[string]int `json:"by_type"`
	ChatMessages    int            `json:"chat_messages"`
	FallbackReplies int            `json:"fallback_replies"`
}
