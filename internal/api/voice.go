package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/interviewace/interviewace/internal/knowledge"
	"github.com/interviewace/interviewace/internal/phone"
	"github.com/interviewace/interviewace/internal/provider"
	"github.com/interviewace/interviewace/internal/storage"
)

// VoiceInterviewRequest is the body of POST /voice-interview.
type VoiceInterviewRequest struct {
	PhoneNumber    string `json:"phoneNumber" validate:"required"`
	InterviewType  string `json:"interviewType" validate:"required"`
	UserContext    string `json:"userContext,omitempty"`
	ResumeData     string `json:"resumeData,omitempty"`
	ResumeFileName string `json:"resumeFileName,omitempty"`
}

// requestError is a client mistake; its text is returned with a 400.
type requestError string

func (e requestError) Error() string { return string(e) }

const (
	errInterviewFields requestError = "Phone number and interview type are required"
	errInvalidPhone    requestError = "Invalid phone number"
)

func handleVoiceInterview(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req VoiceInterviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			deps.logger().Warn("undecodable voice-interview request", "error", err)
			clientError(w, http.StatusInternalServerError, "Failed to process voice interview request")
			return
		}

		call, err := startInterview(context.WithoutCancel(r.Context()), deps, req)
		var reqErr requestError
		switch {
		case errors.As(err, &reqErr):
			clientError(w, http.StatusBadRequest, reqErr.Error())
		case err != nil:
			deps.logger().Error("voice interview failed", "error", err)
			clientError(w, http.StatusInternalServerError, "Failed to process voice interview request")
		default:
			writeJSON(w, http.StatusOK, call)
		}
	}
}

// startInterview uploads the resume, finds or creates the interviewer agent
// and dispatches the call. It returns the provider's dispatch result, or a
// synthesized one when the provider could not be reached.
func startInterview(ctx context.Context, deps Deps, req VoiceInterviewRequest) (any, error) {
	if validate.Struct(req) != nil {
		return nil, errInterviewFields
	}
	number, err := phone.Normalize(req.PhoneNumber, deps.CountryCode)
	if err != nil {
		return nil, errInvalidPhone
	}

	p := deps.Provider
	cfg := provider.NewInterviewConfig(req.InterviewType, req.ResumeData != "")
	rec := storage.Interview{
		ID:             uuid.New().String(),
		InterviewType:  provider.NormalizeInterviewType(req.InterviewType),
		Phone:          phone.Mask(number),
		AgentName:      cfg.Name,
		ResumeFileName: req.ResumeFileName,
	}
	log := deps.logger().With("interview_id", rec.ID, "interview_type", rec.InterviewType, "phone", rec.Phone)
	log.Info("starting voice interview", "has_resume", req.ResumeData != "")

	resume := knowledge.File{Data: req.ResumeData, Name: req.ResumeFileName}
	if resume.Present() {
		rec.ResumeDigest = digestResume(log, resume)
		if id, ok := p.UploadKnowledgeFile(ctx, resume); ok {
			rec.KnowledgeFileID = id
		} else {
			log.Info("resume upload failed, continuing without knowledge base")
		}
	}

	agentID := p.FindExistingAgent(ctx, cfg.Name)
	if agentID == "" {
		if rec.KnowledgeFileID != "" {
			cfg = cfg.WithKnowledgeFile(rec.KnowledgeFileID)
		}
		agentID = p.CreateAgent(ctx, cfg)
	} else {
		rec.AgentReused = true
		log.Info("reusing existing agent", "agent_id", agentID)
		if rec.KnowledgeFileID != "" {
			p.AttachKnowledgeToAgent(ctx, []string{rec.KnowledgeFileID}, agentID)
		}
	}
	rec.AgentID = agentID

	call, live := p.DispatchVoiceCall(ctx, provider.CallRequest{
		AgentID: agentID,
		Phone:   number,
		Context: req.UserContext,
	})
	rec.Mock = !live
	rec.RequestID, rec.CallStatus = callSummary(call)
	log.Info("voice interview dispatched", "agent_id", agentID, "mock", rec.Mock, "request_id", rec.RequestID)

	recordInterview(deps, log, rec)
	return call, nil
}

// digestResume returns the resume digest as JSON, or "" when the file cannot
// be decoded.
func digestResume(log *slog.Logger, f knowledge.File) string {
	raw, err := f.Decode()
	if err != nil {
		log.Warn("resume is not valid base64", "file_name", f.Name, "error", err)
		return ""
	}
	d, err := knowledge.Inspect(f.Name, raw)
	if err != nil {
		log.Warn("resume could not be parsed", "file_name", f.Name, "error", err)
	}
	log.Info("resume received", "file_name", f.Name, "content_type", d.ContentType,
		"size", d.Size, "pages", d.Pages, "text_length", d.TextLength)

	b, err := json.Marshal(d)
	if err != nil {
		return ""
	}
	return string(b)
}

// callSummary pulls the request id and status out of a dispatch result.
func callSummary(call any) (requestID, status string) {
	m, ok := call.(map[string]any)
	if !ok {
		return "", ""
	}
	for _, k := range []string{"requestId", "request_id", "call_id", "id"} {
		if s := scalar(m[k]); s != "" {
			requestID = s
			break
		}
	}
	return requestID, scalar(m["status"])
}

func scalar(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

func recordInterview(deps Deps, log *slog.Logger, rec storage.Interview) {
	if deps.Store == nil {
		return
	}
	if err := deps.Store.SaveInterview(rec); err != nil {
		log.Warn("recording interview failed", "error", err)
	}
}
