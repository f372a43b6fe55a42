package provider

import (
	"context"
	"net/http"

	"github.com/interviewace/interviewace/internal/knowledge"
)

var fileIDField = FirstField("id", "file_id", "fileId")

var uploadKnowledgeOp = Operation[knowledge.File]{
	Name:   OpUploadKnowledge,
	Method: http.MethodPost,
	Endpoints: []string{
		"/knowledge_base/create",
		"/knowledge-base/create",
		"/knowledge_base",
		"/knowledge-base",
		"/files/create",
		"/files",
		"/documents/create",
		"/documents",
	},
	Payloads: []Template[knowledge.File]{
		fileFields("file_data", "file_name"),
		fileFields("data", "name"),
		fileFields("content", "filename"),
		fileFields("file", "filename"),
		fileFields("document", "title"),
		func(f knowledge.File) any {
			return map[string]string{"file_data": f.Data, "file_name": f.Name, "type": "document"}
		},
	},
	Extract: fileIDField,
}

func fileFields(dataKey, nameKey string) Template[knowledge.File] {
	return func(f knowledge.File) any {
		return map[string]string{dataKey: f.Data, nameKey: f.Name}
	}
}

// uploadMultipartOp is tried last, with the decoded bytes.
var uploadMultipartOp = Operation[multipartUpload]{
	Name:      OpUploadKnowledge,
	Method:    http.MethodPost,
	Encoding:  EncodingMultipart,
	Endpoints: []string{"/files"},
	Payloads: []Template[multipartUpload]{
		func(u multipartUpload) any {
			return MultipartFile{Field: "file", FileName: u.name, Data: u.raw}
		},
	},
	Extract: fileIDField,
}

type multipartUpload struct {
	name string
	raw  []byte
}

// UploadKnowledgeFile stores f in the provider's knowledge base and returns
// the file id. The second result is false when no attempt succeeded.
func (c *Client) UploadKnowledgeFile(ctx context.Context, f knowledge.File) (string, bool) {
	c.logger.Info("uploading knowledge file", "file_name", f.Name, "data_length", len(f.Data))

	if res := Probe(ctx, c, uploadKnowledgeOp, f); !res.Exhausted {
		return res.Value.(string), true
	}

	raw, err := f.Decode()
	if err != nil {
		c.logger.Warn("skipping multipart upload", "file_name", f.Name, "error", err)
		return "", false
	}
	if res := Probe(ctx, c, uploadMultipartOp, multipartUpload{name: f.Name, raw: raw}); !res.Exhausted {
		return res.Value.(string), true
	}
	return "", false
}

type attachInput struct {
	fileIDs []string
	agentID string
}

var attachEndpoints = []string{
	"/knowledge_base/attach",
	"/knowledge-base/attach",
	"/knowledge_base/attach_files",
	"/knowledge-base/attach_files",
}

// Both payload shapes are tried across all endpoints, snake case first, so
// they are two operations rather than one endpoint-major table.
var attachOps = []Operation[attachInput]{
	{
		Name:      OpAttachKnowledge,
		Method:    http.MethodPost,
		Endpoints: attachEndpoints,
		Payloads: []Template[attachInput]{
			func(in attachInput) any { return map[string]any{"file_ids": in.fileIDs, "agent_id": in.agentID} },
		},
		Extract: Truthy(),
	},
	{
		Name:      OpAttachKnowledge,
		Method:    http.MethodPost,
		Endpoints: attachEndpoints,
		Payloads: []Template[attachInput]{
			func(in attachInput) any { return map[string]any{"fileIds": in.fileIDs, "agentId": in.agentID} },
		},
		Extract: Truthy(),
	},
}

// AttachKnowledgeToAgent links uploaded files to an agent. It returns the
// provider's response document, or false when every attempt failed. A 2xx
// reply with a null, false, zero or empty-string body counts as a failure.
func (c *Client) AttachKnowledgeToAgent(ctx context.Context, fileIDs []string, agentID string) (any, bool) {
	c.logger.Info("attaching knowledge files", "agent_id", agentID, "files", len(fileIDs))

	in := attachInput{fileIDs: fileIDs, agentID: agentID}
	for _, op := range attachOps {
		if res := Probe(ctx, c, op, in); !res.Exhausted {
			return res.Value, true
		}
	}
	return nil, false
}
