package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Name identifies a provider operation in logs and traces.
type Name string

const (
	OpCreateAgent       Name = "create_agent"
	OpFindAgent         Name = "find_agent"
	OpUploadKnowledge   Name = "upload_knowledge"
	OpAttachKnowledge   Name = "attach_knowledge"
	OpSendChatMessage   Name = "send_chat_message"
	OpDispatchVoiceCall Name = "dispatch_voice_call"
)

// Encoding selects how a payload is written on the wire.
type Encoding int

const (
	EncodingJSON Encoding = iota
	EncodingMultipart
)

// Template builds one candidate request body from the operation input.
// A nil body means the request is sent without one.
type Template[I any] func(in I) any

// MultipartFile is the body produced by templates of multipart operations.
type MultipartFile struct {
	Field    string
	FileName string
	Data     []byte
}

// Operation is a declarative table of candidate endpoints and payload shapes.
// Endpoints may contain {placeholders} filled from PathParams.
type Operation[I any] struct {
	Name       Name
	Method     string
	Encoding   Encoding
	Endpoints  []string
	Payloads   []Template[I]
	PathParams func(in I) map[string]string
	Extract    Extractor
}

// Result is the outcome of a whole operation: the first successful attempt's
// value, or Exhausted when every attempt failed.
type Result struct {
	Value     any
	Exhausted bool
	Endpoint  string
	Attempts  int
}

// Probe tries every (endpoint, payload) pair of op in declared order, endpoint
// in the outer loop, and stops at the first success. Each pair is attempted at
// most once. Remote failures never surface as errors; they end in Exhausted.
func Probe[I any](ctx context.Context, c *Client, op Operation[I], in I) Result {
	ctx, cancel := context.WithTimeout(ctx, c.operationDeadline)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "provider."+string(op.Name),
		trace.WithAttributes(
			attribute.Int("probe.endpoints", len(op.Endpoints)),
			attribute.Int("probe.payloads", len(op.Payloads)),
		),
	)
	defer span.End()

	paths := pathReplacer(op, in)
	method := op.Method
	if method == "" {
		method = http.MethodPost
	}

	attempts := 0
	for _, endpoint := range op.Endpoints {
		url := c.baseURL + paths.Replace(endpoint)
		for shape, tmpl := range op.Payloads {
			if err := ctx.Err(); err != nil {
				c.logger.Warn("provider operation deadline reached",
					"operation", op.Name, "attempts", attempts, "error", err)
				span.SetStatus(codes.Error, "deadline reached")
				return Result{Exhausted: true, Attempts: attempts}
			}

			attempts++
			res := c.attempt(ctx, attemptSpec{
				op:       op.Name,
				method:   method,
				encoding: op.Encoding,
				url:      url,
				shape:    shape,
				body:     tmpl(in),
				extract:  op.Extract,
			})
			if res.OK() {
				span.SetAttributes(attribute.String("probe.endpoint", url), attribute.Int("probe.attempts", attempts))
				c.logger.Info("provider operation succeeded",
					"operation", op.Name, "endpoint", url, "shape", shape, "attempts", attempts)
				return Result{Value: res.Value, Endpoint: url, Attempts: attempts}
			}
		}
	}

	span.SetStatus(codes.Error, "exhausted")
	c.logger.Warn("provider operation exhausted", "operation", op.Name, "attempts", attempts)
	return Result{Exhausted: true, Attempts: attempts}
}

func pathReplacer[I any](op Operation[I], in I) *strings.Replacer {
	if op.PathParams == nil {
		return strings.NewReplacer()
	}
	var pairs []string
	for k, v := range op.PathParams(in) {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...)
}

type attemptSpec struct {
	op       Name
	method   string
	encoding Encoding
	url      string
	shape    int
	body     any
	extract  Extractor
}

func (c *Client) attempt(ctx context.Context, a attemptSpec) AttemptResult {
	ctx, span := c.tracer.Start(ctx, "provider.attempt",
		trace.WithAttributes(
			attribute.String("provider.operation", string(a.op)),
			attribute.String("http.url", a.url),
			attribute.Int("probe.shape", a.shape),
		),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	start := time.Now()
	res, keys := c.send(ctx, a)
	latency := time.Since(start)

	span.SetAttributes(attribute.String("probe.outcome", res.Outcome.String()), attribute.Int("http.status_code", res.Status))
	if !res.OK() {
		span.SetStatus(codes.Error, res.Outcome.String())
	}

	attrs := []any{
		"operation", a.op,
		"method", a.method,
		"endpoint", a.url,
		"shape", a.shape,
		"payload_keys", keys,
		"outcome", res.Outcome.String(),
		"status", res.Status,
		"latency_ms", latency.Milliseconds(),
	}
	if res.Err != nil {
		attrs = append(attrs, "error", res.Err)
	}
	if res.Outcome == OutcomeRejected {
		attrs = append(attrs, "body", snippet(res.Body))
	}
	c.logger.Debug("provider attempt", attrs...)
	return res
}

func (c *Client) send(ctx context.Context, a attemptSpec) (AttemptResult, []string) {
	body, contentType, keys, err := encodeBody(a.encoding, a.body)
	if err != nil {
		return AttemptResult{Outcome: OutcomeTransport, Err: fmt.Errorf("encoding payload: %w", err)}, keys
	}

	req, err := http.NewRequestWithContext(ctx, a.method, a.url, body)
	if err != nil {
		return AttemptResult{Outcome: OutcomeTransport, Err: fmt.Errorf("creating request: %w", err)}, keys
	}
	c.setHeaders(req, contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return AttemptResult{Outcome: OutcomeTransport, Err: fmt.Errorf("executing request: %w", err)}, keys
	}
	return interpretResponse(resp, a.extract), keys
}

func encodeBody(enc Encoding, payload any) (io.Reader, string, []string, error) {
	if enc == EncodingMultipart {
		f, ok := payload.(MultipartFile)
		if !ok {
			return nil, "", nil, fmt.Errorf("multipart payload has type %T", payload)
		}
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile(f.Field, f.FileName)
		if err != nil {
			return nil, "", nil, err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", nil, err
		}
		if err := w.Close(); err != nil {
			return nil, "", nil, err
		}
		return &buf, w.FormDataContentType(), []string{f.Field}, nil
	}

	if payload == nil {
		return nil, "application/json", nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, "", nil, err
	}
	return bytes.NewReader(raw), "application/json", payloadKeys(raw), nil
}

// payloadKeys lists the top-level keys of a JSON object body. Values are
// never logged.
func payloadKeys(raw []byte) []string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func readLimited(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
}

func snippet(b []byte) string {
	const max = 300
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
