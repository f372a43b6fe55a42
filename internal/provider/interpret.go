package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Outcome classifies a single attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	// OutcomeRejected is a non-2xx response.
	OutcomeRejected
	// OutcomeMalformed is a 2xx response whose body could not be parsed or
	// carried none of the fields the operation looks for.
	OutcomeMalformed
	// OutcomeTransport is a network-level error or timeout.
	OutcomeTransport
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRejected:
		return "rejected"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeTransport:
		return "transport_error"
	default:
		return "unknown"
	}
}

// AttemptResult is the outcome of one (endpoint, payload) attempt.
type AttemptResult struct {
	Outcome Outcome
	Value   any
	Status  int
	Body    []byte
	Err     error
}

// OK reports whether the attempt produced a usable value.
func (r AttemptResult) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// Extractor pulls the meaningful value out of a decoded JSON document.
// It returns false when the document does not carry what the operation needs.
type Extractor func(doc any) (any, bool)

// Interpret classifies an HTTP response and runs extract against its body.
// A nil extract accepts any parseable JSON body as the value.
func Interpret(status int, body []byte, extract Extractor) AttemptResult {
	if status < 200 || status > 299 {
		return AttemptResult{Outcome: OutcomeRejected, Status: status, Body: body}
	}

	doc, err := decodeJSON(body)
	if err != nil {
		return AttemptResult{
			Outcome: OutcomeMalformed,
			Status:  status,
			Body:    body,
			Err:     fmt.Errorf("decoding response: %w", err),
		}
	}

	if extract == nil {
		return AttemptResult{Outcome: OutcomeSuccess, Value: doc, Status: status, Body: body}
	}
	v, ok := extract(doc)
	if !ok {
		return AttemptResult{
			Outcome: OutcomeMalformed,
			Status:  status,
			Body:    body,
			Err:     fmt.Errorf("response has none of the expected fields"),
		}
	}
	return AttemptResult{Outcome: OutcomeSuccess, Value: v, Status: status, Body: body}
}

// interpretResponse reads and closes resp.Body, then interprets it.
func interpretResponse(resp *http.Response, extract Extractor) AttemptResult {
	defer resp.Body.Close()
	body, err := readLimited(resp)
	if err != nil {
		return AttemptResult{Outcome: OutcomeTransport, Status: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}
	return Interpret(resp.StatusCode, body, extract)
}

func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// FirstField returns an Extractor that tries each dotted path in order and
// yields the first present, non-empty scalar as a string.
func FirstField(paths ...string) Extractor {
	return func(doc any) (any, bool) {
		for _, p := range paths {
			if s, ok := scalarAt(doc, p); ok {
				return s, true
			}
		}
		return nil, false
	}
}

// WithDefault wraps e so a parseable body that lacks every expected field
// still succeeds with def.
func WithDefault(e Extractor, def any) Extractor {
	return func(doc any) (any, bool) {
		if v, ok := e(doc); ok {
			return v, true
		}
		return def, true
	}
}

// Truthy accepts any document except null, false, zero and the empty
// string, and returns it unchanged. Objects and arrays are always accepted,
// even when empty.
func Truthy() Extractor {
	return func(doc any) (any, bool) {
		switch v := doc.(type) {
		case nil:
			return nil, false
		case bool:
			return v, v
		case string:
			return v, v != ""
		case json.Number:
			f, err := v.Float64()
			return v, err == nil && f != 0
		default:
			return v, true
		}
	}
}

func lookup(doc any, path string) (any, bool) {
	cur := doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func scalarAt(doc any, path string) (string, bool) {
	v, ok := lookup(doc, path)
	if !ok {
		return "", false
	}
	return scalarString(v)
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case json.Number:
		return t.String(), t.String() != "0"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), t != 0
	default:
		return "", false
	}
}

func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
