package classifier

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Result is a normalised classification payload. Payload is persisted
// verbatim as the document data.
type Result struct {
	Payload map[string]any
}

// ClassID returns documentClassId, falling back to type.
func (r *Result) ClassID() string {
	if r == nil {
		return ""
	}
	if id := r.stringValue("documentClassId"); id != "" {
		return id
	}
	return r.stringValue("type")
}

// Confidence returns the numeric confidence, or 0 when absent.
func (r *Result) Confidence() float64 {
	if r == nil {
		return 0
	}
	switch v := r.Payload["confidence"].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return 0
	}
}

// Section returns the named object property, or an empty map.
func (r *Result) Section(name string) map[string]any {
	if r == nil {
		return map[string]any{}
	}
	if m, ok := r.Payload[name].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Set stores a top-level payload value.
func (r *Result) Set(key string, value any) {
	if r.Payload == nil {
		r.Payload = map[string]any{}
	}
	r.Payload[key] = value
}

// JSON encodes the payload.
func (r *Result) JSON() ([]byte, error) {
	if r == nil || r.Payload == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.Payload)
}

func (r *Result) stringValue(key string) string {
	return Text(r.Payload[key])
}

// Text renders a scalar payload value as trimmed text. Missing values, nulls
// and objects yield "".
func Text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64, bool, json.Number:
		return strings.TrimSpace(fmt.Sprint(v))
	default:
		return ""
	}
}
