package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("empty classifier response")

// ParseResponse extracts the JSON object from model output and normalises
// it. Code fences and prose around the outermost braces are ignored.
// sourceName fills sourceFile when the model omitted it.
func ParseResponse(text, sourceName string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		if len(lines) >= 3 {
			text = strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
		}
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}

	var payload map[string]any
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}
	if payload == nil {
		return nil, fmt.Errorf("decode classifier response: expected a JSON object")
	}
	return &Result{Payload: normalize(payload, sourceName)}, nil
}

func normalize(payload map[string]any, sourceName string) map[string]any {
	content, ok := payload["content_properties"].(map[string]any)
	if !ok {
		content = map[string]any{}
	}
	typed, ok := payload["typed_properties"].(map[string]any)
	if !ok {
		typed = map[string]any{}
	}

	if title, _ := content["title"].(string); strings.TrimSpace(title) == "" {
		if legacy, ok := payload["title"].(string); ok && strings.TrimSpace(legacy) != "" {
			content["title"] = strings.TrimSpace(legacy)
		}
	}
	payload["content_properties"] = content
	payload["typed_properties"] = typed

	if _, ok := payload["sourceFile"]; !ok {
		payload["sourceFile"] = sourceName
	}
	if _, ok := payload["confidence"]; !ok {
		payload["confidence"] = 0.0
	}
	if _, ok := payload["documentClassId"]; !ok {
		classID := Text(payload["type"])
		if classID == "" {
			classID = "Unclassified"
		}
		payload["documentClassId"] = classID
	}
	return payload
}
