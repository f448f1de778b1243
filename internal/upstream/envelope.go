package upstream

import (
	"bytes"
	"encoding/json"
)

// Alias table for the upstream response keys. The webhook contract went
// through at least two versions; every known historical alias is adapted to
// one canonical envelope here, in priority order, so the rest of the engine
// never branches on key spelling.
var (
	toolResponseAliases  = []string{"Tool_Request_Response", "Tool_Call_Response"}
	runtimePromptAliases = []string{"RunTime_Prompt_Response", "Runtime_Prompt_Response"}
	intentAnalyzerAlias  = "Intent_Analyzer_Response"
)

// Envelope is the canonical, alias-free view of one webhook response. Tool
// response items stay as raw JSON so the renderer can recover the source key
// order later; the other sections are consumed as decoded values.
type Envelope struct {
	ToolResponse   []json.RawMessage
	IntentAnalyzer map[string]any
	RuntimePrompt  any
	// Error carries the tool response's error field, stringified.
	Error string
}

// ParseEnvelope normalizes a raw webhook response body. The body is a single
// object or an array whose first element is the object; anything else yields
// an empty envelope.
func ParseEnvelope(body json.RawMessage) Envelope {
	body = bytes.TrimSpace(body)
	if bytes.HasPrefix(body, []byte("[")) {
		var list []json.RawMessage
		if err := json.Unmarshal(body, &list); err != nil || len(list) == 0 {
			return Envelope{}
		}
		body = list[0]
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return Envelope{}
	}

	var envelope Envelope
	if raw, ok := firstAlias(obj, toolResponseAliases); ok {
		envelope.Error = toolError(raw)
		envelope.ToolResponse = normalizeToolResponse(raw)
	}
	if raw, ok := obj[intentAnalyzerAlias]; ok {
		var intent map[string]any
		if err := json.Unmarshal(raw, &intent); err == nil && intent != nil {
			envelope.IntentAnalyzer = intent
		}
	}
	if raw, ok := firstAlias(obj, runtimePromptAliases); ok {
		var prompt any
		if err := json.Unmarshal(raw, &prompt); err == nil {
			envelope.RuntimePrompt = prompt
		}
	}
	return envelope
}

// firstAlias resolves an alias chain to its first non-null entry. A key
// explicitly set to null must not shadow a populated later alias.
func firstAlias(obj map[string]json.RawMessage, aliases []string) (json.RawMessage, bool) {
	for _, key := range aliases {
		if raw, ok := obj[key]; ok && !isNull(raw) {
			return raw, true
		}
	}
	return nil, false
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// normalizeToolResponse wraps a bare object into a single-element list and
// unwraps the common {"json": ...} envelope each element may arrive in.
func normalizeToolResponse(raw json.RawMessage) []json.RawMessage {
	var items []json.RawMessage
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
	} else {
		items = []json.RawMessage{raw}
	}

	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err == nil && obj != nil {
			if inner, ok := obj["json"]; ok {
				out = append(out, inner)
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

// toolError lifts an error field off the raw tool response, stringifying
// structured errors.
func toolError(raw json.RawMessage) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return ""
	}
	errRaw, ok := obj["error"]
	if !ok || isNull(errRaw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(errRaw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, errRaw); err != nil {
		return "tool call failed"
	}
	return buf.String()
}
