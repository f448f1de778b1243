// Package runtime interprets the runtime-prompt side channel of the upstream
// workflow: per-generation-step reasoning traces, tool calls, usage records
// and embedded widget directives.
//
// Every function in this package is total over arbitrary decoded JSON;
// malformed input degrades to "no contribution" instead of failing.
package runtime

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
)

// ToolCall is one tool invocation recorded by a generation step.
type ToolCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Extraction is the merged view over all generation steps of one response.
type Extraction struct {
	Widget     map[string]any   `json:"widget,omitempty"`
	Reasonings []string         `json:"reasonings"`
	ToolCalls  []ToolCall       `json:"toolCalls"`
	Usages     []map[string]any `json:"usages"`
	// FinalContent is the last non-empty, think-stripped content produced by
	// any step; later steps that only carry tool calls do not clear it.
	FinalContent string `json:"finalContent"`
}

var (
	thinkRe      = regexp.MustCompile(`(?is)<think>(.*?)</think>`)
	openThinkRe  = regexp.MustCompile(`(?i)^\s*<think>`)
	closeThinkRe = regexp.MustCompile(`(?i)</think>\s*$`)
	spaceRe      = regexp.MustCompile(`\s+`)
	fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
)

// dedupeKeyLimit bounds the prefix used to recognize near-identical
// reasoning strings.
const dedupeKeyLimit = 500

// Extract walks the runtime-prompt payload (a single step object or an array
// of them) in order and accumulates reasoning, tool calls, usage records, the
// first widget directive and the final visible content.
func Extract(data any) Extraction {
	out := Extraction{
		Reasonings: []string{},
		ToolCalls:  []ToolCall{},
		Usages:     []map[string]any{},
	}
	seen := map[string]bool{}

	for _, step := range Steps(data) {
		collectReasonings(step, seen, &out.Reasonings)

		if out.Widget == nil {
			out.Widget = findWidget(stepContent(step), 0)
		}

		if calls, ok := step["tool_calls"].([]any); ok {
			for _, entry := range calls {
				if call, ok := toolCallOf(entry); ok {
					out.ToolCalls = append(out.ToolCalls, call)
				}
			}
		}

		if usage, ok := step["usage"].(map[string]any); ok {
			out.Usages = append(out.Usages, usage)
		}

		if content := StripThink(contentString(step)); content != "" {
			out.FinalContent = content
		}
	}
	return out
}

// Steps normalizes the runtime-prompt payload to an ordered list of step
// objects. A bare object is a single step; anything else contributes nothing.
func Steps(data any) []map[string]any {
	switch v := data.(type) {
	case []any:
		steps := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if step, ok := item.(map[string]any); ok {
				steps = append(steps, step)
			}
		}
		return steps
	case map[string]any:
		return []map[string]any{v}
	default:
		return nil
	}
}

// StripThink removes <think>...</think> spans (including an unterminated
// leading block from a truncated stream) and trims the remainder. It is
// idempotent.
func StripThink(s string) string {
	if s == "" {
		return ""
	}
	stripped := thinkRe.ReplaceAllString(s, "")
	if openThinkRe.MatchString(stripped) {
		// Stream cut off before the closing tag: everything is reasoning.
		return ""
	}
	return strings.TrimSpace(stripped)
}

// thinkSpans extracts the reasoning carried inside think tags, supporting a
// leading unterminated block.
func thinkSpans(s string) []string {
	if s == "" {
		return nil
	}
	var spans []string
	for _, match := range thinkRe.FindAllStringSubmatch(s, -1) {
		spans = append(spans, match[1])
	}
	if len(spans) == 0 && openThinkRe.MatchString(s) {
		rest := openThinkRe.ReplaceAllString(s, "")
		rest = closeThinkRe.ReplaceAllString(rest, "")
		spans = append(spans, rest)
	}
	return spans
}

func collectReasonings(step map[string]any, seen map[string]bool, acc *[]string) {
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		key := dedupeKey(s)
		if seen[key] {
			return
		}
		seen[key] = true
		*acc = append(*acc, s)
	}

	if reasoning, ok := step["reasoning"].(string); ok {
		add(reasoning)
	}

	if details, ok := step["reasoning_details"].([]any); ok {
		for _, entry := range details {
			detail, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := detail["text"].(string); ok {
				add(text)
			}
			for _, text := range contentTexts(detail["content"]) {
				add(text)
			}
		}
	}

	if content, ok := step["content"].(string); ok {
		for _, span := range thinkSpans(content) {
			add(span)
		}
	}
	if message, ok := step["message"].(map[string]any); ok {
		if content, ok := message["content"].(string); ok {
			for _, span := range thinkSpans(content) {
				add(span)
			}
		}
	}
}

// contentTexts pulls displayable text out of a reasoning-detail content
// field, which upstream emits as a string or as an array of strings/objects.
func contentTexts(v any) []string {
	switch content := v.(type) {
	case string:
		return []string{content}
	case []any:
		var texts []string
		for _, item := range content {
			switch part := item.(type) {
			case string:
				texts = append(texts, part)
			case map[string]any:
				if text, ok := part["text"].(string); ok {
					texts = append(texts, text)
				} else if text, ok := part["content"].(string); ok {
					texts = append(texts, text)
				}
			}
		}
		return texts
	default:
		return nil
	}
}

// dedupeKey collapses whitespace and truncates so that re-emitted reasoning
// that differs only in formatting is recognized as the same entry.
func dedupeKey(s string) string {
	collapsed := strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	runes := []rune(collapsed)
	if len(runes) > dedupeKeyLimit {
		return string(runes[:dedupeKeyLimit])
	}
	return collapsed
}

func contentString(step map[string]any) string {
	if content, ok := step["content"].(string); ok {
		return content
	}
	if message, ok := step["message"].(map[string]any); ok {
		if content, ok := message["content"].(string); ok {
			return content
		}
	}
	return ""
}

// stepContent returns the value to scan for a widget directive: the step's
// content, falling back to message.content when absent.
func stepContent(step map[string]any) any {
	if content, ok := step["content"]; ok && content != nil {
		return content
	}
	if message, ok := step["message"].(map[string]any); ok {
		return message["content"]
	}
	return nil
}

const maxWidgetDepth = 8

// findWidget locates the first object whose type field mentions "widget",
// descending into arrays and objects and parsing candidate JSON strings
// (including fenced code blocks inside assistant prose).
func findWidget(v any, depth int) map[string]any {
	if depth > maxWidgetDepth {
		return nil
	}
	switch value := v.(type) {
	case map[string]any:
		if typ, ok := value["type"].(string); ok && strings.Contains(strings.ToLower(typ), "widget") {
			return value
		}
		// Map iteration order is random, so walk keys sorted to keep the
		// pick deterministic when siblings both hold widget-shaped objects.
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if w := findWidget(value[key], depth+1); w != nil {
				return w
			}
		}
	case []any:
		for _, item := range value {
			if w := findWidget(item, depth+1); w != nil {
				return w
			}
		}
	case string:
		trimmed := strings.TrimSpace(value)
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			var parsed any
			if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
				return findWidget(parsed, depth+1)
			}
		}
		for _, match := range fencedJSONRe.FindAllStringSubmatch(value, -1) {
			var parsed any
			if err := json.Unmarshal([]byte(match[1]), &parsed); err != nil {
				continue
			}
			if w := findWidget(parsed, depth+1); w != nil {
				return w
			}
		}
	}
	return nil
}

func toolCallOf(entry any) (ToolCall, bool) {
	obj, ok := entry.(map[string]any)
	if !ok {
		return ToolCall{}, false
	}
	fn, ok := obj["function"].(map[string]any)
	if !ok {
		return ToolCall{}, false
	}
	name, ok := fn["name"].(string)
	if !ok || name == "" {
		return ToolCall{}, false
	}
	call := ToolCall{Name: name, Arguments: "{}"}
	if args, ok := fn["arguments"].(string); ok && args != "" {
		call.Arguments = args
	}
	return call, true
}
