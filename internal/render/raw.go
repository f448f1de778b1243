package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelmatrix/ava-console/internal/analysis/shape"
)

// rawField is one key/value pair of a raw JSON object, in source position.
type rawField struct {
	key   string
	value json.RawMessage
}

// RenderRaw renders a tool payload from its raw JSON bytes. The typed variant
// templates have fixed field sets and go through the decoded renderers; generic
// and paginated payloads walk the raw bytes so fields display in the order the
// upstream workflow emitted them.
func RenderRaw(raw json.RawMessage) Node {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Node{Kind: KindText}
	}
	if trimmed[0] != '{' {
		var value any
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return Node{Kind: KindText, Value: string(trimmed)}
		}
		return renderValueRaw(trimmed, value)
	}

	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return Node{Kind: KindText, Value: string(trimmed)}
	}
	switch shape.Classify(obj) {
	case shape.PaginatedResponse:
		return renderListRaw(trimmed, obj)
	case shape.Generic:
		return renderGenericRaw(trimmed, obj)
	default:
		return Render(obj)
	}
}

func renderValueRaw(raw json.RawMessage, value any) Node {
	items, ok := value.([]any)
	if !ok {
		return Node{Kind: KindText, Value: coerce(value)}
	}
	elems, ok := rawElements(raw)
	if !ok {
		return RenderValue(value)
	}
	children := make([]Node, 0, len(elems))
	for _, elem := range elems {
		children = append(children, RenderRaw(elem))
	}
	n := group("list", children...)
	n.Label = fmt.Sprintf("%d items", len(items))
	return n
}

// renderGenericRaw mirrors renderGeneric but takes field order from the raw
// bytes: priority keys first, then the rest exactly as they appear in the
// source. Null-valued keys are skipped either way.
func renderGenericRaw(raw json.RawMessage, obj map[string]any) Node {
	fields, ok := rawFields(raw)
	if !ok {
		return renderGeneric(obj)
	}
	children := make([]Node, 0, len(fields))
	used := make([]bool, len(fields))
	for _, want := range priorityKeys {
		for i, f := range fields {
			if used[i] || !strings.EqualFold(f.key, want) {
				continue
			}
			used[i] = true
			if isNullRaw(f.value) {
				continue
			}
			children = append(children, renderGenericFieldRaw(f.key, f.value))
		}
	}
	for i, f := range fields {
		if used[i] || isNullRaw(f.value) {
			continue
		}
		children = append(children, renderGenericFieldRaw(f.key, f.value))
	}
	return group(string(shape.Generic), children...)
}

func renderGenericFieldRaw(key string, raw json.RawMessage) Node {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return field(key, string(raw))
	}
	switch v := value.(type) {
	case []any:
		if len(v) > 0 {
			if _, ok := v[0].(map[string]any); ok {
				elems, ok := rawElements(raw)
				if !ok {
					return renderGenericField(key, value)
				}
				children := []Node{badge(fmt.Sprintf("%d items", len(elems)))}
				for _, elem := range elems {
					children = append(children, RenderRaw(elem))
				}
				n := group("list", children...)
				n.Label = key
				return n
			}
		}
		return field(key, coerce(v))
	case map[string]any:
		return Node{Kind: KindJSON, Label: key, Value: prettyRaw(raw)}
	default:
		return renderGenericField(key, value)
	}
}

// renderListRaw renders a paginated response whose items keep their source
// field order. The pagination badges come from the decoded object; each item
// is re-walked from the raw bytes.
func renderListRaw(raw json.RawMessage, obj map[string]any) Node {
	fields, ok := rawFields(raw)
	if !ok {
		return RenderList(obj)
	}
	children := []Node{
		badge(fmt.Sprintf("%s results", coerce(obj["total"]))),
		badge(fmt.Sprintf("Page %s of %s", coerce(obj["page"]), coerce(obj["total_pages"]))),
	}
	for _, f := range fields {
		if f.key != "items" {
			continue
		}
		elems, ok := rawElements(f.value)
		if !ok {
			break
		}
		for _, elem := range elems {
			var itemObj map[string]any
			if err := json.Unmarshal(elem, &itemObj); err != nil {
				continue
			}
			if shape.Classify(itemObj) == shape.Transaction {
				children = append(children, renderTransaction(itemObj))
			} else {
				children = append(children, renderGenericRaw(elem, itemObj))
			}
		}
		break
	}
	return group(string(shape.PaginatedResponse), children...)
}

// rawFields tokenizes a raw JSON object and returns its fields in source
// order, which the decoded map[string]any form cannot preserve.
func rawFields(raw json.RawMessage) ([]rawField, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, false
	}
	var fields []rawField
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, false
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
		fields = append(fields, rawField{key: key, value: value})
	}
	return fields, true
}

// rawElements tokenizes a raw JSON array into its elements.
func rawElements(raw json.RawMessage) ([]json.RawMessage, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, false
	}
	var elems []json.RawMessage
	for dec.More() {
		var elem json.RawMessage
		if err := dec.Decode(&elem); err != nil {
			return nil, false
		}
		elems = append(elems, elem)
	}
	return elems, true
}

// prettyRaw indents raw JSON without decoding it, keeping key order intact.
func prettyRaw(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func isNullRaw(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
