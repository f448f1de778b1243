package render

import (
	"encoding/json"
	"strings"
	"testing"
)

func labels(n Node) []string {
	out := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, c.Label)
	}
	return out
}

func TestRenderRawKeepsSourceOrder(t *testing.T) {
	node := RenderRaw(json.RawMessage(`{"zebra": "first-in-source", "apple": "second-in-source"}`))
	if node.Variant != "generic" {
		t.Fatalf("expected generic, got %s", node.Variant)
	}
	got := labels(node)
	if len(got) != 2 || got[0] != "zebra" || got[1] != "apple" {
		t.Fatalf("fields must keep encounter order, got %v", got)
	}
}

func TestRenderRawPriorityKeysStillFirst(t *testing.T) {
	node := RenderRaw(json.RawMessage(`{"zzz": 1, "Status": "active", "AccountId": "A1", "note": null}`))
	got := labels(node)
	want := []string{"AccountId", "Status", "zzz"}
	if len(got) != len(want) {
		t.Fatalf("null field must be skipped, got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestRenderRawNestedOrder(t *testing.T) {
	node := RenderRaw(json.RawMessage(`{"meta": {"zulu": 1, "alpha": 2}, "rows": [{"second": 2, "first": 1}]}`))

	var meta Node
	for _, c := range node.Children {
		if c.Label == "meta" {
			meta = c
		}
	}
	if meta.Kind != KindJSON {
		t.Fatalf("nested object must pretty-print, got %+v", meta)
	}
	if strings.Index(meta.Value, "zulu") > strings.Index(meta.Value, "alpha") {
		t.Fatalf("pretty-printed object must keep source order, got %q", meta.Value)
	}

	var rows Node
	for _, c := range node.Children {
		if c.Label == "rows" {
			rows = c
		}
	}
	if rows.Kind != KindGroup {
		t.Fatalf("object array must render as group, got %+v", rows)
	}
	item := rows.Children[1]
	got := labels(item)
	if len(got) != 2 || got[0] != "second" || got[1] != "first" {
		t.Fatalf("array item fields must keep encounter order, got %v", got)
	}
}

func TestRenderRawVariantDispatch(t *testing.T) {
	node := RenderRaw(json.RawMessage(`{"DateTime": "2026-03-01T09:30:00Z", "TransactionId": "T42", "Amount": 1500.0, "Currency": "EUR", "Description": "Salary"}`))
	if node.Variant != "transaction" {
		t.Fatalf("typed payloads must use their template, got %s", node.Variant)
	}
	amount, ok := findChild(node, "Amount")
	if !ok || amount.Value != "€1,500.00" {
		t.Fatalf("unexpected amount node: %+v", amount)
	}
}

func TestRenderRawPaginatedItemsKeepOrder(t *testing.T) {
	node := RenderRaw(json.RawMessage(`{
		"total": 1, "page": 1, "total_pages": 1,
		"items": [{"omega": "o", "alpha": "a"}]
	}`))
	if node.Variant != "paginated_response" {
		t.Fatalf("expected paginated variant, got %s", node.Variant)
	}
	item := node.Children[2]
	got := labels(item)
	if len(got) != 2 || got[0] != "omega" || got[1] != "alpha" {
		t.Fatalf("item fields must keep encounter order, got %v", got)
	}
}

func TestRenderRawNonObject(t *testing.T) {
	if n := RenderRaw(json.RawMessage(`"just text"`)); n.Kind != KindText || n.Value != "just text" {
		t.Fatalf("unexpected scalar render: %+v", n)
	}
	if n := RenderRaw(json.RawMessage(`{broken`)); n.Kind != KindText || n.Value != "{broken" {
		t.Fatalf("malformed payloads must pass through as text, got %+v", n)
	}
	n := RenderRaw(json.RawMessage(`[{"beta": 2, "alpha": 1}]`))
	if n.Kind != KindGroup || len(n.Children) != 1 {
		t.Fatalf("unexpected array render: %+v", n)
	}
	got := labels(n.Children[0])
	if len(got) != 2 || got[0] != "beta" {
		t.Fatalf("array element fields must keep encounter order, got %v", got)
	}
}
