// Package render turns classified upstream payloads into a renderer-agnostic
// tree of display nodes. The tree says what to show; how it is drawn belongs
// to whatever presentation layer consumes the API.
package render

// Kind discriminates display node types.
type Kind string

const (
	// KindGroup is a container of child nodes with an optional label.
	KindGroup Kind = "group"
	// KindField is a labeled value row.
	KindField Kind = "field"
	// KindText is plain display text.
	KindText Kind = "text"
	// KindBadge is a short highlighted token (status, page counters).
	KindBadge Kind = "badge"
	// KindCurrency is a currency-formatted amount.
	KindCurrency Kind = "currency"
	// KindThumbnail is an image URL rendered as thumbnail plus raw value.
	KindThumbnail Kind = "thumbnail"
	// KindJSON is pretty-printed raw JSON text.
	KindJSON Kind = "json"
)

// Tone hints at emphasis without prescribing styling.
type Tone string

const (
	ToneNone   Tone = ""
	ToneCredit Tone = "credit"
	ToneDebit  Tone = "debit"
	TonePaid   Tone = "paid"
	ToneMuted  Tone = "muted"
	ToneMono   Tone = "mono"
)

// Node is one element of the display tree.
type Node struct {
	Kind     Kind   `json:"kind"`
	Label    string `json:"label,omitempty"`
	Value    string `json:"value,omitempty"`
	Tone     Tone   `json:"tone,omitempty"`
	Variant  string `json:"variant,omitempty"`
	Children []Node `json:"children,omitempty"`
}

func group(variant string, children ...Node) Node {
	return Node{Kind: KindGroup, Variant: variant, Children: children}
}

func field(label, value string) Node {
	return Node{Kind: KindField, Label: label, Value: value}
}

func badge(value string) Node {
	return Node{Kind: KindBadge, Value: value}
}

// Span is one run of an assistant message body. Bold runs come from **bold**
// markup, the only inline markup interpreted at this layer.
type Span struct {
	Text string `json:"text"`
	Bold bool   `json:"bold,omitempty"`
}
