package chat

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DeliveryState tracks the two-phase append lifecycle of a turn: a message is
// written provisionally while its upstream request is in flight and settled
// (or failed) once the request resolves.
type DeliveryState string

const (
	DeliveryPending DeliveryState = "pending"
	DeliverySettled DeliveryState = "settled"
	DeliveryFailed  DeliveryState = "failed"
)

// Message is one turn in a conversation, immutable once appended except for
// its delivery state.
//
// ToolResponse keeps the upstream workflow's tool payloads as raw JSON so
// their source key order survives persistence and re-render; IntentAnalyzer
// and RuntimePrompt carry the loosely-typed side-channel payloads verbatim.
// Interpretation happens in the analysis and render packages, never here.
type Message struct {
	ID             string            `json:"id"`
	Role           Role              `json:"role"`
	Text           string            `json:"text"`
	Timestamp      time.Time         `json:"timestamp"`
	State          DeliveryState     `json:"state,omitempty"`
	ToolResponse   []json.RawMessage `json:"toolResponse,omitempty"`
	IntentAnalyzer map[string]any    `json:"intentAnalyzer,omitempty"`
	RuntimePrompt  any               `json:"runtimePrompt,omitempty"`
	Error          string            `json:"error,omitempty"`
}

// Failed reports whether the turn carries an error. A failed message still
// carries best-effort display text.
func (m Message) Failed() bool {
	return m.Error != ""
}
