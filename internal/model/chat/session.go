package chat

import "time"

// DefaultTitle is used until a session has its first user message.
const DefaultTitle = "New Chat"

// titleRuneLimit caps the derived title length before the ellipsis kicks in.
const titleRuneLimit = 30

// Session is one independent conversation thread. ModelID and CurrentAgent
// are empty until a model is selected / an upstream agent reveals itself.
type Session struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	ModelID             string    `json:"modelId"`
	CurrentAgent        string    `json:"currentAgent"`
	Messages            []Message `json:"messages"`
	IntentSystemPrompt  string    `json:"intentSystemPrompt,omitempty"`
	RuntimeSystemPrompt string    `json:"runtimeSystemPrompt,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// DeriveTitle computes the display title from the first user message: its
// first 30 characters, with an ellipsis when truncated, or DefaultTitle when
// no user message exists yet.
func DeriveTitle(messages []Message) string {
	for _, m := range messages {
		if m.Role != RoleUser {
			continue
		}
		runes := []rune(m.Text)
		if len(runes) <= titleRuneLimit {
			return m.Text
		}
		return string(runes[:titleRuneLimit]) + "…"
	}
	return DefaultTitle
}

// HasUserMessage reports whether the session has any user turn yet. The
// upstream request shape flips from first-message to follow-up once it does.
func (s Session) HasUserMessage() bool {
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			return true
		}
	}
	return false
}
