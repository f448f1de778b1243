// Package conversation turns a user-typed message plus session state into an
// upstream request, dispatches it, and folds the response into a new
// assistant message on the originating session.
package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/modelmatrix/ava-console/internal/analysis/runtime"
	"github.com/modelmatrix/ava-console/internal/model/chat"
	"github.com/modelmatrix/ava-console/internal/service/session"
	"github.com/modelmatrix/ava-console/internal/upstream"
)

// Fallback display texts for assistant turns without extractable content.
const (
	textToolDataRetrieved = "Retrieved data from tool call"
	textProcessed         = "Response processed successfully"
	textRequestFailed     = "Error processing request"
)

// Upstream dispatches one conversation request. Satisfied by
// *upstream.Client.
type Upstream interface {
	Send(ctx context.Context, request any) (upstream.Envelope, error)
}

// Service is the conversation orchestrator.
type Service struct {
	sessions *session.Service
	upstream Upstream
}

// NewService wires the orchestrator to its session store and upstream client.
func NewService(sessions *session.Service, up Upstream) *Service {
	return &Service{sessions: sessions, upstream: up}
}

// Send runs the full per-message state machine: optimistic user append,
// request-shape selection, dispatch, response fold, persist. Upstream
// failures are not returned; they settle into an assistant message carrying
// an error, appended to the originating session. The error return is
// reserved for unknown sessions.
func (s *Service) Send(ctx context.Context, sessionID, text string) (chat.Message, error) {
	// Snapshot before the optimistic append: the request shape depends on
	// whether the session had any user message before this one.
	snapshot, err := s.sessions.Get(sessionID)
	if err != nil {
		return chat.Message{}, err
	}
	firstTurn := !snapshot.HasUserMessage()

	userMessage, err := s.sessions.Append(sessionID, chat.Message{
		Role:  chat.RoleUser,
		Text:  text,
		State: chat.DeliveryPending,
	}, "")
	if err != nil {
		return chat.Message{}, err
	}

	var request any
	if firstTurn {
		request = upstream.FirstTurnRequest{
			FirstMessage: text,
			SessionID:    sessionID,
			Model:        snapshot.ModelID,
		}
	} else {
		request = upstream.FollowUpRequest{
			FirstMessage:        nil,
			CurrentAgent:        snapshot.CurrentAgent,
			SessionID:           sessionID,
			Model:               snapshot.ModelID,
			Messages:            serializeTranscript(append(snapshot.Messages, userMessage)),
			IntentSystemPrompt:  snapshot.IntentSystemPrompt,
			RuntimeSystemPrompt: snapshot.RuntimeSystemPrompt,
		}
	}

	envelope, err := s.upstream.Send(ctx, request)
	if err != nil {
		log.Printf("[conversation] upstream request failed for session=%s: %v", sessionID, err)
		s.settle(sessionID, userMessage.ID, chat.DeliveryFailed)
		failed := chat.Message{
			Role:  chat.RoleAssistant,
			Text:  textRequestFailed,
			Error: err.Error(),
			State: chat.DeliveryFailed,
		}
		// The response is folded into the session the request originated
		// from, which may no longer be the active one.
		return s.sessions.Append(sessionID, failed, "")
	}

	s.settle(sessionID, userMessage.ID, chat.DeliverySettled)

	assistant := chat.Message{
		Role:           chat.RoleAssistant,
		Text:           extractAssistantText(envelope),
		State:          chat.DeliverySettled,
		ToolResponse:   envelope.ToolResponse,
		IntentAnalyzer: envelope.IntentAnalyzer,
		RuntimePrompt:  envelope.RuntimePrompt,
		Error:          envelope.Error,
	}
	return s.sessions.Append(sessionID, assistant, extractAgent(envelope))
}

func (s *Service) settle(sessionID, messageID string, state chat.DeliveryState) {
	if err := s.sessions.SetMessageState(sessionID, messageID, state); err != nil {
		log.Printf("[conversation] failed to settle message %s: %v", messageID, err)
	}
}

// serializeTranscript re-serializes the conversation as {role, content}
// pairs. Assistant turns that carried tool data get that JSON appended as a
// fenced block so the upstream model keeps tool-call context across turns.
func serializeTranscript(messages []chat.Message) []upstream.ConversationMessage {
	out := make([]upstream.ConversationMessage, 0, len(messages))
	for _, m := range messages {
		content := m.Text
		if m.Role == chat.RoleAssistant && len(m.ToolResponse) > 0 {
			if data, err := json.Marshal(m.ToolResponse); err == nil {
				content = content + "\n\n```json\n" + string(data) + "\n```"
			}
		}
		out = append(out, upstream.ConversationMessage{Role: string(m.Role), Content: content})
	}
	return out
}

// extractAgent picks the agent that should own the next turn: the intent
// analyzer's selection, else the first tool call name among the runtime
// steps, else empty (agent unchanged).
func extractAgent(envelope upstream.Envelope) string {
	if agent, ok := envelope.IntentAnalyzer["MTX_SELECTED_AGENT"].(string); ok && agent != "" {
		return agent
	}
	for _, step := range runtime.Steps(envelope.RuntimePrompt) {
		calls, ok := step["tool_calls"].([]any)
		if !ok || len(calls) == 0 {
			continue
		}
		call, ok := calls[0].(map[string]any)
		if !ok {
			continue
		}
		fn, ok := call["function"].(map[string]any)
		if !ok {
			continue
		}
		if name, ok := fn["name"].(string); ok && name != "" {
			return name
		}
	}
	return ""
}

// extractAssistantText walks the display-text priority chain over the
// envelope; the first non-empty candidate wins.
func extractAssistantText(envelope upstream.Envelope) string {
	steps := runtime.Steps(envelope.RuntimePrompt)

	for _, step := range steps {
		if content, ok := step["content"].(string); ok {
			if text := runtime.StripThink(content); text != "" {
				return text
			}
		}
	}
	for _, step := range steps {
		message, ok := step["message"].(map[string]any)
		if !ok {
			continue
		}
		if content, ok := message["content"].(string); ok {
			if text := runtime.StripThink(content); text != "" {
				return text
			}
		}
	}
	if reasoning, ok := envelope.IntentAnalyzer["MTX_REASONING"].(string); ok && reasoning != "" {
		return reasoning
	}
	// Legacy single-step contract: a bare response field. Kept as a
	// low-priority fallback because live workflows may still emit it.
	for _, step := range steps {
		if response, ok := step["response"]; ok && response != nil {
			if text := runtime.StripThink(fmt.Sprintf("%v", response)); text != "" {
				return text
			}
		}
	}
	if len(envelope.ToolResponse) > 0 {
		return textToolDataRetrieved
	}
	return textProcessed
}
