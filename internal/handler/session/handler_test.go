package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/modelmatrix/ava-console/internal/model/chat"
	"github.com/modelmatrix/ava-console/internal/service/conversation"
	sessionService "github.com/modelmatrix/ava-console/internal/service/session"
	"github.com/modelmatrix/ava-console/internal/store"
	"github.com/modelmatrix/ava-console/internal/upstream"
)

type stubUpstream struct {
	envelope upstream.Envelope
}

func (s *stubUpstream) Send(context.Context, any) (upstream.Envelope, error) {
	return s.envelope, nil
}

func setupRouter(envelope upstream.Envelope) (*chi.Mux, *sessionService.Service) {
	sessions := sessionService.NewService(store.NewMemory(), nil)
	conversations := conversation.NewService(sessions, &stubUpstream{envelope: envelope})
	handler := New(sessions, conversations)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, sessions
}

func TestListSessionsBootstraps(t *testing.T) {
	r, sessions := setupRouter(upstream.Envelope{})

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload struct {
		Sessions        []chat.Session `json:"sessions"`
		ActiveSessionID string         `json:"activeSessionId"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Sessions) != 1 {
		t.Fatalf("expected one bootstrapped session, got %d", len(payload.Sessions))
	}
	if payload.ActiveSessionID != sessions.ActiveID() {
		t.Errorf("active ID mismatch: %q", payload.ActiveSessionID)
	}
}

func TestCreateAndDeleteSession(t *testing.T) {
	r, sessions := setupRouter(upstream.Envelope{})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/sessions", nil))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var created chat.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID != sessions.ActiveID() {
		t.Error("created session should become active")
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/sessions/"+created.ID, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if sessions.ActiveID() == created.ID {
		t.Error("deleted session still active")
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/sessions/nope", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", resp.Code)
	}
}

func TestSetModelAndPrompts(t *testing.T) {
	r, sessions := setupRouter(upstream.Envelope{})
	id := sessions.ActiveID()

	body := bytes.NewReader([]byte(`{"model":"gpt-4o"}`))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/sessions/"+id+"/model", body))
	if resp.Code != http.StatusOK {
		t.Fatalf("set model: expected 200, got %d", resp.Code)
	}

	body = bytes.NewReader([]byte(`{"intentSystemPrompt":"a","runtimeSystemPrompt":"b"}`))
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/sessions/"+id+"/prompts", body))
	if resp.Code != http.StatusOK {
		t.Fatalf("set prompts: expected 200, got %d", resp.Code)
	}

	got, err := sessions.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ModelID != "gpt-4o" || got.IntentSystemPrompt != "a" || got.RuntimeSystemPrompt != "b" {
		t.Errorf("mutations not applied: %+v", got)
	}
}

func TestSendMessageReturnsView(t *testing.T) {
	r, _ := setupRouter(upstream.Envelope{
		ToolResponse: []json.RawMessage{
			json.RawMessage(`{"TransactionId": "TX-1", "Amount": 150.0, "Currency": "USD"}`),
		},
		RuntimePrompt: []any{map[string]any{
			"content": "<think>look up</think>Here is your **latest** transaction.",
			"usage":   map[string]any{"total_tokens": 42.0},
		}},
	})
	sessionsResp := httptest.NewRecorder()
	r.ServeHTTP(sessionsResp, httptest.NewRequest(http.MethodGet, "/sessions", nil))
	var listing struct {
		ActiveSessionID string `json:"activeSessionId"`
	}
	if err := json.Unmarshal(sessionsResp.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}

	body := bytes.NewReader([]byte(`{"text":"show my last transaction"}`))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/sessions/"+listing.ActiveSessionID+"/messages", body))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Message chat.Message `json:"message"`
		View    MessageView  `json:"view"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Message.Role != chat.RoleAssistant {
		t.Fatalf("expected assistant message, got %s", payload.Message.Role)
	}
	if len(payload.View.ToolResponses) != 1 {
		t.Fatalf("expected one tool view, got %d", len(payload.View.ToolResponses))
	}
	if got := string(payload.View.ToolResponses[0].Variant); got != "transaction" {
		t.Errorf("variant = %q, want transaction", got)
	}
	if len(payload.View.Body) < 2 {
		t.Errorf("bold markup should split the body, got %+v", payload.View.Body)
	}
	if len(payload.View.Usages) != 1 || payload.View.Usages[0].TotalTokens != 42 {
		t.Errorf("usage not surfaced: %+v", payload.View.Usages)
	}
}

func TestSendMessageValidation(t *testing.T) {
	r, sessions := setupRouter(upstream.Envelope{})
	id := sessions.ActiveID()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/messages", bytes.NewReader([]byte(`{}`))))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty text, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/sessions/nope/messages", bytes.NewReader([]byte(`{"text":"hi"}`))))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", resp.Code)
	}
}

func TestMessageView(t *testing.T) {
	r, sessions := setupRouter(upstream.Envelope{})
	id := sessions.ActiveID()
	message, err := sessions.Append(id, chat.Message{
		Role:  chat.RoleUser,
		Text:  "hello",
		State: chat.DeliverySettled,
	}, "")
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/messages/"+message.ID+"/view", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/messages/nope/view", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown message, got %d", resp.Code)
	}
}

func TestPromptDefaults(t *testing.T) {
	r, _ := setupRouter(upstream.Envelope{})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/prompts/defaults", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var defaults conversation.PromptDefaults
	if err := json.Unmarshal(resp.Body.Bytes(), &defaults); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if defaults.IntentSystemPrompt == "" || defaults.RuntimeSystemPrompt == "" {
		t.Error("defaults should not be empty")
	}
}
