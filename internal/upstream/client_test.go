package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseEnvelopeAliases(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"current aliases", `{"Tool_Request_Response": [{"a": 1}], "RunTime_Prompt_Response": {"content": "hi"}}`},
		{"legacy aliases", `{"Tool_Call_Response": [{"a": 1}], "Runtime_Prompt_Response": {"content": "hi"}}`},
		{"array wrapped", `[{"Tool_Call_Response": [{"a": 1}], "Runtime_Prompt_Response": {"content": "hi"}}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			envelope := ParseEnvelope(json.RawMessage(tc.body))
			if len(envelope.ToolResponse) != 1 {
				t.Fatalf("expected tool response, got %+v", envelope)
			}
			if envelope.RuntimePrompt == nil {
				t.Fatalf("expected runtime prompt, got %+v", envelope)
			}
		})
	}
}

func TestParseEnvelopeAliasPriority(t *testing.T) {
	envelope := ParseEnvelope(json.RawMessage(`{
		"Tool_Request_Response": [{"winner": true}],
		"Tool_Call_Response": [{"winner": false}],
		"RunTime_Prompt_Response": {"content": "new"},
		"Runtime_Prompt_Response": {"content": "old"}
	}`))
	var first map[string]any
	if err := json.Unmarshal(envelope.ToolResponse[0], &first); err != nil {
		t.Fatalf("bad tool item: %v", err)
	}
	if first["winner"] != true {
		t.Fatalf("Tool_Request_Response must win over Tool_Call_Response, got %v", first)
	}
	prompt, _ := envelope.RuntimePrompt.(map[string]any)
	if prompt["content"] != "new" {
		t.Fatalf("RunTime_Prompt_Response must win, got %v", prompt)
	}
}

func TestParseEnvelopeNullAliasFallsThrough(t *testing.T) {
	envelope := ParseEnvelope(json.RawMessage(`{
		"Tool_Request_Response": null,
		"Tool_Call_Response": [{"AccountId": "A1"}],
		"RunTime_Prompt_Response": null,
		"Runtime_Prompt_Response": {"content": "hi"}
	}`))
	if len(envelope.ToolResponse) != 1 {
		t.Fatalf("null alias must not shadow the populated one, got %+v", envelope)
	}
	var item map[string]any
	if err := json.Unmarshal(envelope.ToolResponse[0], &item); err != nil {
		t.Fatalf("bad tool item: %v", err)
	}
	if item["AccountId"] != "A1" {
		t.Fatalf("expected Tool_Call_Response data, got %v", item)
	}
	prompt, _ := envelope.RuntimePrompt.(map[string]any)
	if prompt["content"] != "hi" {
		t.Fatalf("expected Runtime_Prompt_Response data, got %v", envelope.RuntimePrompt)
	}
}

func TestParseEnvelopeToolUnwrap(t *testing.T) {
	envelope := ParseEnvelope(json.RawMessage(`{"Tool_Call_Response": [
		{"json": {"AccountId": "A1"}},
		{"plain": true},
		"scalar"
	]}`))
	if len(envelope.ToolResponse) != 3 {
		t.Fatalf("expected 3 items, got %d", len(envelope.ToolResponse))
	}
	var unwrapped map[string]any
	if err := json.Unmarshal(envelope.ToolResponse[0], &unwrapped); err != nil {
		t.Fatalf("bad tool item: %v", err)
	}
	if unwrapped["AccountId"] != "A1" {
		t.Fatalf("expected json envelope unwrapped, got %s", envelope.ToolResponse[0])
	}
	var scalar any
	if err := json.Unmarshal(envelope.ToolResponse[2], &scalar); err != nil {
		t.Fatalf("bad tool item: %v", err)
	}
	if scalar != "scalar" {
		t.Fatalf("scalars must pass through, got %v", scalar)
	}
}

func TestParseEnvelopeToolError(t *testing.T) {
	envelope := ParseEnvelope(json.RawMessage(`{"Tool_Call_Response": {"error": "account not found"}}`))
	if envelope.Error != "account not found" {
		t.Fatalf("expected error lifted, got %q", envelope.Error)
	}

	envelope = ParseEnvelope(json.RawMessage(`{"Tool_Call_Response": {"error": {"code": 404}}}`))
	if envelope.Error != `{"code":404}` {
		t.Fatalf("expected structured error stringified, got %q", envelope.Error)
	}
}

func TestParseEnvelopeMalformed(t *testing.T) {
	for _, body := range []string{"", "null", `"text"`, "1", "[]", "{broken"} {
		envelope := ParseEnvelope(json.RawMessage(body))
		if envelope.ToolResponse != nil || envelope.RuntimePrompt != nil || envelope.IntentAnalyzer != nil {
			t.Fatalf("expected empty envelope for %q, got %+v", body, envelope)
		}
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [{"id": "llama-3.3-70b"}, {"id": "qwen/qwen3-32b"}]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{ModelsURL: srv.URL}, nil)
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("list models failed: %v", err)
	}
	if len(models) != 2 || models[1] != "qwen/qwen3-32b" {
		t.Fatalf("unexpected models: %v", models)
	}
}

func TestSendNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(Config{WebhookURL: srv.URL}, nil)
	if _, err := client.Send(context.Background(), FirstTurnRequest{FirstMessage: "hi"}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestSendEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(Config{WebhookURL: srv.URL}, nil)
	if _, err := client.Send(context.Background(), FirstTurnRequest{FirstMessage: "hi"}); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestSendDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req FirstTurnRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.FirstMessage != "What's my balance?" {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"Intent_Analyzer_Response": {"MTX_SELECTED_AGENT": "BillingAgent"}}]`))
	}))
	defer srv.Close()

	client := NewClient(Config{WebhookURL: srv.URL}, nil)
	envelope, err := client.Send(context.Background(), FirstTurnRequest{FirstMessage: "What's my balance?"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if envelope.IntentAnalyzer["MTX_SELECTED_AGENT"] != "BillingAgent" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
}

func TestTestCaseAccessors(t *testing.T) {
	tc := TestCase{"TESTCASE_NUMBER": "TC0007", "MTX_USER_QUERY": "show my bills"}
	if tc.ID() != "TC0007" {
		t.Fatalf("unexpected id: %q", tc.ID())
	}
	if tc.Input() != "show my bills" {
		t.Fatalf("unexpected input: %q", tc.Input())
	}

	tc = TestCase{"MTX_SESSION_ID": 42.0, "INPUT": "first", "USER_PROMPT": "second"}
	if tc.ID() != "42" {
		t.Fatalf("expected numeric id stringified, got %q", tc.ID())
	}
	if tc.Input() != "first" {
		t.Fatalf("INPUT must win the alias chain, got %q", tc.Input())
	}
}
