// Package upstream talks to the externally hosted collaborators: the
// LLM-orchestration webhook, the model list provider and the batch test
// endpoints. Their payloads are treated as opaque JSON; only the envelope
// keys are interpreted here.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
)

// Config carries the upstream endpoint URLs.
type Config struct {
	ModelsURL    string
	WebhookURL   string
	TestCasesURL string
	BatchURL     string
	EvaluatorURL string
}

// Client is the HTTP client for all upstream endpoints. It imposes no
// timeout of its own beyond the injected http.Client's; requests are never
// retried.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds an upstream client around the provided http.Client.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// ListModels fetches the model catalog and returns the model IDs.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, c.cfg.ModelsURL, &payload); err != nil {
		return nil, errors.Wrap(err, "fetching models")
	}
	ids := make([]string, 0, len(payload.Data))
	for _, model := range payload.Data {
		ids = append(ids, model.ID)
	}
	return ids, nil
}

// Send dispatches one conversation request (first-turn or follow-up shape)
// and returns the normalized response envelope.
func (c *Client) Send(ctx context.Context, request any) (Envelope, error) {
	var body json.RawMessage
	if err := c.postJSON(ctx, c.cfg.WebhookURL, request, &body); err != nil {
		return Envelope{}, errors.Wrap(err, "calling webhook")
	}
	return ParseEnvelope(body), nil
}

// FetchTestCases loads the spreadsheet-backed test-case store.
func (c *Client) FetchTestCases(ctx context.Context) (TestCasesResponse, error) {
	var payload TestCasesResponse
	if err := c.getJSON(ctx, c.cfg.TestCasesURL, &payload); err != nil {
		return TestCasesResponse{}, errors.Wrap(err, "fetching test cases")
	}
	return payload, nil
}

// RunBatch replays the selected test cases upstream.
func (c *Client) RunBatch(ctx context.Context, request BatchRunRequest) ([]TestResult, error) {
	var results []TestResult
	if err := c.postJSON(ctx, c.cfg.BatchURL, request, &results); err != nil {
		return nil, errors.Wrap(err, "running batch")
	}
	return results, nil
}

// Evaluate asks the evaluator to grade one batch run.
func (c *Client) Evaluate(ctx context.Context, runID string) ([]Evaluation, error) {
	var evaluations []Evaluation
	request := map[string]string{"run_id": runID}
	if err := c.postJSON(ctx, c.cfg.EvaluatorURL, request, &evaluations); err != nil {
		return nil, errors.Wrap(err, "evaluating run")
	}
	return evaluations, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, url string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "encoding request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return errors.Wrap(err, "reading response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upstream returned %d: %s", resp.StatusCode, snippet(body))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("upstream returned an empty body")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "decoding response")
	}
	return nil
}

// snippet truncates an upstream error body for log-friendly messages.
func snippet(body []byte) string {
	const limit = 200
	s := string(bytes.TrimSpace(body))
	if len(s) > limit {
		return s[:limit] + "... (" + strconv.Itoa(len(s)) + " bytes)"
	}
	return s
}
