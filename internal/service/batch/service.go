// Package batch replays stored test cases against the upstream workflow and
// grades the results through the evaluator webhook.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/modelmatrix/ava-console/internal/upstream"
)

// ErrNoRunID is returned when an evaluation is requested without a run.
var ErrNoRunID = errors.New("batch: no run ID available")

// Provider is the slice of the upstream client the harness needs. Satisfied
// by *upstream.Client.
type Provider interface {
	FetchTestCases(ctx context.Context) (upstream.TestCasesResponse, error)
	RunBatch(ctx context.Context, request upstream.BatchRunRequest) ([]upstream.TestResult, error)
	Evaluate(ctx context.Context, runID string) ([]upstream.Evaluation, error)
}

// Service is the batch harness.
type Service struct {
	provider Provider
}

func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// CaseView is one test case decorated with its resolved aliases and a short
// human-readable summary of the input and expected output cells.
type CaseView struct {
	ID              string            `json:"id"`
	Input           string            `json:"input"`
	ExpectedOutput  string            `json:"expectedOutput"`
	InputSummary    string            `json:"inputSummary"`
	ExpectedSummary string            `json:"expectedSummary"`
	Row             upstream.TestCase `json:"row"`
}

// Catalog is the test-case listing.
type Catalog struct {
	SheetName  string     `json:"sheetName"`
	Headers    []string   `json:"headers"`
	Cases      []CaseView `json:"cases"`
	TotalCount int        `json:"totalCount"`
}

// ListCases fetches the test-case sheet and decorates each row.
func (s *Service) ListCases(ctx context.Context) (Catalog, error) {
	resp, err := s.provider.FetchTestCases(ctx)
	if err != nil {
		return Catalog{}, err
	}
	catalog := Catalog{
		SheetName:  resp.SheetName,
		Headers:    resp.Headers,
		Cases:      make([]CaseView, 0, len(resp.TestCases)),
		TotalCount: resp.TotalCount,
	}
	for _, tc := range resp.TestCases {
		catalog.Cases = append(catalog.Cases, CaseView{
			ID:              tc.ID(),
			Input:           tc.Input(),
			ExpectedOutput:  tc.ExpectedOutput(),
			InputSummary:    Summarize(tc.Input()),
			ExpectedSummary: Summarize(tc.ExpectedOutput()),
			Row:             tc,
		})
	}
	return catalog, nil
}

// RunOptions selects which test cases a run replays.
type RunOptions struct {
	IDs   []string `json:"specific_ids"`
	Limit int      `json:"limit"`
	Model string   `json:"model"`
}

// Run is one completed batch run.
type Run struct {
	ID      string                `json:"runId"`
	Results []upstream.TestResult `json:"results"`
}

// Run replays the selected test cases. Explicit IDs are deduplicated with
// their first-seen order preserved; the run ID comes from the first result.
func (s *Service) Run(ctx context.Context, opts RunOptions) (Run, error) {
	request := upstream.BatchRunRequest{Model: opts.Model}
	if ids := dedupeIDs(opts.IDs); len(ids) > 0 {
		request.SpecificIDs = ids
	}
	if opts.Limit > 0 {
		request.Limit = opts.Limit
	}

	results, err := s.provider.RunBatch(ctx, request)
	if err != nil {
		return Run{}, err
	}
	run := Run{Results: results}
	if len(results) > 0 {
		run.ID = results[0].TestRunID
	}
	return run, nil
}

// Report is the evaluator's verdict over one run.
type Report struct {
	RunID       string                `json:"runId"`
	Passed      int                   `json:"passed"`
	Failed      int                   `json:"failed"`
	Evaluations []upstream.Evaluation `json:"evaluations"`
}

// ForCase returns the evaluation joined to a test case number.
func (r Report) ForCase(testCaseNumber string) (upstream.Evaluation, bool) {
	for _, e := range r.Evaluations {
		if e.TestCaseNumber == testCaseNumber {
			return e, true
		}
	}
	return upstream.Evaluation{}, false
}

// Evaluate grades a completed run and tallies the verdicts.
func (s *Service) Evaluate(ctx context.Context, runID string) (Report, error) {
	if runID == "" {
		return Report{}, ErrNoRunID
	}
	evaluations, err := s.provider.Evaluate(ctx, runID)
	if err != nil {
		return Report{}, err
	}
	report := Report{RunID: runID, Evaluations: evaluations}
	for _, e := range evaluations {
		if e.GradePass {
			report.Passed++
		} else {
			report.Failed++
		}
	}
	return report, nil
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

var (
	fencedBlockRe = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	answerTagRe   = regexp.MustCompile(`</?answer>`)
)

// Summarize condenses a test-case cell into a one-line preview. Cells can
// hold a serialized conversation transcript, a workflow response with an
// embedded widget block, arbitrary JSON, or plain text.
func Summarize(content string) string {
	if content == "" {
		return ""
	}

	var parsed any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return truncate(content, 100)
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return truncateJSON(parsed)
	}

	if messages, ok := obj["messages"].([]any); ok {
		if text := lastUserContent(messages); text != "" {
			return `User: "` + truncate(text, 100) + `"`
		}
	}

	if response, ok := obj["response"].(string); ok {
		if m := fencedBlockRe.FindStringSubmatch(response); m != nil {
			if widgetType, summary, ok := widgetSummary(m[1]); ok {
				return "Widget: " + widgetType + " | Content: " + summary
			}
		}
		clean := answerTagRe.ReplaceAllString(response, "")
		clean = fencedBlockRe.ReplaceAllString(clean, "")
		clean = strings.TrimSpace(clean)
		if clean != "" {
			return truncate(clean, 120)
		}
		return "Response with widget data"
	}

	return truncateJSON(parsed)
}

func lastUserContent(messages []any) string {
	for i := len(messages) - 1; i >= 0; i-- {
		m, ok := messages[i].(map[string]any)
		if !ok {
			continue
		}
		if role, _ := m["role"].(string); role != "user" {
			continue
		}
		if content, ok := m["content"].(string); ok && content != "" {
			return content
		}
	}
	return ""
}

// widgetSummary condenses a widget payload to "N <key>" per array prop and
// the bare key per object prop. Keys are sorted for a stable rendering.
func widgetSummary(jsonStr string) (widgetType, summary string, ok bool) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return "", "", false
	}
	widgetType, _ = parsed["type"].(string)
	props, propsOK := parsed["props"].(map[string]any)
	if widgetType == "" || !propsOK {
		return "", "", false
	}
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var items []string
	for _, key := range keys {
		switch value := props[key].(type) {
		case []any:
			items = append(items, strconv.Itoa(len(value))+" "+key)
		case map[string]any:
			items = append(items, key)
		}
	}
	if len(items) == 0 {
		return widgetType, "object", true
	}
	return widgetType, strings.Join(items, ", "), true
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// truncateJSON previews arbitrary JSON. The trailing ellipsis is
// unconditional so a compact preview still reads as elided.
func truncateJSON(parsed any) string {
	data, err := json.Marshal(parsed)
	if err != nil {
		return ""
	}
	runes := []rune(string(data))
	if len(runes) > 100 {
		runes = runes[:100]
	}
	return string(runes) + "..."
}
