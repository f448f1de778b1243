package upstream

import (
	"fmt"
	"strconv"
)

// ConversationMessage is the {role, content} pair of the follow-up contract.
type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FirstTurnRequest is sent for a session's very first message.
type FirstTurnRequest struct {
	FirstMessage string `json:"first_message"`
	SessionID    string `json:"session_id"`
	Model        string `json:"model"`
}

// FollowUpRequest is sent for every subsequent turn. FirstMessage is always
// null on the wire; the full re-serialized transcript rides in Messages.
type FollowUpRequest struct {
	FirstMessage        any                   `json:"first_message"`
	CurrentAgent        string                `json:"current_agent"`
	SessionID           string                `json:"session_id"`
	Model               string                `json:"model"`
	Messages            []ConversationMessage `json:"messages"`
	IntentSystemPrompt  string                `json:"intent_system_prompt,omitempty"`
	RuntimeSystemPrompt string                `json:"runtime_system_prompt,omitempty"`
}

// TestCase is one spreadsheet row of the test-case store. Column names vary
// between sheets, so rows stay loosely typed with accessor helpers.
type TestCase map[string]any

// ID returns the test case identifier, trying the known column aliases.
func (tc TestCase) ID() string {
	for _, key := range []string{"TESTCASE_NUMBER", "MTX_SESSION_ID"} {
		if v, ok := tc[key]; ok && v != nil {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// Input returns the test case input, trying the known column aliases.
func (tc TestCase) Input() string {
	for _, key := range []string{"INPUT", "USER_PROMPT", "MTX_USER_QUERY"} {
		if s, ok := tc[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// ExpectedOutput returns the expected output column, if any.
func (tc TestCase) ExpectedOutput() string {
	s, _ := tc["EXPECTED_OUTPUT"].(string)
	return s
}

// TestCasesResponse is the test-case provider's payload.
type TestCasesResponse struct {
	SheetName  string     `json:"sheetName"`
	Headers    []string   `json:"headers"`
	TestCases  []TestCase `json:"testCases"`
	TotalCount int        `json:"totalCount"`
}

// BatchRunRequest selects which test cases a batch run replays.
type BatchRunRequest struct {
	Limit       int      `json:"limit,omitempty"`
	SpecificIDs []string `json:"specific_ids,omitempty"`
	Model       string   `json:"model,omitempty"`
}

// TestResult is one replayed test case.
type TestResult struct {
	TestRunID      string `json:"TEST_RUN_ID"`
	TestCaseNumber string `json:"TESTCASE_NUMBER"`
	TestResponse   string `json:"TEST_RESPONSE"`
	ExpectedOutput string `json:"EXPECTED_OUTPUT"`
}

// stringify renders spreadsheet cell values (strings or numbers) as IDs.
func stringify(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// Evaluation is the evaluator's judgment of one test result.
type Evaluation struct {
	GradeScore     float64 `json:"grade_score"`
	GradePass      bool    `json:"grade_pass"`
	GradeReason    string  `json:"grade_reason"`
	TestCaseNumber string  `json:"testcase_number"`
	RowNumber      int     `json:"row_number"`
}
