package render

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/modelmatrix/ava-console/internal/analysis/runtime"
	"github.com/modelmatrix/ava-console/internal/analysis/shape"
)

// priorityKeys are surfaced first by the generic renderer, in this order.
var priorityKeys = []string{
	"AccountId", "CustomerId", "TransactionId", "Amount", "Balance",
	"Status", "Name", "Email", "message",
}

var imageKeywords = []string{"imageurl", "image_url", "avatar", "photo", "picture", "logourl"}

var (
	imageExtRe = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp|svg)$`)
	boldRe     = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

// dateLayouts are tried in order when formatting date-ish string fields.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// Render converts one decoded JSON object into a display tree, dispatching on
// its classified variant. It never fails: anything unrecognized goes through
// the generic key/value renderer.
func Render(obj map[string]any) Node {
	switch shape.Classify(obj) {
	case shape.PaginatedResponse:
		return RenderList(obj)
	case shape.Transaction:
		return renderTransaction(obj)
	case shape.BalanceResponse:
		return renderBalance(obj)
	case shape.CustomerResponse:
		return renderCustomer(obj)
	case shape.Bill:
		return renderBill(obj)
	case shape.DocumentResponse:
		return renderDocument(obj)
	case shape.ExchangeRate:
		return renderExchangeRate(obj)
	case shape.Beneficiary:
		return renderBeneficiary(obj)
	case shape.LoginResponse:
		return renderLogin(obj)
	case shape.WorkflowResponse:
		return renderWorkflow(obj)
	default:
		return renderGeneric(obj)
	}
}

// RenderValue renders an arbitrary decoded JSON value: objects go through
// variant dispatch, arrays become element groups, scalars become text.
func RenderValue(v any) Node {
	switch value := v.(type) {
	case map[string]any:
		return Render(value)
	case []any:
		children := make([]Node, 0, len(value))
		for _, item := range value {
			children = append(children, RenderValue(item))
		}
		n := group("list", children...)
		n.Label = fmt.Sprintf("%d items", len(value))
		return n
	default:
		return Node{Kind: KindText, Value: coerce(value)}
	}
}

// RenderList renders a paginated response: pagination badges followed by each
// item. Transaction items get the transaction template; everything else falls
// back to the generic renderer.
func RenderList(obj map[string]any) Node {
	children := []Node{
		badge(fmt.Sprintf("%s results", coerce(obj["total"]))),
		badge(fmt.Sprintf("Page %s of %s", coerce(obj["page"]), coerce(obj["total_pages"]))),
	}
	if items, ok := obj["items"].([]any); ok {
		for _, item := range items {
			itemObj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if shape.Classify(itemObj) == shape.Transaction {
				children = append(children, renderTransaction(itemObj))
			} else {
				children = append(children, renderGeneric(itemObj))
			}
		}
	}
	return group(string(shape.PaginatedResponse), children...)
}

func renderTransaction(obj map[string]any) Node {
	amount, _ := num(obj, "Amount")
	tone := ToneDebit
	if amount > 0 {
		tone = ToneCredit
	}
	description := firstString(obj, "Description", "Subtype")
	if description == "" {
		description = "Transaction"
	}

	children := []Node{
		{Kind: KindText, Value: description},
		{Kind: KindCurrency, Label: "Amount", Value: FormatCurrency(amount, str(obj, "Currency")), Tone: tone},
	}
	if dt := str(obj, "DateTime"); dt != "" {
		children = append(children, field("Date", formatDate(dt)))
	}
	children = append(children, field("Transaction ID", coerce(obj["TransactionId"])))
	return group(string(shape.Transaction), children...)
}

func renderBalance(obj map[string]any) Node {
	balance, _ := num(obj, "CalculatedBalance")
	return group(string(shape.BalanceResponse),
		Node{Kind: KindCurrency, Label: "Balance", Value: FormatCurrency(balance, str(obj, "Currency"))},
		field("Account ID", coerce(obj["AccountId"])),
	)
}

func renderCustomer(obj map[string]any) Node {
	name := strings.TrimSpace(str(obj, "FirstName") + " " + str(obj, "LastName"))
	children := []Node{{Kind: KindText, Value: name}}
	if email := str(obj, "Email"); email != "" {
		children = append(children, field("Email", email))
	}
	if status := str(obj, "Status"); status != "" {
		children = append(children, badge(status))
	}
	children = append(children, field("Customer ID", coerce(obj["CustomerId"])))
	return group(string(shape.CustomerResponse), children...)
}

func renderBill(obj map[string]any) Node {
	amount, _ := num(obj, "Amount")
	children := []Node{
		{Kind: KindCurrency, Label: "Amount", Value: FormatCurrency(amount, str(obj, "Currency"))},
		field("Due", str(obj, "DueDate")),
	}
	if status := str(obj, "Status"); status != "" {
		b := badge(status)
		if strings.EqualFold(status, "paid") {
			b.Tone = TonePaid
		}
		children = append(children, b)
	}
	children = append(children, field("Bill ID", coerce(obj["BillId"])))
	return group(string(shape.Bill), children...)
}

func renderDocument(obj map[string]any) Node {
	children := []Node{
		field("Type", coerce(obj["DocumentType"])),
		field("Document ID", coerce(obj["DocumentId"])),
	}
	if status := str(obj, "Status"); status != "" {
		children = append(children, badge(status))
	}
	return group(string(shape.DocumentResponse), children...)
}

func renderExchangeRate(obj map[string]any) Node {
	children := []Node{
		{Kind: KindText, Value: fmt.Sprintf("%s → %s", str(obj, "FromCurrency"), str(obj, "ToCurrency"))},
		field("Rate", coerce(obj["Rate"])),
	}
	if example := str(obj, "Example"); example != "" {
		children = append(children, Node{Kind: KindText, Value: example, Tone: ToneMuted})
	}
	return group(string(shape.ExchangeRate), children...)
}

func renderBeneficiary(obj map[string]any) Node {
	name := firstString(obj, "BeneficiaryName", "Name")
	if name == "" {
		name = "Beneficiary"
	}
	children := []Node{{Kind: KindText, Value: name}}
	if account := coerce(obj["AccountNumber"]); account != "" {
		children = append(children, field("Account", account))
	}
	if bank := str(obj, "BankName"); bank != "" {
		children = append(children, field("Bank", bank))
	}
	if id := coerce(obj["BeneficiaryId"]); id != "" {
		children = append(children, field("Beneficiary ID", id))
	}
	if status := str(obj, "Status"); status != "" {
		children = append(children, badge(status))
	}
	return group(string(shape.Beneficiary), children...)
}

func renderLogin(obj map[string]any) Node {
	return group(string(shape.LoginResponse),
		field("Session ID", coerce(obj["SessionId"])),
		field("Expires", formatDate(coerce(obj["ExpiryTime"]))),
	)
}

func renderWorkflow(obj map[string]any) Node {
	return group(string(shape.WorkflowResponse),
		field("Request ID", coerce(obj["RequestId"])),
		badge(coerce(obj["Status"])),
	)
}

// renderGeneric enumerates all keys of an unclassified object. Priority keys
// sort first; null-valued keys are skipped; values get heuristic formatting
// (currency, date, image, nested structures).
func renderGeneric(obj map[string]any) Node {
	children := make([]Node, 0, len(obj))
	for _, key := range orderedKeys(obj) {
		value := obj[key]
		if value == nil {
			continue
		}
		children = append(children, renderGenericField(key, value))
	}
	return group(string(shape.Generic), children...)
}

func renderGenericField(key string, value any) Node {
	lower := strings.ToLower(key)

	if s, ok := value.(string); ok && (isImageRef(key) || isImageRef(s)) {
		return Node{Kind: KindThumbnail, Label: key, Value: s}
	}

	if n, ok := value.(float64); ok && (strings.Contains(lower, "amount") || strings.Contains(lower, "balance")) {
		return Node{Kind: KindCurrency, Label: key, Value: FormatCurrency(n, "USD")}
	}

	if s, ok := value.(string); ok && (strings.Contains(lower, "date") || strings.Contains(lower, "time")) {
		return field(key, formatDate(s))
	}

	if lower == "currency" {
		return Node{Kind: KindField, Label: key, Value: coerce(value), Tone: ToneMono}
	}

	switch v := value.(type) {
	case []any:
		if len(v) > 0 {
			if _, ok := v[0].(map[string]any); ok {
				children := []Node{badge(fmt.Sprintf("%d items", len(v)))}
				for _, item := range v {
					children = append(children, RenderValue(item))
				}
				n := group("list", children...)
				n.Label = key
				return n
			}
		}
		return field(key, coerce(v))
	case map[string]any:
		return Node{Kind: KindJSON, Label: key, Value: prettyJSON(v)}
	default:
		return field(key, coerce(value))
	}
}

// MessageBody formats an assistant message body for display: think spans are
// stripped, then **bold** runs become emphasized spans. No other markup is
// interpreted at this layer.
func MessageBody(text string) []Span {
	text = runtime.StripThink(text)
	if text == "" {
		return nil
	}
	var spans []Span
	last := 0
	for _, loc := range boldRe.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			spans = append(spans, Span{Text: text[last:loc[0]]})
		}
		spans = append(spans, Span{Text: text[loc[2]:loc[3]], Bold: true})
		last = loc[1]
	}
	if last < len(text) {
		spans = append(spans, Span{Text: text[last:]})
	}
	return spans
}

// orderedKeys returns the object's keys with priority keys first (in priority
// order). This is the fallback for values that arrive already decoded, where
// source order is gone; the remaining keys are sorted case-insensitively for
// a stable display. Raw payloads go through renderGenericRaw instead, which
// keeps encounter order.
func orderedKeys(obj map[string]any) []string {
	var prioritized []string
	matched := map[string]bool{}
	for _, want := range priorityKeys {
		var hits []string
		for key := range obj {
			if strings.EqualFold(key, want) && !matched[key] {
				matched[key] = true
				hits = append(hits, key)
			}
		}
		sort.Strings(hits)
		prioritized = append(prioritized, hits...)
	}

	var rest []string
	for key := range obj {
		if !matched[key] {
			rest = append(rest, key)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		return strings.ToLower(rest[i]) < strings.ToLower(rest[j])
	})
	return append(prioritized, rest...)
}

func isImageRef(s string) bool {
	lower := strings.ToLower(s)
	for _, keyword := range imageKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return imageExtRe.MatchString(lower)
}

// formatDate re-renders a date-ish string in a human-friendly layout, or
// returns the input unchanged when it cannot be parsed.
func formatDate(s string) string {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("Jan 2, 2006")
		}
		return t.Format("Jan 2, 2006 3:04 PM")
	}
	return s
}

// coerce renders a scalar JSON value as display text.
func coerce(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case []any, map[string]any:
		return prettyJSON(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

func prettyJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
