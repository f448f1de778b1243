// Package shape classifies the upstream workflow's loosely-typed JSON
// objects into a closed set of domain variants using key-presence rules.
package shape

// Variant tags the recognized response shapes. Classification is derived on
// every render and never persisted.
type Variant string

const (
	PaginatedResponse Variant = "paginated_response"
	Transaction       Variant = "transaction"
	BalanceResponse   Variant = "balance_response"
	CustomerResponse  Variant = "customer_response"
	Bill              Variant = "bill"
	DocumentResponse  Variant = "document_response"
	ExchangeRate      Variant = "exchange_rate"
	Beneficiary       Variant = "beneficiary"
	LoginResponse     Variant = "login_response"
	WorkflowResponse  Variant = "workflow_response"
	Generic           Variant = "generic"
)

// rule matches one variant by required key combinations. Rules are evaluated
// in order and the first match wins, so more specific combinations must stay
// ahead of broader ones.
type rule struct {
	variant Variant
	match   func(obj map[string]any) bool
}

var rules = []rule{
	{PaginatedResponse, hasAll("items", "total", "page", "total_pages")},
	{Transaction, hasAll("TransactionId", "Amount")},
	{BalanceResponse, hasAll("AccountId", "CalculatedBalance")},
	{CustomerResponse, hasAll("CustomerId", "FirstName", "LastName")},
	{Bill, hasAll("BillId", "Amount", "DueDate")},
	{DocumentResponse, hasAll("DocumentId", "DocumentType")},
	{ExchangeRate, hasAll("FromCurrency", "ToCurrency", "Rate")},
	{Beneficiary, anyOf(hasAll("BeneficiaryId"), hasAll("BeneficiaryName", "AccountNumber"))},
	{LoginResponse, hasAll("SessionId", "ExpiryTime")},
	{WorkflowResponse, hasAll("RequestId", "Status")},
}

// Classify returns the variant of an arbitrary decoded JSON object. It is
// total: unrecognized or nil input classifies as Generic.
func Classify(obj map[string]any) Variant {
	if obj == nil {
		return Generic
	}
	for _, r := range rules {
		if r.match(obj) {
			return r.variant
		}
	}
	return Generic
}

func hasAll(keys ...string) func(map[string]any) bool {
	return func(obj map[string]any) bool {
		for _, key := range keys {
			if _, ok := obj[key]; !ok {
				return false
			}
		}
		return true
	}
}

func anyOf(matchers ...func(map[string]any) bool) func(map[string]any) bool {
	return func(obj map[string]any) bool {
		for _, match := range matchers {
			if match(obj) {
				return true
			}
		}
		return false
	}
}
