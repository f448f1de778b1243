package runtime

// Usage is the typed view over one generation step's usage record. Fields
// absent upstream stay zero; Raw preserves the record verbatim for the
// inspector.
type Usage struct {
	PromptTokens     int            `json:"promptTokens"`
	CompletionTokens int            `json:"completionTokens"`
	TotalTokens      int            `json:"totalTokens"`
	Cost             float64        `json:"cost"`
	LatencyMS        float64        `json:"latencyMs"`
	Raw              map[string]any `json:"raw"`
}

// ParseUsage lifts the well-known telemetry fields out of a raw usage record.
func ParseUsage(raw map[string]any) Usage {
	return Usage{
		PromptTokens:     intField(raw, "prompt_tokens"),
		CompletionTokens: intField(raw, "completion_tokens"),
		TotalTokens:      intField(raw, "total_tokens"),
		Cost:             floatField(raw, "cost"),
		LatencyMS:        floatField(raw, "latency_ms"),
		Raw:              raw,
	}
}

// ParseUsages maps ParseUsage over the per-step records of an extraction,
// keeping one entry per generation step rather than merging them.
func ParseUsages(raws []map[string]any) []Usage {
	usages := make([]Usage, 0, len(raws))
	for _, raw := range raws {
		usages = append(usages, ParseUsage(raw))
	}
	return usages
}

func intField(obj map[string]any, key string) int {
	if n, ok := obj[key].(float64); ok {
		return int(n)
	}
	return 0
}

func floatField(obj map[string]any, key string) float64 {
	if n, ok := obj[key].(float64); ok {
		return n
	}
	return 0
}
