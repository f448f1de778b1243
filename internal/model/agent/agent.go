package agent

// Agent describes one specialized agent the upstream workflow can route a
// conversation to. The reasoning patterns are the intent cues the analyzer
// matches a user request against.
type Agent struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	ReasoningPatterns []string `json:"reasoningPatterns"`
}

// Seed provides the default agent catalog.
func Seed() []Agent {
	return []Agent{
		{
			Name:        "InsuranceQuotationAgent",
			Description: "An AI agent that assists users in obtaining insurance quotes by gathering their personal information and preferences.",
			ReasoningPatterns: []string{
				"User wants to get an insurance quote",
				"User wants to compare insurance options",
				"User needs help with insurance",
			},
		},
		{
			Name:        "TrafficFinesAgent",
			Description: "An AI agent that assists users in obtaining traffic fines information and resolving related issues.",
			ReasoningPatterns: []string{
				"User wants to get information about traffic fines",
				"User wants to contest a traffic fine",
				"User needs help with traffic fines",
			},
		},
		{
			Name:        "BillingAgent",
			Description: "An AI agent that handles account balances, bills, transactions and payments.",
			ReasoningPatterns: []string{
				"User wants to check an account balance",
				"User wants to view or pay a bill",
				"User asks about transactions or payments",
			},
		},
		{
			Name:        "ChitChatAgent",
			Description: "An AI agent for greetings and casual conversation when no specialized agent matches.",
			ReasoningPatterns: []string{
				"User greets or makes small talk",
				"No other agent covers the request",
			},
		},
	}
}
