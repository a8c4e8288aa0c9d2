package llm

// Role tags a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn handed to the model. Analyses send a system turn
// with the task and a user turn carrying the sampled messages.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest describes one completion call. Model may be empty,
// in which case the provider's configured model is used. JSONMode asks
// the backend for a JSON-only body, which the analyses rely on instead
// of parsing prose.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// CompletionResponse is the model's reply plus the token accounting
// the cost estimator reads.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// Truncated reports whether the reply was cut short by the token
// limit. A truncated JSON body never parses, so callers check this
// before blaming the model for bad output.
func (r *CompletionResponse) Truncated() bool {
	return r.FinishReason == "length" || r.FinishReason == "max_tokens"
}
