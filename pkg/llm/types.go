package llm

// Message represents a chat message in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response represents a complete response from an LLM provider.
type Response struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// Usage tracks token consumption for a request/response pair.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Delta lifecycle types. A stream opens with DeltaStart (no text), carries
// text in DeltaText fragments, and closes with DeltaEnd (no text). Providers
// surface frames they do not understand as DeltaOther with empty content
// rather than dropping them.
const (
	DeltaStart = "start"
	DeltaText  = "delta"
	DeltaEnd   = "end"
	DeltaOther = "other"
)

// Delta represents one incremental update during streaming.
type Delta struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}
