package domain

// Chat roles understood by the completion endpoint.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of the dialogue in the provider shape sent to the
// completion endpoint. Ordering carries the conversational context; a message
// is never mutated after creation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the full payload for one completion call: the entire
// conversation so far plus the session's sampling parameters. The endpoint is
// stateless between calls, so every request replays the whole history.
type ChatRequest struct {
	Model    string
	Messages []ChatMessage
	Sampling SamplingConfig
}
