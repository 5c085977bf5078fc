package domain

// Role identifies the author of a ChatMessage.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// ChatMessage is the provider-agnostic chat message shape used by the handler
// and LLM integrations.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
