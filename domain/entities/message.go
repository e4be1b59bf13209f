package entities

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a conversation. Messages are immutable once
// created and their ordering carries the conversation chronology.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
