package models

// Role tags who produced a conversation turn.

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged message in a user's conversation history.
// The json tags match the stored history payload in redis.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
