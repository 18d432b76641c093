// Package messages is the chat message model shared by the API backends.
// Both wire formats (OpenAI chat completions, Anthropic messages) serialize
// these directly.
package messages

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func System(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

func User(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

func Assistant(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}
