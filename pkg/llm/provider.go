package llm

import (
	"context"
)

// Provider issues a single chat completion and returns the assistant text.
// The curator never streams tokens to a client, so the surface is a plain
// request/response call.
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}
