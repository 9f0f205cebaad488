package gemini

import (
	"context"

	"google.golang.org/genai"
)

// SendFunc adapts a function to the chat sender used by Chat.
type SendFunc func(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)

func (f SendFunc) SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	return f(ctx, parts...)
}

// NewTestChat returns a Chat backed by f.
func NewTestChat(f SendFunc) *Chat {
	return &Chat{chat: f}
}
