package sdr

import "context"

// ChatProvider is a strategy pattern interface for conversational LLM APIs.
// Each call to NewChat creates an independent session with no history.
type ChatProvider interface {
	NewChat(ctx context.Context, cfg SessionConfig) (Chat, error)
}

// Chat is one live external conversation. The provider keeps the history;
// callers only submit the next user text.
type Chat interface {
	Exchange(ctx context.Context, text string) (string, error)
}

// SessionConfig is fixed when a Chat is created.
type SessionConfig struct {
	Model           string // provider-specific; empty = provider default
	Instruction     string // persona/policy system instruction
	Temperature     float64
	MaxOutputTokens int
}
