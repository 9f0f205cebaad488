// Package mock provides test doubles for sdr interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/sdr"
	"github.com/fwojciec/sdr/agent"
)

// Interface compliance checks.
var (
	_ sdr.ChatProvider = (*ChatProvider)(nil)
	_ sdr.Chat         = (*Chat)(nil)
	_ agent.Client     = (*Client)(nil)
)

// ChatProvider is a test double for sdr.ChatProvider.
// Set NewChatFn before calling NewChat.
type ChatProvider struct {
	NewChatFn func(ctx context.Context, cfg sdr.SessionConfig) (sdr.Chat, error)
}

// NewChat delegates to NewChatFn.
func (p *ChatProvider) NewChat(ctx context.Context, cfg sdr.SessionConfig) (sdr.Chat, error) {
	return p.NewChatFn(ctx, cfg)
}

// Chat is a test double for sdr.Chat.
// Set ExchangeFn before calling Exchange.
type Chat struct {
	ExchangeFn func(ctx context.Context, text string) (string, error)
}

// Exchange delegates to ExchangeFn.
func (c *Chat) Exchange(ctx context.Context, text string) (string, error) {
	return c.ExchangeFn(ctx, text)
}

// Client is a test double for agent.Client.
// Set the function fields for the methods you need. Start is nil-safe.
type Client struct {
	StartFn func(ctx context.Context, instruction string)
	SendFn  func(ctx context.Context, text string) (string, error)
}

// Start delegates to StartFn if set.
func (c *Client) Start(ctx context.Context, instruction string) {
	if c.StartFn != nil {
		c.StartFn(ctx, instruction)
	}
}

// Send delegates to SendFn.
func (c *Client) Send(ctx context.Context, text string) (string, error) {
	return c.SendFn(ctx, text)
}
