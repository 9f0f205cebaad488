// Package session owns the single external chat session of a conversation.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fwojciec/sdr"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Client wraps an [sdr.ChatProvider] and holds at most one live [sdr.Chat].
//
// Start replaces the current chat. Send lazily starts one when none exists.
// Failed or empty exchanges are answered with a fixed fallback reply; only
// the absence of a session is reported as an error.
type Client struct {
	provider sdr.ChatProvider
	config   sdr.SessionConfig
	fallback string
	logger   zerolog.Logger

	mu   sync.Mutex
	chat sdr.Chat
	id   string
}

// Option configures a [Client].
type Option func(*Client)

// WithConfig sets the session parameters. Config.Instruction is the default
// instruction used by lazy starts and by Start with an empty instruction.
func WithConfig(cfg sdr.SessionConfig) Option {
	return func(c *Client) { c.config = cfg }
}

// WithFallback sets the reply used when an exchange fails or returns nothing.
func WithFallback(text string) Option {
	return func(c *Client) { c.fallback = text }
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a [Client]. No chat is created until Start or Send.
func New(provider sdr.ChatProvider, opts ...Option) *Client {
	def := sdr.DefaultConfig()
	c := &Client{
		provider: provider,
		config:   def.SessionDefaults(),
		fallback: def.Fallback,
		logger:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start discards the current chat and creates a new one with the given
// instruction. An empty instruction selects the default one. Failures are
// logged and leave the client without a chat; the next Send retries.
func (c *Client) Start(ctx context.Context, instruction string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start(ctx, instruction)
}

func (c *Client) start(ctx context.Context, instruction string) {
	c.chat = nil
	c.id = ""

	cfg := c.config
	if instruction != "" {
		cfg.Instruction = instruction
	}
	chat, err := c.provider.NewChat(ctx, cfg)
	if err != nil {
		c.logger.Error().Err(err).Str("model", cfg.Model).Msg("chat session init failed")
		return
	}
	if chat == nil {
		c.logger.Error().Str("model", cfg.Model).Msg("chat session init returned no session")
		return
	}
	c.chat = chat
	c.id = uuid.NewString()
	c.logger.Info().
		Str("session_id", c.id).
		Str("model", cfg.Model).
		Int("instruction_len", len(cfg.Instruction)).
		Msg("chat session started")
}

// Send performs exactly one exchange. When no chat exists one is started
// with the default instruction; if that fails too, Send returns
// [sdr.ErrSessionNotInitialized]. Exchange errors and blank replies are
// replaced with the fallback text and never returned.
func (c *Client) Send(ctx context.Context, text string) (string, error) {
	c.mu.Lock()
	if c.chat == nil {
		c.start(ctx, "")
	}
	chat, id := c.chat, c.id
	c.mu.Unlock()

	if chat == nil {
		return "", fmt.Errorf("send: %w", sdr.ErrSessionNotInitialized)
	}

	reply, err := chat.Exchange(ctx, text)
	if err != nil {
		ev := c.logger.Warn()
		if errors.Is(err, context.Canceled) {
			ev = c.logger.Debug()
		}
		ev.Err(err).Str("session_id", id).Str("text", sdr.Preview(text, 40)).Msg("chat exchange failed")
		return c.fallback, nil
	}
	if strings.TrimSpace(reply) == "" {
		c.logger.Warn().Str("session_id", id).Msg("chat exchange returned empty reply")
		return c.fallback, nil
	}
	c.logger.Debug().Str("session_id", id).Str("reply", sdr.Preview(reply, 40)).Msg("chat exchange")
	return reply, nil
}

// SessionID returns the identifier of the current chat, or "" when none.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Reset drops the current chat without creating a new one.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chat = nil
	c.id = ""
}
