package gemini

import (
	"context"
	"fmt"

	"github.com/fwojciec/sdr"
	"google.golang.org/genai"
)

// Interface compliance checks.
var (
	_ sdr.ChatProvider = (*Client)(nil)
	_ sdr.Chat         = (*Chat)(nil)
	_ sender           = (*genai.Chat)(nil)
)

// Client implements [sdr.ChatProvider] for the Google Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID used when the session config names none.
// Default is gemini-2.5-flash.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c := &Client{
		client: gc,
		model:  defaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// NewChat creates a chat session with no history.
func (c *Client) NewChat(ctx context.Context, cfg sdr.SessionConfig) (sdr.Chat, error) {
	model := cfg.Model
	if model == "" {
		model = c.model
	}
	chat, err := c.client.Chats.Create(ctx, model, BuildConfig(cfg), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: create chat: %w", err)
	}
	return &Chat{chat: chat}, nil
}

// BuildConfig converts session parameters to a generation config.
// Exported for testing.
func BuildConfig(cfg sdr.SessionConfig) *genai.GenerateContentConfig {
	temp := float32(cfg.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if cfg.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(cfg.MaxOutputTokens)
	}
	if cfg.Instruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: cfg.Instruction}},
		}
	}
	return config
}

// sender is the part of *genai.Chat used by [Chat].
type sender interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Chat is one Gemini chat session.
type Chat struct {
	chat sender
}

// Exchange sends text and returns the text of the reply. A response with no
// text part yields an empty string and no error.
func (c *Chat) Exchange(ctx context.Context, text string) (string, error) {
	resp, err := c.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", fmt.Errorf("gemini: send message: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}
