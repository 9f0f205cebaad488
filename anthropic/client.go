package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/fwojciec/sdr"
)

// Interface compliance checks.
var (
	_ sdr.ChatProvider = (*Client)(nil)
	_ sdr.Chat         = (*Chat)(nil)
)

// Client implements [sdr.ChatProvider] for the Anthropic Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel sets the model ID used when the session config names none.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// New creates a new Anthropic [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewChat creates a chat with no history. No request is made until the
// first exchange.
func (c *Client) NewChat(_ context.Context, cfg sdr.SessionConfig) (sdr.Chat, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = c.model
	}
	maxTokens := cfg.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	return &Chat{
		client:      c,
		model:       model,
		system:      cfg.Instruction,
		temperature: min(cfg.Temperature, maxTemperature),
		maxTokens:   maxTokens,
	}, nil
}

// Chat is one conversation with the Messages API.
type Chat struct {
	client      *Client
	model       string
	system      string
	temperature float64
	maxTokens   int

	mu      sync.Mutex
	history []apiMessage
}

// Exchange sends text after the recorded history and returns the reply
// text. The exchange is recorded only when the reply is non-empty.
func (c *Chat) Exchange(ctx context.Context, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := append(slices.Clone(c.history), apiMessage{
		Role:    "user",
		Content: []apiContentBlock{{Type: "text", Text: text}},
	})
	body, err := json.Marshal(c.buildRequest(msgs))
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	resp, err := c.client.post(ctx, body)
	if err != nil {
		return "", err
	}

	reply := responseText(resp)
	if reply != "" {
		c.history = append(msgs, apiMessage{
			Role:    "assistant",
			Content: []apiContentBlock{{Type: "text", Text: reply}},
		})
	}
	return reply, nil
}

func (c *Chat) buildRequest(msgs []apiMessage) apiRequest {
	temp := c.temperature
	req := apiRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		System:      convertSystem(c.system),
		Messages:    msgs,
		Temperature: &temp,
	}
	injectCacheMarkers(&req)
	return req
}

func (c *Client) post(ctx context.Context, body []byte) (apiResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return apiResponse{}, fmt.Errorf("anthropic: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return apiResponse{}, fmt.Errorf("anthropic: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiResponse{}, parseHTTPError(resp)
	}
	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return apiResponse{}, fmt.Errorf("anthropic: decode response: %w", err)
	}
	return out, nil
}

// responseText joins the text blocks of a response.
func responseText(resp apiResponse) string {
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// convertSystem converts a system prompt string to an array of content blocks
// suitable for the Anthropic API. Returns nil when the prompt is empty.
func convertSystem(prompt string) []apiContentBlock {
	if prompt == "" {
		return nil
	}
	return []apiContentBlock{{Type: "text", Text: prompt}}
}

// injectCacheMarkers sets cache_control breakpoints on the request:
//  1. Top-level: automatic caching for the conversation message window.
//  2. System prompt last block: the persona instruction never changes
//     within a chat.
func injectCacheMarkers(req *apiRequest) {
	// cc is shared across all breakpoints; safe because it is read-only after assignment.
	cc := &apiCacheControl{Type: "ephemeral"}

	req.CacheControl = cc

	if len(req.System) > 0 {
		req.System[len(req.System)-1].CacheControl = cc
	}
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return fmt.Errorf("anthropic: HTTP %d: %s", resp.StatusCode, string(body))
	}
	return fmt.Errorf("anthropic: %s: %s", apiErr.Error.Type, apiErr.Error.Message)
}
