package modelcall

import (
	"context"
	"fmt"

	"github.com/teilomillet/gollm"
)

// Client wraps a gollm.LLM instance behind the prompt-to-text surface the
// codeact loop consumes.
type Client struct {
	provider string
	model    string
	llm      gollm.LLM
	retry    RetryPolicy
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	retry       RetryPolicy
	extraOpts   []gollm.ConfigOption
}

// WithAPIKey sets the API key. When empty, gollm reads it from environment
// variables.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) { c.apiKey = key }
}

// WithModel sets the model identifier.
func WithModel(model string) Option {
	return func(c *clientConfig) { c.model = model }
}

// WithMaxTokens sets the completion token ceiling.
func WithMaxTokens(n int) Option {
	return func(c *clientConfig) { c.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *clientConfig) { c.temperature = t }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *clientConfig) { c.retry = policy }
}

// WithGollmOptions adds extra gollm configuration options.
func WithGollmOptions(opts ...gollm.ConfigOption) Option {
	return func(c *clientConfig) { c.extraOpts = append(c.extraOpts, opts...) }
}

// New creates a Client for the given provider ("openai", "anthropic", ...).
func New(provider string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		maxTokens:   4096,
		temperature: 0.2,
		retry:       DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	model := cfg.model
	if model == "" {
		switch provider {
		case "anthropic":
			model = "claude-sonnet-4-5"
		default:
			model = "gpt-4o-mini"
		}
	}

	gollmOpts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetMaxTokens(cfg.maxTokens),
		gollm.SetTemperature(cfg.temperature),
		gollm.SetMaxRetries(0), // retries are handled here
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if cfg.apiKey != "" {
		gollmOpts = append(gollmOpts, gollm.SetAPIKey(cfg.apiKey))
	}
	gollmOpts = append(gollmOpts, cfg.extraOpts...)

	llm, err := gollm.NewLLM(gollmOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", provider, err)
	}

	return &Client{provider: provider, model: model, llm: llm, retry: cfg.retry}, nil
}

// NewFromLLM wraps an existing gollm.LLM instance.
func NewFromLLM(provider string, llm gollm.LLM) *Client {
	return &Client{provider: provider, llm: llm, retry: DefaultRetryPolicy()}
}

// Provider returns the provider identifier.
func (c *Client) Provider() string { return c.provider }

// Ask sends a standalone prompt and returns the reply text. This is the
// capability the loop wraps with the sub-call budget.
func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	return Retry(ctx, c.retry, func(ctx context.Context) (string, error) {
		return c.complete(ctx, "", prompt)
	})
}

// complete sends one system+user exchange and returns the reply text.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	var promptOpts []gollm.PromptOption
	if system != "" {
		promptOpts = append(promptOpts, gollm.WithSystemPrompt(system, gollm.CacheTypeEphemeral))
	}
	prompt := gollm.NewPrompt(user, promptOpts...)
	text, err := c.llm.Generate(ctx, prompt)
	if err != nil {
		return "", classifyError(c.provider, err)
	}
	return text, nil
}
