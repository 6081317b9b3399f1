// Package openrouter provides an LLM provider backed by the OpenRouter API.
//
// OpenRouter exposes an OpenAI-compatible chat completions endpoint, so this
// provider reuses the OpenAI SDK with an overridden base URL. Requests carry a
// latency-sorted routing preference so dialogue turns land on the fastest
// upstream currently available.
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/stafflens/stafflens/pkg/provider/llm"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// Provider implements llm.Provider using the OpenRouter API.
type Provider struct {
	client       oai.Client
	model        string
	sortProvider string
}

// Compile-time interface assertion.
var _ llm.Provider = (*Provider)(nil)

// config holds optional configuration for the provider.
type config struct {
	baseURL      string
	appName      string
	appURL       string
	timeout      time.Duration
	sortProvider string
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenRouter API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithApp sets the X-Title and HTTP-Referer headers OpenRouter uses for
// per-app attribution on its dashboard.
func WithApp(name, url string) Option {
	return func(c *config) {
		c.appName = name
		c.appURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithProviderSort sets the upstream routing order ("latency", "price",
// "throughput"). Default is "latency".
func WithProviderSort(sort string) Option {
	return func(c *config) {
		c.sortProvider = sort
	}
}

// New constructs a new OpenRouter LLM Provider.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openrouter: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openrouter: model must not be empty")
	}

	cfg := &config{
		baseURL:      defaultBaseURL,
		sortProvider: "latency",
	}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(cfg.baseURL),
	}
	if cfg.appName != "" {
		reqOpts = append(reqOpts, option.WithHeader("X-Title", cfg.appName))
	}
	if cfg.appURL != "" {
		reqOpts = append(reqOpts, option.WithHeader("HTTP-Referer", cfg.appURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Provider{client: client, model: model, sortProvider: cfg.sortProvider}, nil
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	params := p.buildParams(req)

	// Routing preference is an OpenRouter extension to the OpenAI body.
	callOpts := []option.RequestOption{}
	if p.sortProvider != "" {
		callOpts = append(callOpts, option.WithJSONSet("provider.sort", p.sortProvider))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params, callOpts...)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openrouter: empty choices in response")
	}

	choice := resp.Choices[0]
	return &llm.CompletionResponse{
		Content: choice.Message.Content,
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// buildParams converts a CompletionRequest into OpenAI SDK params.
func (p *Provider) buildParams(req llm.CompletionRequest) oai.ChatCompletionNewParams {
	var messages []oai.ChatCompletionMessageParamUnion

	if req.SystemPrompt != "" {
		messages = append(messages, oai.SystemMessage(req.SystemPrompt))
	}

	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			messages = append(messages, oai.SystemMessage(m.Content))
		case llm.RoleAssistant:
			messages = append(messages, oai.AssistantMessage(m.Content))
		default:
			messages = append(messages, oai.UserMessage(m.Content))
		}
	}

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
	}

	if req.Temperature != 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}

	return params
}

// classify translates SDK errors into llm.BackendError so retry policies can
// distinguish server faults from client errors.
func classify(err error) error {
	var apierr *oai.Error
	if errors.As(err, &apierr) {
		body := apierr.Error()
		if len(body) > 200 {
			body = body[:200]
		}
		return fmt.Errorf("openrouter: %w", &llm.BackendError{
			Status: apierr.StatusCode,
			Body:   body,
		})
	}
	return fmt.Errorf("openrouter: chat completion: %w", err)
}
