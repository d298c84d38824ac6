package refiner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
)

// GeminiOpenAIBaseURL is Gemini's OpenAI-compatible endpoint.
const GeminiOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Label     string
}

// OpenAIGenerator speaks the chat completions API, which covers OpenAI and
// Gemini's compatibility endpoint.
type OpenAIGenerator struct {
	client    *openai.Client
	model     string
	maxTokens int
	label     string
}

func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Label == "" {
		cfg.Label = "openai"
	}
	return &OpenAIGenerator{
		client:    openai.NewClientWithConfig(oc),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		label:     cfg.Label,
	}
}

// NewGeminiGenerator targets Gemini through its OpenAI-compatible endpoint.
func NewGeminiGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = GeminiOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	cfg.Label = "gemini"
	return NewOpenAIGenerator(cfg)
}

func (g *OpenAIGenerator) Name() string { return g.label }

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	}
	if g.maxTokens > 0 {
		req.MaxTokens = g.maxTokens
	}
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s chat: %w", g.label, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

type AnthropicGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropicGenerator(cfg AnthropicConfig) *AnthropicGenerator {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(1),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-haiku-20240307"
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 512
	}
	return &AnthropicGenerator{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: maxTokens,
	}
}

func (g *AnthropicGenerator) Name() string { return "anthropic" }

func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic chat: %w", err)
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
