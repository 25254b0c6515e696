// Package openai adapts the OpenAI chat completions API to the ADK model.LLM
// interface so llmagent-based agents can run on GPT models.
package openai

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// Config for the chat completions adapter.
type Config struct {
	APIKey    string
	BaseURL   string // empty means api.openai.com
	Model     string
	MaxTokens int64
	// Temperature applies when > 0 and the request does not set one.
	Temperature float64
	// MaxRetries overrides the SDK default when >= 0.
	MaxRetries int
}

// ChatModel implements model.LLM on top of openai-go.
type ChatModel struct {
	config Config
	client sdk.Client
}

var _ model.LLM = (*ChatModel)(nil)

// NewModel builds a ChatModel. Defaults to gpt-4.
func NewModel(cfg Config) *ChatModel {
	if cfg.Model == "" {
		cfg.Model = "gpt-4"
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	return &ChatModel{config: cfg, client: sdk.NewClient(opts...)}
}

func (m *ChatModel) Name() string {
	return m.config.Model
}

// GenerateContent performs one non-streaming completion per request.
func (m *ChatModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, req)
		yield(resp, err)
	}
}

func (m *ChatModel) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	if req == nil {
		return nil, errors.New("openai: nil request")
	}

	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(m.config.Model),
		Messages: convertMessages(req),
	}
	if m.config.MaxTokens > 0 {
		params.MaxTokens = sdk.Int(m.config.MaxTokens)
	}
	if m.config.Temperature > 0 {
		params.Temperature = sdk.Float(m.config.Temperature)
	}
	if req.Config != nil {
		if req.Config.Temperature != nil {
			params.Temperature = sdk.Float(float64(*req.Config.Temperature))
		}
		if req.Config.MaxOutputTokens > 0 {
			params.MaxTokens = sdk.Int(int64(req.Config.MaxOutputTokens))
		}
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("openai chat completion: empty choices")
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	parts := make([]*genai.Part, 0, 1)
	if text != "" {
		parts = append(parts, genai.NewPartFromText(text))
	}

	return &model.LLMResponse{
		Content: &genai.Content{
			Role:  "model",
			Parts: parts,
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(completion.Usage.PromptTokens),
			CandidatesTokenCount: int32(completion.Usage.CompletionTokens),
			TotalTokenCount:      int32(completion.Usage.TotalTokens),
		},
	}, nil
}

// convertMessages flattens the system instruction and the text parts of each
// content into chat messages. Tool parts are not used by our agents.
func convertMessages(req *model.LLMRequest) []sdk.ChatCompletionMessageParamUnion {
	messages := make([]sdk.ChatCompletionMessageParamUnion, 0, len(req.Contents)+1)

	if req.Config != nil && req.Config.SystemInstruction != nil {
		if sys := joinText(req.Config.SystemInstruction); sys != "" {
			messages = append(messages, sdk.SystemMessage(sys))
		}
	}

	for _, content := range req.Contents {
		if content == nil {
			continue
		}
		text := joinText(content)
		if text == "" {
			continue
		}
		if content.Role == "model" {
			messages = append(messages, sdk.AssistantMessage(text))
		} else {
			messages = append(messages, sdk.UserMessage(text))
		}
	}
	return messages
}

func joinText(content *genai.Content) string {
	var b strings.Builder
	for _, part := range content.Parts {
		if part == nil || strings.TrimSpace(part.Text) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}
