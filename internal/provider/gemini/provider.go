// Package gemini serves Google Gemini models through langchaingo.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/schema"

	"github.com/Clementwa0/Job-tracker-sub001/internal/config"
	"github.com/Clementwa0/Job-tracker-sub001/internal/models"
	"github.com/Clementwa0/Job-tracker-sub001/internal/provider"
)

// Provider adapts an llms.Model to the Provider interface.
type Provider struct {
	name   string
	llm    llms.Model
	models []models.Model
}

var _ provider.Provider = (*Provider)(nil)

// New creates a Gemini client for the configured API key. The first configured
// model becomes the client default.
func New(ctx context.Context, name string, cfg config.ProviderConfig) (*Provider, error) {
	if len(cfg.Models) == 0 {
		return nil, errors.New("gemini provider requires at least one model")
	}

	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Models[0].ID),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return NewWithModel(name, cfg, llm)
}

// NewWithModel wraps an existing llms.Model.
func NewWithModel(name string, cfg config.ProviderConfig, llm llms.Model) (*Provider, error) {
	if llm == nil {
		return nil, errors.New("llm must not be nil")
	}

	modelsList := make([]models.Model, 0, len(cfg.Models))
	for _, model := range cfg.Models {
		if model.APIStyle != "" && model.APIStyle != config.APIStyleGemini {
			return nil, fmt.Errorf("gemini provider %q received model %q with unsupported api_style %q", name, model.ID, model.APIStyle)
		}
		modelsList = append(modelsList, models.Model{
			ID:       model.ID,
			Provider: name,
			APIStyle: config.APIStyleGemini,
		})
	}

	return &Provider{
		name:   name,
		llm:    llm,
		models: modelsList,
	}, nil
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) ListModels(ctx context.Context) ([]models.Model, error) {
	result := make([]models.Model, len(p.models))
	copy(result, p.models)
	return result, nil
}

func (p *Provider) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	messages, err := toMessageContent(req.Messages)
	if err != nil {
		return nil, err
	}

	resp, err := p.llm.GenerateContent(ctx, messages, callOptions(req)...)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errors.New("gemini response did not include choices")
	}

	choice := resp.Choices[0]
	return &models.ChatResponse{
		Message: models.Message{
			Role:    models.RoleAssistant,
			Content: choice.Content,
		},
		FinishReason: choice.StopReason,
		Usage:        usageFrom(choice.GenerationInfo),
	}, nil
}

// ChatStream runs GenerateContent with a streaming callback on its own
// goroutine. Returning an error from the callback aborts the upstream call once
// the consumer has gone away.
func (p *Provider) ChatStream(ctx context.Context, req models.ChatRequest) (<-chan models.StreamChunk, error) {
	messages, err := toMessageContent(req.Messages)
	if err != nil {
		return nil, err
	}

	ch := make(chan models.StreamChunk, provider.StreamBuffer)
	go func() {
		defer close(ch)

		onChunk := func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			if !provider.Send(ctx, ch, models.StreamChunk{Delta: string(chunk)}) {
				return ctx.Err()
			}
			return nil
		}

		opts := append(callOptions(req), llms.WithStreamingFunc(onChunk))
		if _, err := p.llm.GenerateContent(ctx, messages, opts...); err != nil && ctx.Err() == nil {
			provider.Send(ctx, ch, models.StreamChunk{Err: fmt.Errorf("gemini stream: %w", err)})
		}
	}()

	return ch, nil
}

func callOptions(req models.ChatRequest) []llms.CallOption {
	opts := []llms.CallOption{
		llms.WithModel(req.Model),
		llms.WithTemperature(req.Temperature),
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.TopP > 0 {
		opts = append(opts, llms.WithTopP(req.TopP))
	}
	return opts
}

func toMessageContent(messages []models.Message) ([]llms.MessageContent, error) {
	if len(messages) == 0 {
		return nil, errors.New("at least one message is required")
	}

	out := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		if strings.TrimSpace(msg.Content) == "" {
			return nil, errors.New("message content must not be empty")
		}

		var role schema.ChatMessageType
		switch msg.Role {
		case models.RoleSystem:
			role = schema.ChatMessageTypeSystem
		case models.RoleUser:
			role = schema.ChatMessageTypeHuman
		case models.RoleAssistant:
			role = schema.ChatMessageTypeAI
		default:
			return nil, fmt.Errorf("gemini provider does not support role %q", msg.Role)
		}
		out = append(out, llms.TextParts(role, msg.Content))
	}
	return out, nil
}

// usageFrom reads token counts from the generation info the googleai client
// attaches to each choice. Missing keys leave the counts at zero.
func usageFrom(info map[string]any) models.Usage {
	count := func(key string) int {
		switch v := info[key].(type) {
		case int:
			return v
		case int32:
			return int(v)
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
		return 0
	}

	usage := models.Usage{
		PromptTokens:     count("input_tokens"),
		CompletionTokens: count("output_tokens"),
		TotalTokens:      count("total_tokens"),
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	return usage
}
