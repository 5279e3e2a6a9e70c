package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Clementwa0/Job-tracker-sub001/internal/config"
	"github.com/Clementwa0/Job-tracker-sub001/internal/models"
	"github.com/Clementwa0/Job-tracker-sub001/internal/provider"
)

const (
	contentTypeJSON = "application/json"
	contentTypeSSE  = "text/event-stream"
	userAgent       = "jobtracker-ai/1.0"
	apiVersion      = "2023-06-01"
)

// Stream event types of the Messages API that the provider acts on.
const (
	eventContentBlockDelta = "content_block_delta"
	eventMessageStop       = "message_stop"
	eventError             = "error"
)

// Provider implements Anthropic Claude API interactions.
type Provider struct {
	name     string
	apiKey   string
	headers  map[string]string
	client   *http.Client
	stream   *http.Client
	models   []models.Model
	messages string
}

var _ provider.Provider = (*Provider)(nil)

// New constructs a Claude provider instance.
func New(name string, cfg config.ProviderConfig, client *http.Client) (*Provider, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("base url must not be empty")
	}

	modelsList := make([]models.Model, 0, len(cfg.Models))
	for _, model := range cfg.Models {
		if model.APIStyle != "" && model.APIStyle != config.APIStyleClaude {
			return nil, fmt.Errorf("claude provider %q received model %q with unsupported api_style %q", name, model.ID, model.APIStyle)
		}
		modelsList = append(modelsList, models.Model{
			ID:       model.ID,
			Provider: name,
			APIStyle: config.APIStyleClaude,
		})
	}

	return &Provider{
		name:     name,
		apiKey:   cfg.APIKey,
		headers:  cfg.Headers,
		client:   client,
		stream:   &http.Client{Transport: client.Transport},
		models:   modelsList,
		messages: baseURL + "/v1/messages",
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
	req.Stream = false
	payload, err := buildMessagePayload(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := p.newRequest(ctx, payload, contentTypeJSON)
	if err != nil {
		return nil, err
	}

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("claude chat request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 400 {
		return nil, parseAPIError(httpResp)
	}

	var providerResp messageResponse
	if err := decodeJSON(httpResp.Body, &providerResp); err != nil {
		return nil, err
	}

	return providerResp.toUnified()
}

func (p *Provider) ChatStream(ctx context.Context, req models.ChatRequest) (<-chan models.StreamChunk, error) {
	req.Stream = true
	payload, err := buildMessagePayload(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := p.newRequest(ctx, payload, contentTypeSSE)
	if err != nil {
		return nil, err
	}

	httpResp, err := p.stream.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("claude stream request failed: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		defer httpResp.Body.Close()
		return nil, parseAPIError(httpResp)
	}

	ch := make(chan models.StreamChunk, provider.StreamBuffer)
	go func() {
		defer close(ch)
		defer httpResp.Body.Close()

		err := provider.ScanSSE(httpResp.Body, func(data string) (bool, error) {
			event, err := parseStreamEvent(data)
			if err != nil {
				return false, err
			}
			switch event.Type {
			case eventMessageStop:
				return false, nil
			case eventError:
				return false, fmt.Errorf("claude stream error (%s): %s", event.Error.Type, event.Error.Message)
			case eventContentBlockDelta:
				if event.Delta.Text == "" {
					return true, nil
				}
				return provider.Send(ctx, ch, models.StreamChunk{Delta: event.Delta.Text}), nil
			}
			return true, nil
		})
		if err != nil && ctx.Err() == nil {
			provider.Send(ctx, ch, models.StreamChunk{Err: err})
		}
	}()

	return ch, nil
}

func (p *Provider) newRequest(ctx context.Context, payload any, accept string) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.messages, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("construct request: %w", err)
	}

	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

type messagePayload struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	System      string    `json:"system,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// buildMessagePayload lifts system messages into the top-level system field,
// which the Messages API requires.
func buildMessagePayload(req models.ChatRequest) (messagePayload, error) {
	messages := make([]message, 0, len(req.Messages))
	var systemParts []string

	for _, msg := range req.Messages {
		role := strings.ToLower(strings.TrimSpace(msg.Role))
		switch role {
		case models.RoleSystem:
			if strings.TrimSpace(msg.Content) != "" {
				systemParts = append(systemParts, msg.Content)
			}
		case models.RoleUser, models.RoleAssistant:
			text := strings.TrimSpace(msg.Content)
			if text == "" {
				return messagePayload{}, errors.New("claude messages must not be empty")
			}
			messages = append(messages, message{
				Role: role,
				Content: []contentBlock{
					{Type: "text", Text: text},
				},
			})
		default:
			return messagePayload{}, fmt.Errorf("claude provider does not support role %q", msg.Role)
		}
	}

	if len(messages) == 0 {
		return messagePayload{}, errors.New("claude request requires at least one user message")
	}
	if messages[0].Role != models.RoleUser {
		return messagePayload{}, errors.New("claude conversation must start with a user message")
	}
	if req.MaxTokens <= 0 {
		return messagePayload{}, errors.New("claude requests require a positive max_tokens value")
	}

	temperature := req.Temperature
	payload := messagePayload{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: &temperature,
		Stream:      req.Stream,
	}

	if len(systemParts) > 0 {
		payload.System = strings.Join(systemParts, "\n\n")
	}
	// Claude rejects requests that set both temperature and a non-default top_p.
	if req.TopP > 0 && req.TopP < 1 {
		topP := req.TopP
		payload.TopP = &topP
	}

	return payload, nil
}

type messageResponse struct {
	ID         string         `json:"id"`
	Role       string         `json:"role"`
	Content    []contentBlock `json:"content"`
	Usage      usageBlock     `json:"usage"`
	StopReason string         `json:"stop_reason"`
	Error      *apiError      `json:"error,omitempty"`
}

type usageBlock struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func (r messageResponse) toUnified() (*models.ChatResponse, error) {
	if r.Error != nil && r.Error.Message != "" {
		return nil, fmt.Errorf("claude error (%s): %s", r.Error.Type, r.Error.Message)
	}
	if len(r.Content) == 0 {
		return nil, errors.New("claude response missing content blocks")
	}

	text := strings.Builder{}
	for _, block := range r.Content {
		if block.Type != "text" {
			return nil, fmt.Errorf("claude returned unsupported content block type %q", block.Type)
		}
		text.WriteString(block.Text)
	}

	role := r.Role
	if role == "" {
		role = models.RoleAssistant
	}

	return &models.ChatResponse{
		ID: r.ID,
		Message: models.Message{
			Role:    role,
			Content: text.String(),
		},
		FinishReason: r.StopReason,
		Usage: models.Usage{
			PromptTokens:     r.Usage.InputTokens,
			CompletionTokens: r.Usage.OutputTokens,
			TotalTokens:      r.Usage.InputTokens + r.Usage.OutputTokens,
		},
	}, nil
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error apiError `json:"error"`
}

func parseStreamEvent(data string) (streamEvent, error) {
	var event streamEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return streamEvent{}, fmt.Errorf("decode stream event: %w", err)
	}
	if event.Type == "" {
		return streamEvent{}, errors.New("decode stream event: missing type")
	}
	return event, nil
}

type apiErrorResponse struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func parseAPIError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("upstream error status %d and failed to read body: %w", resp.StatusCode, err)
	}

	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("claude error (%s): %s", apiErr.Error.Type, apiErr.Error.Message)
	}

	return fmt.Errorf("upstream error status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

func decodeJSON(reader io.Reader, target any) error {
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
