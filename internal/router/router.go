package router

import (
	"context"
	"fmt"
	"time"

	"github.com/Clementwa0/Job-tracker-sub001/internal/models"
	"github.com/Clementwa0/Job-tracker-sub001/internal/observability"
	"github.com/Clementwa0/Job-tracker-sub001/internal/provider"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// Router dispatches unified requests to the appropriate provider.
type Router struct {
	registry *provider.Registry
}

// New constructs a router backed by the provided registry.
func New(registry *provider.Registry) *Router {
	return &Router{
		registry: registry,
	}
}

// Chat routes a buffered chat request to the provider serving req.Model.
func (r *Router) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, models.Model, error) {
	modelInfo, providerImpl, err := r.registry.LookupModel(req.Model)
	if err != nil {
		return nil, models.Model{}, err
	}

	sanitisedReq := req
	sanitisedReq.Model = modelInfo.ID
	sanitisedReq.Messages = cloneMessages(req.Messages)

	start := time.Now()
	resp, err := providerImpl.Chat(ctx, sanitisedReq)
	observe(providerImpl.Name(), modelInfo.ID, start, err)
	if err != nil {
		return nil, models.Model{}, fmt.Errorf("provider %s chat request: %w", providerImpl.Name(), err)
	}

	observability.ProviderTokensTotal.WithLabelValues(providerImpl.Name(), modelInfo.ID, "input").Add(float64(resp.Usage.PromptTokens))
	observability.ProviderTokensTotal.WithLabelValues(providerImpl.Name(), modelInfo.ID, "output").Add(float64(resp.Usage.CompletionTokens))
	return resp, modelInfo, nil
}

// ChatStream routes a streaming chat request. The returned channel belongs to
// the provider and is closed by it.
func (r *Router) ChatStream(ctx context.Context, req models.ChatRequest) (<-chan models.StreamChunk, models.Model, error) {
	modelInfo, providerImpl, err := r.registry.LookupModel(req.Model)
	if err != nil {
		return nil, models.Model{}, err
	}

	sanitisedReq := req
	sanitisedReq.Model = modelInfo.ID
	sanitisedReq.Messages = cloneMessages(req.Messages)

	start := time.Now()
	ch, err := providerImpl.ChatStream(ctx, sanitisedReq)
	observe(providerImpl.Name(), modelInfo.ID, start, err)
	if err != nil {
		return nil, models.Model{}, fmt.Errorf("provider %s stream request: %w", providerImpl.Name(), err)
	}
	return ch, modelInfo, nil
}

// Models lists the registered models.
func (r *Router) Models() []models.Model {
	return r.registry.Models()
}

func observe(providerName, model string, start time.Time, err error) {
	status := statusOK
	if err != nil {
		status = statusError
	}
	observability.ProviderRequestsTotal.WithLabelValues(providerName, model, status).Inc()
	observability.ProviderLatency.WithLabelValues(providerName, model).Observe(time.Since(start).Seconds())
}

func cloneMessages(messages []models.Message) []models.Message {
	if len(messages) == 0 {
		return nil
	}
	out := make([]models.Message, len(messages))
	copy(out, messages)
	return out
}
