package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clementwa0/Job-tracker-sub001/internal/models"
)

type stubProvider struct {
	name   string
	models []models.Model
}

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) ListModels(context.Context) ([]models.Model, error) { return s.models, nil }

func (s stubProvider) Chat(context.Context, models.ChatRequest) (*models.ChatResponse, error) {
	return nil, errors.New("not implemented")
}

func (s stubProvider) ChatStream(context.Context, models.ChatRequest) (<-chan models.StreamChunk, error) {
	return nil, errors.New("not implemented")
}

func newStub(name string, ids ...string) stubProvider {
	p := stubProvider{name: name}
	for _, id := range ids {
		p.models = append(p.models, models.Model{ID: id, Provider: name})
	}
	return p
}

func TestRegistryLookupAndAliases(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	require.NoError(t, r.RegisterProvider(ctx, newStub("openai", "llama", "mixtral"), map[string]string{"fast": "llama"}))
	require.NoError(t, r.RegisterProvider(ctx, newStub("claude", "claude-haiku"), nil))

	model, p, err := r.LookupModel("fast")
	require.NoError(t, err)
	assert.Equal(t, "llama", model.ID)
	assert.Equal(t, "openai", p.Name())

	_, _, err = r.LookupModel("gpt-9")
	assert.ErrorIs(t, err, ErrUnknownModel)

	ids := make([]string, 0)
	for _, m := range r.Models() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"claude-haiku", "llama", "mixtral"}, ids)
}

func TestRegistryRejectsConflicts(t *testing.T) {
	ctx := context.Background()

	r := NewRegistry()
	require.NoError(t, r.RegisterProvider(ctx, newStub("a", "m1"), nil))
	assert.ErrorIs(t, r.RegisterProvider(ctx, newStub("b", "m1"), nil), ErrDuplicateModel)
	assert.Error(t, r.RegisterProvider(ctx, newStub("a", "m2"), nil))

	r = NewRegistry()
	assert.Error(t, r.RegisterProvider(ctx, newStub("a", "m1"), map[string]string{"m1": "m1"}))

	r = NewRegistry()
	assert.Error(t, r.RegisterProvider(ctx, newStub("a", "m1"), map[string]string{"x": "missing"}))

	assert.Error(t, NewRegistry().RegisterProvider(ctx, nil, nil))
}

func TestSendStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan models.StreamChunk)

	done := make(chan bool, 1)
	go func() { done <- Send(ctx, ch, models.StreamChunk{Delta: "x"}) }()

	cancel()
	select {
	case delivered := <-done:
		assert.False(t, delivered)
	case <-time.After(time.Second):
		t.Fatal("Send did not return after cancellation")
	}
}
