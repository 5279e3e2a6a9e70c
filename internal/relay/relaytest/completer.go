// Package relaytest provides a scripted relay.Completer for tests.
package relaytest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Clementwa0/Job-tracker-sub001/internal/models"
)

// StreamFunc produces a fragment channel for the context of one call.
type StreamFunc func(ctx context.Context) <-chan models.StreamChunk

// MockCompleter is a testify mock of relay.Completer. ChatStream expectations
// may return either a channel or a StreamFunc.
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, models.Model, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.ChatResponse)
	return resp, args.Get(1).(models.Model), args.Error(2)
}

func (m *MockCompleter) ChatStream(ctx context.Context, req models.ChatRequest) (<-chan models.StreamChunk, models.Model, error) {
	args := m.Called(ctx, req)
	model := args.Get(1).(models.Model)

	switch v := args.Get(0).(type) {
	case StreamFunc:
		return v(ctx), model, args.Error(2)
	case <-chan models.StreamChunk:
		return v, model, args.Error(2)
	}
	return nil, model, args.Error(2)
}

// Model is the model reported by scripted calls.
var Model = models.Model{ID: "test-model", Provider: "test"}

// Reply builds a buffered response carrying content.
func Reply(content string) *models.ChatResponse {
	return &models.ChatResponse{
		Message: models.Message{Role: models.RoleAssistant, Content: content},
	}
}

// Fragments returns a closed channel that yields deltas in order, followed by
// a failure chunk when err is non-nil.
func Fragments(err error, deltas ...string) <-chan models.StreamChunk {
	ch := make(chan models.StreamChunk, len(deltas)+1)
	for _, d := range deltas {
		ch <- models.StreamChunk{Delta: d}
	}
	if err != nil {
		ch <- models.StreamChunk{Err: err}
	}
	close(ch)
	return ch
}

// Endless returns a StreamFunc that emits delta until ctx is done and then
// closes the channel. released is closed once the producer has stopped.
func Endless(delta string, released chan<- struct{}) StreamFunc {
	return func(ctx context.Context) <-chan models.StreamChunk {
		ch := make(chan models.StreamChunk)
		go func() {
			defer close(released)
			defer close(ch)
			for {
				select {
				case ch <- models.StreamChunk{Delta: delta}:
				case <-ctx.Done():
					return
				}
			}
		}()
		return ch
	}
}
