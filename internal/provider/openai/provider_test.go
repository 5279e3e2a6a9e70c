package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clementwa0/Job-tracker-sub001/internal/config"
	"github.com/Clementwa0/Job-tracker-sub001/internal/models"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := New("openai", config.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1/",
		Models:  []config.ModelConfig{{ID: "llama"}},
		Headers: config.Headers{"X-Team": "jobs"},
	}, srv.Client())
	require.NoError(t, err)
	return p
}

func sampleRequest() models.ChatRequest {
	return models.ChatRequest{
		Model: "llama",
		Messages: []models.Message{
			{Role: models.RoleSystem, Content: "be brief"},
			{Role: models.RoleUser, Content: "hello"},
		},
		Temperature: 0.5,
		MaxTokens:   64,
		TopP:        1,
	}
}

func collect(t *testing.T, ch <-chan models.StreamChunk) ([]string, error) {
	t.Helper()
	var deltas []string
	timeout := time.After(5 * time.Second)
	for {
		select {
		case chunk, ok := <-ch:
			if !ok {
				return deltas, nil
			}
			if chunk.Err != nil {
				return deltas, chunk.Err
			}
			deltas = append(deltas, chunk.Delta)
		case <-timeout:
			t.Fatal("stream did not finish")
		}
	}
}

func TestChatSendsPayloadAndParsesReply(t *testing.T) {
	var got chatPayload
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "jobs", r.Header.Get("X-Team"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cmpl-1","choices":[{"index":0,"message":{"role":"assistant","content":"hi there"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`)
	})

	resp, err := p.Chat(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, "hi there", resp.Message.Content)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
	assert.False(t, got.Stream)
	assert.Equal(t, 64, got.MaxTokens)
	assert.Len(t, got.Messages, 2)
}

func TestChatMapsUpstreamError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down","type":"rate_limit"}}`)
	})

	_, err := p.Chat(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slow down")
}

func TestChatStreamForwardsDeltasInOrder(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var payload chatPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.True(t, payload.Stream)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		frames := []string{
			`{"choices":[{"delta":{"role":"assistant"}}]}`,
			`{"choices":[{"delta":{"content":"Hel"}}]}`,
			`{"choices":[{"delta":{"content":""}}]}`,
			`{"choices":[{"delta":{"content":"lo"}}]}`,
			`{"choices":[{"delta":{"content":" World"},"finish_reason":null}]}`,
			`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
			`[DONE]`,
		}
		for _, f := range frames {
			fmt.Fprintf(w, "data: %s\n\n", f)
			w.(http.Flusher).Flush()
		}
	})

	ch, err := p.ChatStream(context.Background(), sampleRequest())
	require.NoError(t, err)

	deltas, err := collect(t, ch)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo", " World"}, deltas)
}

func TestChatStreamReportsMalformedChunk(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n")
		fmt.Fprint(w, "data: {not json\n\n")
	})

	ch, err := p.ChatStream(context.Background(), sampleRequest())
	require.NoError(t, err)

	deltas, err := collect(t, ch)
	assert.Equal(t, []string{"ok"}, deltas)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode stream chunk")
}

func TestChatStreamRejectsErrorStatusBeforeStreaming(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"auth"}}`)
	})

	_, err := p.ChatStream(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}

func TestChatStreamReleasesUpstreamOnCancel(t *testing.T) {
	upstreamGone := make(chan struct{})
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"first\"}}]}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
		close(upstreamGone)
	})

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := p.ChatStream(ctx, sampleRequest())
	require.NoError(t, err)

	first := <-ch
	assert.Equal(t, "first", first.Delta)
	cancel()

	select {
	case <-upstreamGone:
	case <-time.After(5 * time.Second):
		t.Fatal("upstream connection was not released")
	}

	for range ch {
	}
}

func TestNewRejectsForeignAPIStyle(t *testing.T) {
	_, err := New("openai", config.ProviderConfig{
		BaseURL: "https://example.test",
		Models:  []config.ModelConfig{{ID: "claude", APIStyle: "claude"}},
	}, http.DefaultClient)
	assert.Error(t, err)

	_, err = New("openai", config.ProviderConfig{}, nil)
	assert.Error(t, err)
}

func TestParseStreamChunkError(t *testing.T) {
	_, err := parseStreamChunk(`{"error":{"message":"overloaded","type":"server"}}`)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "overloaded"))

	delta, err := parseStreamChunk(`{"choices":[]}`)
	require.NoError(t, err)
	assert.Empty(t, delta)
}
