// Package relay drives one AI request from validated input to a terminal
// outcome: a streamed body written through a transport.Writer, or a single
// post-processed result.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Clementwa0/Job-tracker-sub001/internal/config"
	"github.com/Clementwa0/Job-tracker-sub001/internal/models"
	"github.com/Clementwa0/Job-tracker-sub001/internal/observability"
	"github.com/Clementwa0/Job-tracker-sub001/internal/transport"
)

// Completer is the upstream chat capability. router.Router implements it.
type Completer interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, models.Model, error)
	ChatStream(ctx context.Context, req models.ChatRequest) (<-chan models.StreamChunk, models.Model, error)
}

// Call is one prompt plus its completion settings.
type Call struct {
	Model       string
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	TopP        float64
}

func newCall(route config.RouteConfig, system, user string) Call {
	return Call{
		Model:       route.Model,
		System:      system,
		User:        user,
		Temperature: route.Temperature,
		MaxTokens:   route.MaxTokens,
		TopP:        route.TopP,
	}
}

func (c Call) request(stream bool) models.ChatRequest {
	return models.ChatRequest{
		Model: c.Model,
		Messages: []models.Message{
			{Role: models.RoleSystem, Content: c.System},
			{Role: models.RoleUser, Content: c.User},
		},
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		TopP:        c.TopP,
		Stream:      stream,
	}
}

// Options configures an Engine.
type Options struct {
	Routes config.RoutesConfig
	// StreamTimeout bounds a whole streamed relay. Zero disables the bound.
	StreamTimeout time.Duration
	// TipParser defaults to TemplateTipParser.
	TipParser TipParser
}

// Engine is shared by all requests; it holds no per-request state.
type Engine struct {
	completer     Completer
	logger        *slog.Logger
	routes        config.RoutesConfig
	streamTimeout time.Duration
	tips          TipParser
}

// NewEngine constructs an Engine.
func NewEngine(completer Completer, logger *slog.Logger, opts Options) (*Engine, error) {
	if completer == nil {
		return nil, errors.New("completer must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	tips := opts.TipParser
	if tips == nil {
		tips = TemplateTipParser{}
	}
	return &Engine{
		completer:     completer,
		logger:        logger,
		routes:        opts.Routes,
		streamTimeout: opts.StreamTimeout,
		tips:          tips,
	}, nil
}

// StreamHeader returns the headers committed before the first fragment.
func StreamHeader() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	return h
}

// ReviewCV streams a CV review to w.
func (e *Engine) ReviewCV(ctx context.Context, p Payload, w transport.Writer) error {
	system, user := cvReviewMessages(p)
	return e.Stream(ctx, newCall(e.routes.CVReview, system, user), w)
}

// Stream relays a streamed completion to w. Headers are held until the
// upstream yields its first fragment, fails, or ends, so a failure before any
// content returns *UpstreamCallError with w untouched, whether the backend
// reports it from ChatStream or as the first chunk. Once w is open every
// outcome closes it, so a mid-stream failure only ends the body early. A gone
// client or cancelled ctx returns ErrClientDisconnected.
func (e *Engine) Stream(ctx context.Context, call Call, w transport.Writer) error {
	streamCtx, cancel := e.withStreamTimeout(ctx)
	defer cancel()

	fragments, model, err := e.completer.ChatStream(streamCtx, call.request(true))
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrClientDisconnected, ctx.Err())
		}
		return &UpstreamCallError{Op: "open stream", Err: err}
	}

	logger := e.logger.With("model", model.ID, "provider", model.Provider)

	first, open, err := awaitFirst(ctx, streamCtx, fragments)
	if err != nil {
		if errors.Is(err, ErrClientDisconnected) {
			logger.Debug("client disconnected before first fragment")
		} else {
			logger.Warn("upstream failed before first fragment", "error", err)
		}
		return err
	}

	if err := w.Open(http.StatusOK, StreamHeader()); err != nil {
		cancel()
		return fmt.Errorf("%w: %w", ErrClientDisconnected, err)
	}
	defer w.Close()

	observability.StreamingConnections.Inc()
	defer observability.StreamingConnections.Dec()

	start := time.Now()
	forwarded := 0

	forward := func(delta string) error {
		if err := w.Write([]byte(delta)); err != nil {
			// Cancelling releases the provider goroutine and the upstream body.
			cancel()
			logger.Debug("client write failed", "fragments", forwarded, "error", err)
			return fmt.Errorf("%w: %w", ErrClientDisconnected, err)
		}
		forwarded++
		observability.StreamFragmentsTotal.Inc()
		return nil
	}

	// interrupted classifies a stream that stopped because streamCtx ended.
	interrupted := func() error {
		if ctx.Err() != nil {
			logger.Debug("client disconnected mid-stream", "fragments", forwarded)
			return fmt.Errorf("%w: %w", ErrClientDisconnected, ctx.Err())
		}
		logger.Warn("stream timed out", "fragments", forwarded, "timeout", e.streamTimeout)
		return &UpstreamCallError{Op: "stream", Err: streamCtx.Err()}
	}

	if !open {
		logger.Debug("stream finished without content", "duration", time.Since(start))
		return nil
	}
	if err := forward(first); err != nil {
		return err
	}

	for {
		select {
		case <-streamCtx.Done():
			return interrupted()
		case chunk, ok := <-fragments:
			if !ok {
				if streamCtx.Err() != nil {
					return interrupted()
				}
				logger.Debug("stream finished", "fragments", forwarded, "duration", time.Since(start))
				return nil
			}
			if chunk.Err != nil {
				logger.Warn("upstream failed mid-stream", "fragments", forwarded, "error", chunk.Err)
				return &UpstreamCallError{Op: "stream", Err: chunk.Err}
			}
			if chunk.Delta == "" {
				continue
			}
			if err := forward(chunk.Delta); err != nil {
				return err
			}
		}
	}
}

// awaitFirst blocks until fragments yields a non-empty delta, reports an error,
// or closes. open is false when the stream ended cleanly without content.
func awaitFirst(ctx, streamCtx context.Context, fragments <-chan models.StreamChunk) (string, bool, error) {
	ended := func() error {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrClientDisconnected, ctx.Err())
		}
		return &UpstreamCallError{Op: "open stream", Err: streamCtx.Err()}
	}

	for {
		select {
		case <-streamCtx.Done():
			return "", false, ended()
		case chunk, ok := <-fragments:
			switch {
			case !ok:
				if streamCtx.Err() != nil {
					return "", false, ended()
				}
				return "", false, nil
			case chunk.Err != nil:
				return "", false, &UpstreamCallError{Op: "open stream", Err: chunk.Err}
			case chunk.Delta != "":
				return chunk.Delta, true, nil
			}
		}
	}
}

func (e *Engine) withStreamTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.streamTimeout > 0 {
		return context.WithTimeout(ctx, e.streamTimeout)
	}
	return context.WithCancel(ctx)
}

// Complete runs one buffered completion and returns its text.
func (e *Engine) Complete(ctx context.Context, call Call) (string, error) {
	resp, model, err := e.completer.Chat(ctx, call.request(false))
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", ErrClientDisconnected, ctx.Err())
		}
		return "", &UpstreamCallError{Op: "complete", Err: err}
	}

	e.logger.Debug("completion finished",
		"model", model.ID,
		"provider", model.Provider,
		"finish_reason", resp.FinishReason,
		"total_tokens", resp.Usage.TotalTokens,
	)
	return resp.Message.Content, nil
}

// ExtractJob asks the model for the fields of a job description.
func (e *Engine) ExtractJob(ctx context.Context, p Payload) (JobFields, error) {
	system, user := jobExtractMessages(p)
	raw, err := e.Complete(ctx, newCall(e.routes.JobExtract, system, user))
	if err != nil {
		return nil, err
	}
	return DecodeJobFields(raw)
}

// GenerateTip asks the model for a job-search tip.
func (e *Engine) GenerateTip(ctx context.Context) (Tip, error) {
	system, user := tipMessages()
	raw, err := e.Complete(ctx, newCall(e.routes.Tip, system, user))
	if err != nil {
		return Tip{}, err
	}
	return e.tips.ParseTip(raw), nil
}
