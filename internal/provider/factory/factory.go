package factory

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Clementwa0/Job-tracker-sub001/internal/config"
	"github.com/Clementwa0/Job-tracker-sub001/internal/provider"
	claudeProvider "github.com/Clementwa0/Job-tracker-sub001/internal/provider/claude"
	geminiProvider "github.com/Clementwa0/Job-tracker-sub001/internal/provider/gemini"
	openaiProvider "github.com/Clementwa0/Job-tracker-sub001/internal/provider/openai"
)

const (
	defaultDialTimeout     = 10 * time.Second
	defaultKeepAlive       = 30 * time.Second
	defaultIdleConnTimeout = 90 * time.Second
)

// RegisterConfiguredProviders constructs every configured provider and stores it
// in the registry. HTTP providers share one transport; the client timeout bounds
// buffered calls only.
func RegisterConfiguredProviders(ctx context.Context, cfg config.Config, registry *provider.Registry) error {
	if registry == nil {
		return errors.New("registry must not be nil")
	}

	client := newHTTPClient(cfg.Server.UpstreamTimeout)

	if pc := cfg.Providers.OpenAI; pc != nil {
		p, err := openaiProvider.New(config.APIStyleOpenAI, *pc, client)
		if err != nil {
			return fmt.Errorf("initialise openai provider: %w", err)
		}
		if err := registry.RegisterProvider(ctx, p, pc.Aliases); err != nil {
			return fmt.Errorf("register openai provider: %w", err)
		}
	}

	if pc := cfg.Providers.Claude; pc != nil {
		p, err := claudeProvider.New(config.APIStyleClaude, *pc, client)
		if err != nil {
			return fmt.Errorf("initialise claude provider: %w", err)
		}
		if err := registry.RegisterProvider(ctx, p, pc.Aliases); err != nil {
			return fmt.Errorf("register claude provider: %w", err)
		}
	}

	if pc := cfg.Providers.Gemini; pc != nil {
		p, err := geminiProvider.New(ctx, config.APIStyleGemini, *pc)
		if err != nil {
			return fmt.Errorf("initialise gemini provider: %w", err)
		}
		if err := registry.RegisterProvider(ctx, p, pc.Aliases); err != nil {
			return fmt.Errorf("register gemini provider: %w", err)
		}
	}

	return nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
