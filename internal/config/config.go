package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	APIStyleOpenAI = "openai"
	APIStyleClaude = "claude"
	APIStyleGemini = "gemini"
)

// Config represents the application configuration parsed from YAML.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Providers ProvidersConfig `yaml:"providers"`
	Routes    RoutesConfig    `yaml:"routes"`
}

// ServerConfig defines listener and request limits.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	StreamTimeout   time.Duration `yaml:"stream_timeout"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ProvidersConfig catalogues configured upstream providers. At least one must be set.
type ProvidersConfig struct {
	OpenAI *ProviderConfig `yaml:"openai"`
	Claude *ProviderConfig `yaml:"claude"`
	Gemini *ProviderConfig `yaml:"gemini"`
}

// ProviderConfig captures authentication and routing info for a provider.
type ProviderConfig struct {
	APIKey  string            `yaml:"api_key"`
	BaseURL string            `yaml:"base_url"`
	Models  []ModelConfig     `yaml:"models"`
	Headers Headers           `yaml:"headers"`
	Aliases map[string]string `yaml:"aliases"`
}

// Headers contains additional HTTP headers to send with a provider request.
type Headers map[string]string

// ModelConfig describes a model exposed by a provider.
type ModelConfig struct {
	ID       string `yaml:"id"`
	APIStyle string `yaml:"api_style"`
}

// RoutesConfig holds the completion settings of each AI route.
type RoutesConfig struct {
	CVReview   RouteConfig `yaml:"cv_review"`
	JobExtract RouteConfig `yaml:"job_extract"`
	Tip        RouteConfig `yaml:"tip"`
}

// RouteConfig is the upstream model and sampling setup for one route. MinLength
// and MaxLength bound the accepted input in characters; zero disables the bound.
type RouteConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TopP        float64 `yaml:"top_p"`
	MinLength   int     `yaml:"min_length"`
	MaxLength   int     `yaml:"max_length"`
}

// Default returns the configuration used for any key the YAML file omits.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			MaxBodyBytes:    1 << 20,
			StreamTimeout:   2 * time.Minute,
			UpstreamTimeout: 60 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Routes: RoutesConfig{
			CVReview: RouteConfig{
				Temperature: 0.7,
				MaxTokens:   1024,
				TopP:        1,
				MinLength:   50,
				MaxLength:   5000,
			},
			JobExtract: RouteConfig{
				Temperature: 0.2,
				MaxTokens:   1024,
				TopP:        1,
			},
			Tip: RouteConfig{
				Temperature: 0.9,
				MaxTokens:   256,
				TopP:        1,
			},
		},
	}
}

// Load reads YAML configuration from disk, expands ${VAR} references from the
// environment and validates the result.
func Load(path string) (Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", absPath, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config file %q: %w", absPath, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate performs strict sanity checks on the configuration.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}
	if c.Server.StreamTimeout < 0 {
		return fmt.Errorf("server.stream_timeout must not be negative, got %s", c.Server.StreamTimeout)
	}
	if c.Server.UpstreamTimeout <= 0 {
		return fmt.Errorf("server.upstream_timeout must be positive, got %s", c.Server.UpstreamTimeout)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q must be one of debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q must be text or json", c.Log.Format)
	}

	providers := c.Providers.configured()
	if len(providers) == 0 {
		return errors.New("providers: at least one provider must be configured")
	}
	for name, provider := range providers {
		if err := validateProvider(name, provider); err != nil {
			return err
		}
	}

	routes := map[string]RouteConfig{
		"cv_review":   c.Routes.CVReview,
		"job_extract": c.Routes.JobExtract,
		"tip":         c.Routes.Tip,
	}
	for name, route := range routes {
		if err := validateRoute(name, route); err != nil {
			return err
		}
	}

	return nil
}

// configured returns the providers present in the file, keyed by their api style.
func (p ProvidersConfig) configured() map[string]ProviderConfig {
	out := make(map[string]ProviderConfig, 3)
	if p.OpenAI != nil {
		out[APIStyleOpenAI] = *p.OpenAI
	}
	if p.Claude != nil {
		out[APIStyleClaude] = *p.Claude
	}
	if p.Gemini != nil {
		out[APIStyleGemini] = *p.Gemini
	}
	return out
}

func validateProvider(name string, provider ProviderConfig) error {
	if strings.TrimSpace(provider.APIKey) == "" {
		return fmt.Errorf("provider %s: api_key must be provided", name)
	}
	// The Gemini client resolves its own endpoint.
	if name != APIStyleGemini && strings.TrimSpace(provider.BaseURL) == "" {
		return fmt.Errorf("provider %s: base_url must be provided", name)
	}
	if len(provider.Models) == 0 {
		return fmt.Errorf("provider %s: at least one model must be configured", name)
	}

	for _, model := range provider.Models {
		if strings.TrimSpace(model.ID) == "" {
			return fmt.Errorf("provider %s: model id must not be empty", name)
		}
		if err := validateAPIStyle(name, model.APIStyle); err != nil {
			return err
		}
	}

	for headerKey := range provider.Headers {
		if !isCanonicalHTTPHeader(headerKey) {
			return fmt.Errorf("provider %s: header %q is not a valid canonical HTTP header", name, headerKey)
		}
	}

	for alias, target := range provider.Aliases {
		if strings.TrimSpace(alias) == "" {
			return fmt.Errorf("provider %s: alias name must not be empty", name)
		}
		if strings.TrimSpace(target) == "" {
			return fmt.Errorf("provider %s: alias %q target must not be empty", name, alias)
		}
	}

	return nil
}

// validateAPIStyle accepts an empty style, which inherits the provider's own.
func validateAPIStyle(providerName, style string) error {
	if style == "" || style == providerName {
		return nil
	}
	return fmt.Errorf("provider %s: model api_style %q must be empty or %q", providerName, style, providerName)
}

func validateRoute(name string, route RouteConfig) error {
	if strings.TrimSpace(route.Model) == "" {
		return fmt.Errorf("routes.%s: model must be provided", name)
	}
	if route.Temperature < 0 || route.Temperature > 2 {
		return fmt.Errorf("routes.%s: temperature must be within [0, 2], got %g", name, route.Temperature)
	}
	if route.TopP <= 0 || route.TopP > 1 {
		return fmt.Errorf("routes.%s: top_p must be within (0, 1], got %g", name, route.TopP)
	}
	if route.MaxTokens <= 0 {
		return fmt.Errorf("routes.%s: max_tokens must be positive, got %d", name, route.MaxTokens)
	}
	if route.MinLength < 0 || route.MaxLength < 0 {
		return fmt.Errorf("routes.%s: length bounds must not be negative", name)
	}
	if route.MaxLength > 0 && route.MaxLength < route.MinLength {
		return fmt.Errorf("routes.%s: max_length %d is below min_length %d", name, route.MaxLength, route.MinLength)
	}
	return nil
}

func isCanonicalHTTPHeader(header string) bool {
	if header == "" {
		return false
	}

	for _, r := range header {
		if !(r == '-' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')) {
			return false
		}
	}
	return true
}
