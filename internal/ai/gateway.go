// Package ai exposes a uniform prompt gateway over the supported inference
// providers.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fioso/internal/ai/cloudflare"
	"fioso/internal/ai/gemini"
	"fioso/internal/logging"
)

// Type is a supported provider.
type Type string

const (
	TypeCloudflare Type = "CLOUDFLARE"
	TypeGemini     Type = "GEMINI"
)

// Types lists the supported providers in probe order.
var Types = []Type{TypeCloudflare, TypeGemini}

// ErrUnsupportedType is returned for any provider outside Types.
var ErrUnsupportedType = errors.New("unsupported AI type")

// Request timeouts.
const (
	DefaultTimeout  = 30 * time.Second
	UnstableTimeout = 50 * time.Second
)

// ParseType resolves a provider name case-insensitively.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedType, s)
}

// HTTPClient describes an HTTP client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials carries what each provider needs. Cloudflare uses AccountID,
// APIToken and Model (the probe model); Gemini uses Key.
type Credentials struct {
	AccountID string `json:"accountid" toml:"account_id"`
	APIToken  string `json:"api_token" toml:"api_token"`
	Model     string `json:"model" toml:"model"`
	Key       string `json:"key" toml:"key"`
}

// Config is the runtime configuration a gateway is built with.
type Config struct {
	// Unstable selects the longer request timeout for slow runtimes.
	Unstable bool
}

// Timeout returns the per-request timeout for cfg.
func (cfg Config) Timeout() time.Duration {
	if cfg.Unstable {
		return UnstableTimeout
	}
	return DefaultTimeout
}

// Func sends prompt to model and returns the provider's decoded JSON body,
// untouched. A string prompt is wrapped in the provider's chat envelope; any
// other value is sent as the request body verbatim.
type Func func(ctx context.Context, model string, prompt any) (any, error)

type gateway struct {
	cfg        Config
	timeout    time.Duration
	baseURL    string
	httpClient HTTPClient
}

// Option configures a gateway.
type Option func(*gateway)

// WithConfig sets the runtime configuration.
func WithConfig(cfg Config) Option {
	return func(g *gateway) {
		g.cfg = cfg
	}
}

// WithTimeout overrides the configured request timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *gateway) {
		g.timeout = d
	}
}

// WithBaseURL points the provider client at another host.
func WithBaseURL(baseURL string) Option {
	return func(g *gateway) {
		g.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used by the provider client.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(g *gateway) {
		g.httpClient = httpClient
	}
}

// New returns the prompt function for the named provider.
func New(typ string, creds Credentials, options ...Option) (Func, error) {
	t, err := ParseType(typ)
	if err != nil {
		return nil, err
	}

	g := &gateway{httpClient: http.DefaultClient}
	for _, option := range options {
		option(g)
	}
	if g.timeout <= 0 {
		g.timeout = g.cfg.Timeout()
	}

	var send func(ctx context.Context, model string, body any) (any, error)
	var wrap func(prompt string) any
	switch t {
	case TypeCloudflare:
		opts := []cloudflare.ClientOption{cloudflare.WithHTTPClient(g.httpClient)}
		if g.baseURL != "" {
			opts = append(opts, cloudflare.WithBaseURL(g.baseURL))
		}
		client, err := cloudflare.NewClient(creds.AccountID, creds.APIToken, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating cloudflare client: %w", err)
		}
		send = client.Run
		wrap = func(p string) any { return cloudflare.NewRequest(p) }

	case TypeGemini:
		opts := []gemini.ClientOption{gemini.WithHTTPClient(g.httpClient)}
		if g.baseURL != "" {
			opts = append(opts, gemini.WithBaseURL(g.baseURL))
		}
		client, err := gemini.NewClient(creds.Key, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		send = client.GenerateContent
		wrap = func(p string) any { return gemini.NewRequest(p) }
	}

	return func(ctx context.Context, model string, prompt any) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		body := prompt
		switch p := prompt.(type) {
		case string:
			body = wrap(p)
		case []byte:
			body = json.RawMessage(p)
		}

		logging.FromContext(ctx).Debug("ai request", "type", t, "model", model, "timeout", g.timeout)
		return send(ctx, model, body)
	}, nil
}
