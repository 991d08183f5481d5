// Package report runs every registered store pair and configured AI provider
// once with canned input and folds the outcomes into a stability report.
package report

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fioso/internal/ai"
	"fioso/internal/logging"
	"fioso/internal/provider"
	"fioso/internal/store"
)

// Defaults for the harness timeouts and network check.
const (
	DefaultProbeTimeout   = 10 * time.Second
	DefaultNetworkTimeout = 5 * time.Second
	DefaultNetworkURL     = "https://google.com"
)

// Network states.
const (
	Online  = "online"
	Offline = "offline"
)

// HTTPClient describes an HTTP client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Dispatcher is the part of store.Dispatcher the harness drives.
type Dispatcher interface {
	Pairs() []store.Pair
	Dispatch(ctx context.Context, domain, key string) provider.Outcome
}

// Probe is one self-test invocation.
type Probe func(ctx context.Context) provider.Outcome

// Named ties a probe to the names reported for it.
type Named struct {
	Domain   string
	Provider string
	Run      Probe
}

// NetworkStatus is the result of the reachability check.
type NetworkStatus struct {
	Status  string        `json:"status"`
	Code    provider.Code `json:"code,omitempty"`
	Message string        `json:"message,omitempty"`
}

// Online reports whether the check succeeded.
func (n NetworkStatus) Online() bool {
	return n.Status == Online
}

// Report aggregates one harness run.
type Report struct {
	ID      uuid.UUID          `json:"id"`
	Tested  int                `json:"tested"`
	Results []provider.Outcome `json:"results"`
	Network NetworkStatus      `json:"network"`
	Stable  bool               `json:"stable"`
	Code    provider.Code      `json:"code,omitempty"`
}

// Config selects what RunAll probes. AI providers are probed only when their
// credentials are present.
type Config struct {
	Store      bool
	Cloudflare *ai.Credentials
	Gemini     *ai.Credentials
}

// Harness runs probes concurrently, each under its own timeout.
type Harness struct {
	dispatcher     Dispatcher
	httpClient     HTTPClient
	aiOptions      []ai.Option
	probeTimeout   time.Duration
	networkTimeout time.Duration
	networkURL     string
}

// HarnessOption is a configuration option for the Harness.
type HarnessOption func(*Harness)

// WithHTTPClient sets the client used for the network check.
func WithHTTPClient(httpClient HTTPClient) HarnessOption {
	return func(h *Harness) {
		h.httpClient = httpClient
	}
}

// WithAIOptions passes options to every AI gateway the harness builds.
func WithAIOptions(options ...ai.Option) HarnessOption {
	return func(h *Harness) {
		h.aiOptions = append(h.aiOptions, options...)
	}
}

// WithProbeTimeout sets the per-probe timeout.
func WithProbeTimeout(d time.Duration) HarnessOption {
	return func(h *Harness) {
		if d > 0 {
			h.probeTimeout = d
		}
	}
}

// WithNetworkCheck sets the reachability URL and its timeout.
func WithNetworkCheck(url string, timeout time.Duration) HarnessOption {
	return func(h *Harness) {
		if url != "" {
			h.networkURL = url
		}
		if timeout > 0 {
			h.networkTimeout = timeout
		}
	}
}

// NewHarness creates a Harness over d.
func NewHarness(d Dispatcher, options ...HarnessOption) *Harness {
	h := &Harness{
		dispatcher:     d,
		httpClient:     http.DefaultClient,
		probeTimeout:   DefaultProbeTimeout,
		networkTimeout: DefaultNetworkTimeout,
		networkURL:     DefaultNetworkURL,
	}
	for _, option := range options {
		option(h)
	}
	return h
}

// Probes builds the probe list for cfg: store pairs first, then AI providers.
func (h *Harness) Probes(cfg Config) []Named {
	var probes []Named
	if cfg.Store && h.dispatcher != nil {
		for _, p := range h.dispatcher.Pairs() {
			probes = append(probes, Named{
				Domain:   p.Domain,
				Provider: p.Provider,
				Run: func(ctx context.Context) provider.Outcome {
					return h.dispatcher.Dispatch(ctx, p.Domain, p.Provider)
				},
			})
		}
	}
	for _, c := range []struct {
		typ   ai.Type
		creds *ai.Credentials
	}{{ai.TypeCloudflare, cfg.Cloudflare}, {ai.TypeGemini, cfg.Gemini}} {
		if c.creds == nil {
			continue
		}
		typ, creds := c.typ, *c.creds
		probes = append(probes, Named{
			Provider: string(typ),
			Run: func(ctx context.Context) provider.Outcome {
				return ai.Probe(ctx, typ, creds, h.aiOptions...)
			},
		})
	}
	return probes
}

// RunAll probes everything cfg selects plus the network.
func (h *Harness) RunAll(ctx context.Context, cfg Config) Report {
	return h.Run(ctx, h.Probes(cfg))
}

// Run executes probes and the network check concurrently and aggregates them.
// Each goroutine writes only its own slot.
func (h *Harness) Run(ctx context.Context, probes []Named) Report {
	r := Report{
		ID:      uuid.New(),
		Tested:  len(probes),
		Results: make([]provider.Outcome, len(probes)),
	}

	var g errgroup.Group
	g.Go(func() error {
		r.Network = h.checkNetwork(ctx)
		return nil
	})
	for i, p := range probes {
		g.Go(func() error {
			out := RunWithTimeout(ctx, h.probeTimeout, p.Run)
			if out.Domain == "" {
				out.Domain = p.Domain
			}
			if out.Provider == "" {
				out.Provider = p.Provider
			}
			r.Results[i] = out
			return nil
		})
	}
	_ = g.Wait()

	r.Stable, r.Code = Summarize(r.Network, r.Results)

	logging.FromContext(ctx).Info("report",
		"id", r.ID, "tested", r.Tested, "network", r.Network.Status, "stable", r.Stable, "code", r.Code)
	return r
}

// RunWithTimeout runs p and gives up waiting after timeout. The probe is not
// cancelled; its result is dropped if it arrives late.
func RunWithTimeout(ctx context.Context, timeout time.Duration, p Probe) provider.Outcome {
	if p == nil {
		return provider.Outcome{
			Status:  provider.StatusError,
			Code:    provider.CodeNotCallable,
			Message: "probe is not callable",
		}
	}

	done := make(chan provider.Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- provider.Outcome{
					Status:  provider.StatusError,
					Code:    provider.CodeFetch,
					Message: fmt.Sprintf("probe panicked: %v", r),
				}
			}
		}()
		done <- p(context.WithoutCancel(ctx))
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out
	case <-timer.C:
		return provider.Outcome{
			Status: provider.StatusTimeout,
			TimeMS: timeout.Milliseconds(),
			Code:   provider.CodeTimeout,
		}
	case <-ctx.Done():
		return provider.Outcome{
			Status:  provider.StatusTimeout,
			Code:    provider.CodeTimeout,
			Message: ctx.Err().Error(),
		}
	}
}

func (h *Harness) checkNetwork(ctx context.Context) NetworkStatus {
	ctx, cancel := context.WithTimeout(ctx, h.networkTimeout)
	defer cancel()

	offline := func(err error) NetworkStatus {
		return NetworkStatus{Status: Offline, Code: provider.CodeNetworkOffline, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.networkURL, http.NoBody)
	if err != nil {
		return offline(fmt.Errorf("creating request: %w", err))
	}
	res, err := h.httpClient.Do(req)
	if err != nil {
		return offline(fmt.Errorf("performing request: %w", err))
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return offline(fmt.Errorf("unexpected status code: %d", res.StatusCode))
	}
	return NetworkStatus{Status: Online}
}

// Summarize decides stability and the report code. The network code wins, then
// the first result carrying a code, then CodeUnstable.
func Summarize(network NetworkStatus, results []provider.Outcome) (bool, provider.Code) {
	stable := network.Online()
	for _, r := range results {
		if !r.OK() {
			stable = false
		}
	}
	if stable {
		return true, ""
	}
	if network.Code != "" {
		return false, network.Code
	}
	for _, r := range results {
		if r.Code != "" {
			return false, r.Code
		}
	}
	return false, provider.CodeUnstable
}
