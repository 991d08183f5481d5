// Package modules assembles the store, ai and report modules into a
// namespace callable by name.
package modules

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"fioso/internal/ai"
	"fioso/internal/report"
	"fioso/internal/store"
)

// Version is the namespace version.
const Version = "v0.0.5"

// Module names.
const (
	Store  = "store"
	AI     = "ai"
	Report = "report"
)

var (
	// ErrUnknownModule is returned by Call for a name that was never loaded.
	ErrUnknownModule = errors.New("unknown module")
	// ErrBadRequest is returned when a Request lacks what the module needs.
	ErrBadRequest = errors.New("bad request")
)

// Runtime is the process-level configuration handed to every module.
type Runtime struct {
	Unstable bool
}

// Request is the uniform module input. Store reads Domain/Provider; ai reads
// Type, Model, Prompt and the matching credentials; TestMode switches either
// to its self-test report.
type Request struct {
	Domain   string `json:"type,omitempty"`
	Provider string `json:"apitype,omitempty"`

	AIType string `json:"ai_type,omitempty"`
	Model  string `json:"model,omitempty"`
	Prompt any    `json:"prompt,omitempty"`

	TestMode   bool            `json:"test_mode,omitempty"`
	Cloudflare *ai.Credentials `json:"cloudflare,omitempty"`
	Gemini     *ai.Credentials `json:"gemini,omitempty"`
}

// Info is a module's metadata.
type Info struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Version string `json:"version"`
}

type callFunc func(ctx context.Context, req Request) (any, error)

type module struct {
	info Info
	call callFunc
}

// Namespace is the loaded module set.
type Namespace struct {
	runtime Runtime
	modules map[string]module
}

type loader struct {
	dispatcher  report.Dispatcher
	harnessOpts []report.HarnessOption
	aiOpts      []ai.Option
}

// Option configures Load.
type Option func(*loader)

// WithDispatcher replaces the default store dispatcher.
func WithDispatcher(d report.Dispatcher) Option {
	return func(l *loader) {
		l.dispatcher = d
	}
}

// WithHarnessOptions configures the report harness.
func WithHarnessOptions(options ...report.HarnessOption) Option {
	return func(l *loader) {
		l.harnessOpts = append(l.harnessOpts, options...)
	}
}

// WithAIOptions configures every AI gateway built by the namespace.
func WithAIOptions(options ...ai.Option) Option {
	return func(l *loader) {
		l.aiOpts = append(l.aiOpts, options...)
	}
}

// Load registers the built-in modules.
func Load(rt Runtime, options ...Option) *Namespace {
	l := &loader{}
	for _, option := range options {
		option(l)
	}
	if l.dispatcher == nil {
		l.dispatcher = store.NewDispatcher()
	}
	aiOpts := append([]ai.Option{ai.WithConfig(ai.Config{Unstable: rt.Unstable})}, l.aiOpts...)
	harness := report.NewHarness(l.dispatcher, append(l.harnessOpts, report.WithAIOptions(aiOpts...))...)

	n := &Namespace{runtime: rt, modules: map[string]module{}}
	n.register(Info{Name: Store, Label: "Fioso Stock", Version: "0.0.5"}, storeModule(l.dispatcher, harness))
	n.register(Info{Name: AI, Label: "Fioso A.I", Version: "0.0.4"}, aiModule(aiOpts, harness))
	n.register(Info{Name: Report, Label: "Fioso Report", Version: "0.0.5"}, reportModule(harness))
	return n
}

func (n *Namespace) register(info Info, call callFunc) {
	n.modules[info.Name] = module{info: info, call: call}
}

// Runtime returns the configuration the namespace was loaded with.
func (n *Namespace) Runtime() Runtime {
	return n.runtime
}

// List returns the loaded modules sorted by name.
func (n *Namespace) List() []Info {
	out := make([]Info, 0, len(n.modules))
	for _, m := range n.modules {
		out = append(out, m.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Call invokes the named module. Module names are case-insensitive.
func (n *Namespace) Call(ctx context.Context, name string, req Request) (any, error) {
	m, ok := n.modules[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModule, name)
	}
	return m.call(ctx, req)
}

func storeModule(d report.Dispatcher, h *report.Harness) callFunc {
	return func(ctx context.Context, req Request) (any, error) {
		if req.TestMode {
			return h.RunAll(ctx, report.Config{Store: true}), nil
		}
		return d.Dispatch(ctx, req.Domain, req.Provider), nil
	}
}

func aiModule(options []ai.Option, h *report.Harness) callFunc {
	return func(ctx context.Context, req Request) (any, error) {
		if req.TestMode {
			return h.RunAll(ctx, report.Config{Cloudflare: req.Cloudflare, Gemini: req.Gemini}), nil
		}

		typ := req.AIType
		if typ == "" {
			typ = string(ai.TypeCloudflare)
		}
		t, err := ai.ParseType(typ)
		if err != nil {
			return nil, err
		}
		creds := req.Cloudflare
		if t == ai.TypeGemini {
			creds = req.Gemini
		}
		switch {
		case creds == nil:
			return nil, fmt.Errorf("%w: missing %s credentials", ErrBadRequest, strings.ToLower(string(t)))
		case req.Model == "":
			return nil, fmt.Errorf("%w: model is required", ErrBadRequest)
		case req.Prompt == nil:
			return nil, fmt.Errorf("%w: prompt is required", ErrBadRequest)
		}

		call, err := ai.New(string(t), *creds, options...)
		if err != nil {
			return nil, err
		}
		return call(ctx, req.Model, req.Prompt)
	}
}

func reportModule(h *report.Harness) callFunc {
	return func(ctx context.Context, req Request) (any, error) {
		return h.RunAll(ctx, report.Config{Store: true, Cloudflare: req.Cloudflare, Gemini: req.Gemini}), nil
	}
}
