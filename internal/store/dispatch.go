package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fioso/internal/logging"
	"fioso/internal/provider"
)

// ErrNoData is returned by fetch when the upstream answered but the payload
// was empty, null, or rejected by the normalizer.
var ErrNoData = errors.New("upstream returned no usable data")

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=store_test -destination=mock_http_client_test.go -source=dispatch.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Dispatcher resolves (domain, provider) pairs against a Table and performs
// the upstream round trip.
type Dispatcher struct {
	table      Table
	httpClient HTTPClient
}

// DispatcherOption is a configuration option for the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithHTTPClient sets the HTTP client used for upstream requests.
func WithHTTPClient(httpClient HTTPClient) DispatcherOption {
	return func(d *Dispatcher) {
		d.httpClient = httpClient
	}
}

// WithTable replaces the built-in provider table.
func WithTable(table Table) DispatcherOption {
	return func(d *Dispatcher) {
		d.table = table
	}
}

// NewDispatcher creates a Dispatcher over DefaultTable.
func NewDispatcher(options ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		table:      DefaultTable(),
		httpClient: http.DefaultClient,
	}
	for _, option := range options {
		option(d)
	}
	return d
}

// Pairs returns every registered pair in a stable order.
func (d *Dispatcher) Pairs() []Pair {
	return d.table.Pairs()
}

// Available lists the registered provider keys per domain.
func (d *Dispatcher) Available() map[string][]string {
	return d.table.Available()
}

// Dispatch fetches and normalizes one upstream. Failures are reported in the
// returned Outcome; Dispatch never panics and never returns a Go error.
func (d *Dispatcher) Dispatch(ctx context.Context, domain, key string) provider.Outcome {
	dk, pk := NormalizeKey(domain, key)
	out := provider.Outcome{Domain: dk, Provider: pk}

	entry, ok := d.table.Lookup(dk, pk)
	if !ok {
		out.Status = provider.StatusInvalid
		out.Code = provider.CodeInvalid
		out.Message = "invalid type/apitype combination"
		out.Available = d.table.Available()
		return out
	}

	start := time.Now()
	sample, err := d.fetch(ctx, entry)
	out.TimeMS = time.Since(start).Milliseconds()

	switch {
	case errors.Is(err, ErrNoData):
		out.Status = provider.StatusFailData
		out.Code = provider.CodeNoData
	case err != nil:
		out.Status = provider.StatusError
		out.Code = provider.CodeFetch
		out.Message = err.Error()
	default:
		out.Status = provider.StatusSuccess
		out.Sample = sample
	}

	logging.FromContext(ctx).Debug("dispatch",
		"type", dk, "apitype", pk, "status", out.Status, "ms", out.TimeMS)
	return out
}

func (d *Dispatcher) fetch(ctx context.Context, e provider.Entry) (sample any, err error) {
	defer func() {
		if r := recover(); r != nil {
			sample, err = nil, fmt.Errorf("normalizing response: %v", r)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.Request.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range e.Request.Headers {
		req.Header.Set(k, v)
	}

	res, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	payload, err := parse(body, e)
	if err != nil {
		return nil, err
	}

	sample, ok := e.Normalize(payload)
	if !ok {
		return nil, ErrNoData
	}
	return sample, nil
}

// parse applies the entry's parsing policy: a JSON subfield, raw text, or the
// whole body as JSON.
func parse(body []byte, e provider.Entry) ([]byte, error) {
	if e.Format == provider.FormatText && e.Subfield == "" {
		if len(bytes.TrimSpace(body)) == 0 {
			return nil, ErrNoData
		}
		return body, nil
	}

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if e.Subfield != "" {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, ErrNoData
		}
		raw = obj[e.Subfield]
	}
	if provider.IsNull(raw) {
		return nil, ErrNoData
	}
	return raw, nil
}
