// Package gemini is a minimal client for the Gemini generateContent endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const baseURL = "https://generativelanguage.googleapis.com/v1beta"

// TestModel is the model used by the self-test probe.
const TestModel = "gemini-2.0-flash"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=gemini_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the Gemini API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP client.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// query carries the API key.
	query url.Values
}

// ClientOption is a configuration option for the Gemini client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a Gemini client.
func NewClient(key string, options ...ClientOption) (*Client, error) {
	client := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
	}
	client.header.Set("Content-Type", "application/json")
	if key != "" {
		// https://ai.google.dev/api#authentication
		client.query.Set("key", key)
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}

// Part is a piece of content.
type Part struct {
	Text string `json:"text"`
}

// Content is one conversation turn.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Request is the generateContent envelope.
type Request struct {
	Contents []Content `json:"contents"`
}

// NewRequest wraps a single user prompt.
func NewRequest(prompt string) Request {
	return Request{Contents: []Content{{Role: "user", Parts: []Part{{Text: prompt}}}}}
}

// GenerateContent posts body to the model and returns the decoded response,
// whatever its status code.
func (c *Client) GenerateContent(ctx context.Context, model string, body any) (any, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	if len(c.query) > 0 {
		u += "?" + c.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	var out any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response (status %d): %w", res.StatusCode, err)
	}
	return out, nil
}
