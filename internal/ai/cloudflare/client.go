// Package cloudflare is a minimal client for the Cloudflare Workers AI
// "run model" endpoint.
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const baseURL = "https://api.cloudflare.com/client/v4"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=cloudflare_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the Workers AI API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// accountID selects the Cloudflare account the model runs under.
	accountID string
	// httpClient is the HTTP client.
	httpClient HTTPClient
	// header contains the headers sent with each request.
	header http.Header
}

// ClientOption is a configuration option for the Workers AI client.
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

// NewClient creates a Workers AI client for accountID authenticated by token.
func NewClient(accountID, token string, options ...ClientOption) (*Client, error) {
	if accountID == "" {
		return nil, errors.New("account id is required")
	}
	client := &Client{
		baseURL:    baseURL,
		accountID:  accountID,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	client.header.Set("Content-Type", "application/json")
	if token != "" {
		client.header.Set("Authorization", "Bearer "+token)
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the chat envelope accepted by text-generation models.
type Request struct {
	Messages []Message `json:"messages"`
}

// NewRequest wraps a single user prompt.
func NewRequest(prompt string) Request {
	return Request{Messages: []Message{{Role: "user", Content: prompt}}}
}

// Run posts body to the given model and returns the decoded response, whatever
// its status code. The model name is used as-is, e.g. "@cf/meta/llama-3-8b-instruct".
func (c *Client) Run(ctx context.Context, model string, body any) (any, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/accounts/%s/ai/run/%s", c.baseURL, c.accountID, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
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
