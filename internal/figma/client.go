// Package figma is a small client for the design-file REST API's variables
// endpoints.
package figma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.figma.com"

// DefaultTimeout bounds a single upstream request.
const DefaultTimeout = 30 * time.Second

// ErrTokenNotConfigured is returned when no access token was provided.
var ErrTokenNotConfigured = errors.New("Figma token not configured")

// APIError is returned for non-2xx upstream responses.
type APIError struct {
	Status     int
	StatusText string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Figma API error: %d %s", e.Status, e.StatusText)
}

// Client calls the variables endpoints with a static bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, such as a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
		}
	}
}

// NewClient creates a client. An empty token is allowed; requests then fail
// with ErrTokenNotConfigured.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasToken reports whether an access token is configured.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// GetFileVariables fetches the variables and collections of a file.
func (c *Client) GetFileVariables(ctx context.Context, fileKey string) (*VariablesResponse, error) {
	body, err := c.get(ctx, "/v1/files/"+url.PathEscape(fileKey)+"/variables")
	if err != nil {
		return nil, err
	}

	var resp VariablesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding variables response: %w", err)
	}
	return &resp, nil
}

// GetVariable fetches a single variable and returns the upstream JSON as-is.
func (c *Client) GetVariable(ctx context.Context, variableID string) (json.RawMessage, error) {
	body, err := c.get(ctx, "/v1/variables/"+url.PathEscape(variableID))
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("upstream returned invalid JSON")
	}
	return json.RawMessage(body), nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if !c.HasToken() {
		return nil, ErrTokenNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Status:     resp.StatusCode,
			StatusText: statusText(resp),
			Body:       string(body),
		}
	}
	return body, nil
}

// statusText extracts the reason phrase, e.g. "Not Found" from "404 Not Found".
func statusText(resp *http.Response) string {
	if _, text, ok := strings.Cut(resp.Status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
