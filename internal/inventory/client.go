package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// maxLoggedBody caps how much of an unreadable error body is logged.
const maxLoggedBody = 512

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Client is a REST client for the remote inventory service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// ClientOption is a functional option for configuring the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger used for responses the client cannot decode.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a new inventory API client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.doRequest(ctx, http.MethodPost, "/login", "", creds, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login response without token")
	}
	return &resp, nil
}

// ListProducts fetches the full product list.
func (c *Client) ListProducts(ctx context.Context, token string) ([]Product, error) {
	var products []Product
	if err := c.doRequest(ctx, http.MethodGet, "/inventory", token, nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// CreateProduct creates a product and returns the stored version.
func (c *Client) CreateProduct(ctx context.Context, token string, p NewProduct) (*Product, error) {
	if p.Unit == "" {
		p.Unit = DefaultUnit
	}
	var created Product
	if err := c.doRequest(ctx, http.MethodPost, "/inventory", token, p, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteProduct deletes a product, recording the reason for the removal.
func (c *Client) DeleteProduct(ctx context.Context, token string, id int, reason string) error {
	endpoint := fmt.Sprintf("/inventory/%d", id)
	return c.doRequest(ctx, http.MethodDelete, endpoint, token, DeleteRequest{Reason: reason}, nil)
}

// doRequest performs a JSON request against the API. A nil result
// discards the response body.
func (c *Client) doRequest(ctx context.Context, method, endpoint, token string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil {
			// Proxy pages and plain-text errors never reach the user.
			apiErr.Message = ""
			body := strings.TrimSpace(string(respBody))
			if len(body) > maxLoggedBody {
				body = body[:maxLoggedBody]
			}
			c.logger.Warn("undecodable error response",
				"method", method,
				"endpoint", endpoint,
				"status", resp.StatusCode,
				"content_type", resp.Header.Get("Content-Type"),
				"body", body,
			)
		}
		return apiErr
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
