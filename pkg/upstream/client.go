package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kiranakart/checkout-backend/pkg/config"
	pkgerrors "github.com/kiranakart/checkout-backend/pkg/errors"
)

const (
	defaultTimeout              = 15 * time.Second
	responseBodyReadLimit int64 = 2048
)

var errBaseURLRequired = errors.New("upstream base url is required")

// Client talks to the commerce platform API that owns delivery pricing, cart
// validation, promo codes, orders, and the customer address book.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	serviceToken string
	timeout      time.Duration
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the per-request deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient builds the commerce platform client from configuration.
func NewClient(cfg config.UpstreamConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		serviceToken: strings.TrimSpace(cfg.ServiceToken),
		timeout:      cfg.Timeout,
	}
	if client.timeout <= 0 {
		client.timeout = defaultTimeout
	}
	client.httpClient = &http.Client{}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// do executes a JSON round trip against the upstream API. A bearer token, when
// provided, is forwarded as-is; otherwise the configured service token is
// used. Deadline overruns surface as CodeTimeout so callers can distinguish
// them from upstream-reported failures.
func (c *Client) do(ctx context.Context, method, path, bearer string, body, dest any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "upstream client not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal upstream request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build upstream request")
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := bearer
	if token == "" {
		token = c.serviceToken
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, fmt.Sprintf("upstream %s %s timed out", method, path))
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute upstream %s %s", method, path))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return statusError(resp.StatusCode, strings.TrimSpace(string(msg)), method, path)
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode upstream response")
	}
	return nil
}

func statusError(status int, body, method, path string) error {
	cause := fmt.Errorf("status %d: %s", status, body)
	message := fmt.Sprintf("upstream %s %s failed", method, path)
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, cause, message)
	case http.StatusForbidden:
		return pkgerrors.Wrap(pkgerrors.CodeForbidden, cause, message)
	case http.StatusNotFound:
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, cause, message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, message)
}
