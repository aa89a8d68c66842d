package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	gerrors "github.com/gantryhq/gantry/pkg/errors"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a document, package, or asset doesn't
	// exist at the requested location.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors,
	// 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with a standard timeout for
// repository requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// Client provides shared HTTP functionality for repository access.
// It applies default headers to every request and maps response status
// codes onto the package's sentinel errors.
type Client struct {
	http    *http.Client
	headers map[string]string
}

// NewClient creates a Client with the given default headers.
// Headers are applied to all requests made through this client; pass nil
// if no default headers are needed. Ambient credentials (bearer tokens)
// belong here so that every repository request carries them.
func NewClient(headers map[string]string) *Client {
	return &Client{
		http:    NewHTTPClient(),
		headers: headers,
	}
}

// Get performs an HTTP GET request and returns the response body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	body, err := c.doRequest(ctx, http.MethodGet, url, nil, "")
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

// GetJSON performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.doRequest(ctx, http.MethodGet, url, nil, "")
	if err != nil {
		return err
	}
	defer body.Close()
	return json.NewDecoder(body).Decode(v)
}

// Post performs an HTTP POST with the given body and content type.
// The response body is discarded; only the status outcome is reported.
func (c *Client) Post(ctx context.Context, url, contentType string, body io.Reader) error {
	respBody, err := c.doRequest(ctx, http.MethodPost, url, body, contentType)
	if err != nil {
		return err
	}
	defer respBody.Close()
	_, err = io.Copy(io.Discard, respBody)
	return err
}

func (c *Client) doRequest(ctx context.Context, method, url string, body io.Reader, contentType string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}

	if err := checkStatus(resp.StatusCode, resp.Header); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int, header http.Header) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusUnauthorized:
		return gerrors.New(gerrors.ErrCodeUnauthorized, "authentication required (status 401)")
	case code == http.StatusForbidden:
		return gerrors.New(gerrors.ErrCodeForbidden, "access denied (status 403)")
	case code == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(header.Get("Retry-After"))
		return &RetryableError{Err: &gerrors.RateLimitedError{RetryAfter: retryAfter}}
	case code >= 500:
		return &RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
