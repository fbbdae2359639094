package bunq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client is a bunq API client. It holds no session state and is safe for
// concurrent use; sessions are passed explicitly to ResourceClient.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a new bunq API client
func NewClient(config *ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return NewClientWithHTTPClient(config, &http.Client{
		Timeout: config.Timeout,
	})
}

// NewClientWithHTTPClient creates a new bunq API client with a custom HTTP client
func NewClientWithHTTPClient(config *ClientConfig, httpClient *http.Client) *Client {
	if config.BaseURL == "" {
		config.BaseURL = ProductionURL
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultConfig().UserAgent
	}
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		log:        log,
	}
}

// BaseURL returns the API host requests are sent to
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// call describes a single API request
type call struct {
	method string
	path   string
	// body is sent verbatim; it is also what gets signed
	body    []byte
	headers map[string]string
}

// marshalBody serializes a request body once so the signed bytes and the
// transmitted bytes are the same slice.
func marshalBody(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return b, nil
}

// do performs the request and returns the body of a 2xx response
func (c *Client) do(ctx context.Context, req call) ([]byte, error) {
	url := strings.TrimRight(c.config.BaseURL, "/") + req.path

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrTransport, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	httpReq.Header.Set(HeaderRequestID, uuid.New().String())
	httpReq.Header.Set(HeaderLanguage, "en_US")
	httpReq.Header.Set(HeaderRegion, "nl_NL")
	httpReq.Header.Set(HeaderGeolocation, "0 0 0 0 000")
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	endpoint := endpointLabel(req.path)
	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(req.method, endpoint, 0, time.Since(start))
		c.log.Debug("bunq request failed",
			zap.String("method", req.method),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, req.method, endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	c.observe(req.method, endpoint, resp.StatusCode, elapsed)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrTransport, err)
	}

	c.log.Debug("bunq request",
		zap.String("method", req.method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", elapsed),
		zap.String("request_id", httpReq.Header.Get(HeaderRequestID)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Method:     req.method,
			Path:       endpoint,
		}
		var env errorEnvelope
		if json.Unmarshal(respBody, &env) == nil {
			statusErr.Descriptions = env.Error
		}
		return nil, statusErr
	}

	return respBody, nil
}

func (c *Client) observe(method, endpoint string, status int, elapsed time.Duration) {
	if c.config.Observer != nil {
		c.config.Observer.ObserveRequest(method, endpoint, status, elapsed)
	}
}

// endpointLabel strips the query and replaces numeric path segments so the
// label has bounded cardinality: /v1/user/42/monetary-account -> /v1/user/{id}/monetary-account
func endpointLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg != "" && strings.Trim(seg, "0123456789") == "" {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}
