// Package upstream talks to the market-data API. It is the only place in the
// service that opens a network connection, and the base URL from config is the
// only host it will ever contact.
package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/davidversegaming/prediction-market-explorer/internal/config"
	"github.com/davidversegaming/prediction-market-explorer/internal/metrics"
	"github.com/davidversegaming/prediction-market-explorer/internal/utils/httpclient"
	"github.com/sirupsen/logrus"
)

// StatusError is a non-2xx upstream response. Code is the upstream HTTP
// status; Body is the upstream body, kept for logging.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Code)
}

// NotFound reports whether the upstream said the resource does not exist.
func (e *StatusError) NotFound() bool {
	return e.Code == http.StatusNotFound
}

// ErrInvalidPath rejects path selectors that would escape the upstream host.
type ErrInvalidPath struct {
	Path string
}

func (e *ErrInvalidPath) Error() string {
	return fmt.Sprintf("invalid upstream path %q", e.Path)
}

// Client issues GET requests to the upstream market-data API. One inbound
// request maps to exactly one outbound call; there are no retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient builds a Client from the upstream config.
func NewClient(cfg *config.UpstreamConfig, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpclient.New(cfg.RequestTimeout(), cfg.Proxy, logger),
		logger:     logger,
	}
}

// ValidatePath accepts only upstream-relative paths. The path selector is a
// routing instruction; it must never name a scheme or a host.
func ValidatePath(path string) error {
	if path == "" || !strings.HasPrefix(path, "/") {
		return &ErrInvalidPath{Path: path}
	}
	// "//host" and "/\host" are scheme-relative URLs to browsers and proxies.
	if strings.HasPrefix(path, "//") || strings.HasPrefix(path, "/\\") {
		return &ErrInvalidPath{Path: path}
	}
	u, err := url.Parse(path)
	if err != nil || u.IsAbs() || u.Host != "" {
		return &ErrInvalidPath{Path: path}
	}
	return nil
}

// Get performs a single GET against baseURL+path with the given query
// parameters and returns the verbatim response body. Non-2xx responses come
// back as *StatusError; transport failures (including timeouts) as wrapped
// errors.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(path, "error").Inc()
		c.logger.WithError(err).WithField("path", path).Error("Upstream request failed")
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(path, "error").Inc()
		c.logger.WithError(err).WithField("path", path).Error("Upstream body read failed")
		return nil, fmt.Errorf("read body: %w", err)
	}

	metrics.UpstreamRequests.WithLabelValues(path, statusLabel(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WithFields(logrus.Fields{
			"path":   path,
			"status": resp.StatusCode,
		}).Warn("Upstream returned error status")
		return nil, &StatusError{Code: resp.StatusCode, Body: body}
	}

	return body, nil
}

func statusLabel(code int) string {
	switch {
	case code == http.StatusNotFound:
		return "404"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 400 && code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
