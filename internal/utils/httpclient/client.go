// Package httpclient builds the http.Client used for upstream calls.
package httpclient

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// New returns a client with the given request timeout, an optional egress
// proxy, and transparent gzip decompression.
func New(timeout time.Duration, proxy string, logger *logrus.Logger) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			logger.WithError(err).WithField("proxy", proxy).Warn("Invalid proxy URL, continuing without proxy")
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
			logger.WithField("proxy", proxy).Info("Upstream HTTP client using proxy")
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: &gzipTransport{transport: transport, logger: logger},
	}
}

// gzipTransport requests gzip and unwraps it so callers always read plain
// bodies.
type gzipTransport struct {
	transport http.RoundTripper
	logger    *logrus.Logger
}

func (g *gzipTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Add("Accept-Encoding", "gzip")
	resp, err := g.transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			g.logger.WithError(err).Warn("gzip decode failed, returning raw body")
			return resp, nil
		}
		resp.Body = &gzipReadCloser{Reader: gzReader, closer: resp.Body}
		resp.Header.Del("Content-Encoding")
	}

	return resp, nil
}

type gzipReadCloser struct {
	*gzip.Reader
	closer io.ReadCloser
}

// Close closes the gzip reader before the underlying body.
func (g *gzipReadCloser) Close() error {
	if err := g.Reader.Close(); err != nil {
		return err
	}
	return g.closer.Close()
}
