// Package transport sends encoded requests to the compiler service.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"explorer.pub/explorer/wire"
	"github.com/google/uuid"
	"golang.org/x/net/http2"
)

// DefaultTimeout bounds a full request, including reading the response body.
const DefaultTimeout = 30 * time.Second

// A Transport sends an encoded request and returns the raw response body.
//
// Response status codes are not inspected, any body the service returns is handed back.
// Only failures to obtain a body are reported as errors.
type Transport interface {
	Do(ctx context.Context, w *wire.Wire) ([]byte, error)
}

// HTTP is a Transport that talks to the service over HTTP(S).
type HTTP struct {
	baseURL string
	client  *http.Client

	// timeout, when set, is applied to a copy of client once every option has run.
	timeout    time.Duration
	hasTimeout bool
}

// An Option to configure an HTTP transport.
type Option func(*HTTP)

// WithHTTPClient uses the provided client instead of one configured for the url scheme.
func WithHTTPClient(client *http.Client) Option {
	return Option(func(t *HTTP) {
		t.client = client
	})
}

// WithTimeout sets the timeout of the transport's http client, regardless of option order.
// A client provided with WithHTTPClient is copied, never modified.
func WithTimeout(timeout time.Duration) Option {
	return Option(func(t *HTTP) {
		t.timeout = timeout
		t.hasTimeout = true
	})
}

// NewHTTP creates an HTTP transport for the service hosted at baseURL.
//
// The url scheme selects the client: https urls use a TLS transport with HTTP/2 enabled,
// http urls use a plain HTTP/1.1 transport.
func NewHTTP(baseURL string, options ...Option) (*HTTP, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidURL, baseURL)
	}

	var client *http.Client
	switch u.Scheme {
	case "https":
		client, err = newSecureClient()
		if err != nil {
			return nil, err
		}
	case "http":
		client = newPlainClient()
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	t := &HTTP{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
	for _, opt := range options {
		opt(t)
	}
	if t.hasTimeout {
		client := *t.client
		client.Timeout = t.timeout
		t.client = &client
	}
	return t, nil
}

func newSecureClient() (*http.Client, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, fmt.Errorf("failed to configure http2 transport: %w", err)
	}
	return &http.Client{Transport: tr, Timeout: DefaultTimeout}, nil
}

func newPlainClient() *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.ForceAttemptHTTP2 = false
	return &http.Client{Transport: tr, Timeout: DefaultTimeout}
}

// BaseURL the transport resolves request paths against.
func (t *HTTP) BaseURL() string {
	return t.baseURL
}

// Do sends the request and returns the full response body.
func (t *HTTP) Do(ctx context.Context, w *wire.Wire) ([]byte, error) {
	var (
		start     = time.Now()
		target    = t.baseURL + w.Path
		requestID = uuid.NewString()
		err       error
	)

	defer func() {
		metricHTTPRequests.WithLabelValues(w.Endpoint, w.Method).Inc()
		metricHTTPLatency.WithLabelValues(w.Endpoint, w.Method).Observe(time.Since(start).Seconds())
		if err != nil {
			metricHTTPErrors.WithLabelValues(w.Endpoint, w.Method).Inc()
		}
	}()

	var reqBody io.Reader
	if w.Body != nil {
		reqBody = bytes.NewReader(w.Body)
	}
	req, err := http.NewRequestWithContext(ctx, w.Method, target, reqBody)
	if err != nil {
		return nil, &Error{Method: w.Method, URL: target, Err: err}
	}
	req.Header = w.Header.Clone()
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	slog.DebugContext(ctx, "sending request",
		"request_id", requestID,
		"method", w.Method,
		"url", target,
		"bytes", len(w.Body),
	)

	resp, err := t.client.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "request failed", "request_id", requestID, "url", target, "error", err)
		return nil, &Error{Method: w.Method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.WarnContext(ctx, "failed to read response body", "request_id", requestID, "url", target, "error", err)
		return nil, &Error{Method: w.Method, URL: target, Err: err}
	}

	slog.DebugContext(ctx, "received response",
		"request_id", requestID,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)
	return body, nil
}
