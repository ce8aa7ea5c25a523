// Package api is a client for the snek site API, which stores infractions and users.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/google/go-querystring/query"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/sneknetwork/snek/snek/internal"
)

// DefaultSiteURL is used when no site url is configured.
const DefaultSiteURL = "https://sneknetwork.com"

// maxErrorBody is the number of bytes of an error response kept in a ResponseCodeError.
const maxErrorBody = 64 << 10

// Client represents a client of the site API. Reads are retried on connection errors and
// server errors, writes are sent exactly once.
type Client struct {
	base  string
	token string

	reads  *http.Client
	writes *http.Client
	log    *slog.Logger
}

// Option changes the configuration of a Client.
type Option func(*options)

type options struct {
	timeout      time.Duration
	retries      int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	transport    http.RoundTripper
}

// WithTimeout sets the timeout of a single request.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithRetries sets how many times and with what backoff reads are retried.
func WithRetries(n int, waitMin, waitMax time.Duration) Option {
	return func(o *options) {
		o.retries, o.retryWaitMin, o.retryWaitMax = n, waitMin, waitMax
	}
}

// WithTransport sets the transport used for all requests.
func WithTransport(t http.RoundTripper) Option {
	return func(o *options) {
		o.transport = t
	}
}

// NewClient returns a client of the site API at siteURL, authenticating with token.
func NewClient(log *slog.Logger, siteURL, token string, opts ...Option) *Client {
	o := options{
		timeout:      internal.DefaultRequestTimeout,
		retries:      internal.MaxHTTPRetries,
		retryWaitMin: internal.RetryWaitMin,
		retryWaitMax: internal.RetryWaitMax,
		transport:    cleanhttp.DefaultPooledTransport(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if siteURL == "" {
		siteURL = DefaultSiteURL
	}
	log = log.With("subsystem", "site-api")

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Transport = o.transport
	retryClient.RetryMax = o.retries
	retryClient.RetryWaitMin = o.retryWaitMin
	retryClient.RetryWaitMax = o.retryWaitMax
	retryClient.Logger = retryablehttp.LeveledLogger(leveledSlog{inner: log})
	retryClient.CheckRetry = retryPolicy
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	reads := retryClient.StandardClient()
	reads.Timeout = o.timeout

	if token == "" {
		log.Error("no site api token configured, requests to the site api will be rejected")
	}
	return &Client{
		base:   strings.TrimRight(siteURL, "/"),
		token:  token,
		reads:  reads,
		writes: &http.Client{Transport: o.transport, Timeout: o.timeout},
		log:    log,
	}
}

// retryPolicy wraps retryablehttp.DefaultRetryPolicy, leaving 429 responses to the caller.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// EndpointURL returns the absolute url of endpoint.
func (c *Client) EndpointURL(endpoint string) string {
	return c.base + "/api/" + strings.TrimLeft(endpoint, "/")
}

// get requests endpoint with the query encoded from q and decodes the response into out.
func (c *Client) get(ctx context.Context, endpoint string, q any, out any) error {
	u := c.EndpointURL(endpoint)
	if q != nil {
		values, err := query.Values(q)
		if err != nil {
			return fmt.Errorf("encode query: %w", err)
		}
		if len(values) > 0 {
			u += "?" + values.Encode()
		}
	}
	return c.do(ctx, c.reads, http.MethodGet, u, nil, out)
}

func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	return c.do(ctx, c.writes, http.MethodPost, c.EndpointURL(endpoint), body, out)
}

func (c *Client) patch(ctx context.Context, endpoint string, body, out any) error {
	return c.do(ctx, c.writes, http.MethodPatch, c.EndpointURL(endpoint), body, out)
}

func (c *Client) delete(ctx context.Context, endpoint string) error {
	return c.do(ctx, c.writes, http.MethodDelete, c.EndpointURL(endpoint), nil, nil)
}

// do sends a single request. A 204 response is a success without a body.
func (c *Client) do(ctx context.Context, client *http.Client, method, u string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "snek/"+versioninfo.Short())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("site api request", "method", method, "url", u)
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &ResponseCodeError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if resp.StatusCode == http.StatusNoContent || out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response of %s %s: %w", method, u, err)
	}
	return nil
}

// leveledSlog logs retryablehttp errors as warnings since the request is usually retried.
type leveledSlog struct {
	inner *slog.Logger
}

func (l leveledSlog) Error(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Warn(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Info(msg string, keysAndValues ...any) {
	l.inner.Info(msg, keysAndValues...)
}

func (l leveledSlog) Debug(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, keysAndValues...)
}
