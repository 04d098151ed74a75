package fetch

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	defaultAttempts  = 3
	defaultBaseDelay = 300 * time.Millisecond
	defaultTimeout   = 10 * time.Second
)

// Options tunes the retry behavior of a Client. Zero fields fall back to the
// package defaults.
type Options struct {
	Timeout   time.Duration
	Attempts  int
	BaseDelay time.Duration
}

func (o *Options) fillDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Attempts <= 0 {
		o.Attempts = defaultAttempts
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = defaultBaseDelay
	}
}

// Client performs plain-HTTP fetches with bounded retries and linear backoff:
// attempt n sleeps n*BaseDelay before the next try. Exhausted retries come
// back as empty payloads, never as errors, so callers degrade to empty record
// sets instead of failing the whole run.
type Client struct {
	rest      *resty.Client
	noFollow  *resty.Client
	attempts  int
	baseDelay time.Duration
}

// NewClient builds the shared HTTP client. Both the redirect-following and
// the probe-only transports share one cookie jar and carry browser-plausible
// headers via the cloudflare bypass round-tripper.
func NewClient(opts Options) *Client {
	opts.fillDefaults()

	jar, _ := cookiejar.New(nil)

	rest := resty.New().
		SetTimeout(opts.Timeout).
		SetCookieJar(jar)
	rest.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(rest.GetClient().Transport)

	noFollow := resty.New().
		SetTimeout(opts.Timeout).
		SetCookieJar(jar).
		SetRedirectPolicy(resty.NoRedirectPolicy())
	noFollow.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(noFollow.GetClient().Transport)

	return &Client{
		rest:      rest,
		noFollow:  noFollow,
		attempts:  opts.Attempts,
		baseDelay: opts.BaseDelay,
	}
}

// GetJSON fetches url with the given query parameters and returns the raw
// JSON body, or nil once the retry budget is spent.
func (c *Client) GetJSON(ctx context.Context, url string, params, headers map[string]string) []byte {
	for attempt := 1; attempt <= c.attempts; attempt++ {
		resp, err := c.rest.R().
			SetContext(ctx).
			SetHeaders(headers).
			SetQueryParams(params).
			Get(url)
		if body := usableJSON(url, attempt, resp, err); body != nil {
			return body
		}
		if attempt < c.attempts && !c.wait(ctx, attempt) {
			return nil
		}
	}
	slog.Error("GET retries exhausted", "url", url, "attempts", c.attempts)
	return nil
}

// PostJSON posts body as JSON and returns the raw JSON response, or nil once
// the retry budget is spent.
func (c *Client) PostJSON(ctx context.Context, url string, body any, headers map[string]string) []byte {
	for attempt := 1; attempt <= c.attempts; attempt++ {
		resp, err := c.rest.R().
			SetContext(ctx).
			SetHeaders(headers).
			SetBody(body).
			Post(url)
		if payload := usableJSON(url, attempt, resp, err); payload != nil {
			return payload
		}
		if attempt < c.attempts && !c.wait(ctx, attempt) {
			return nil
		}
	}
	slog.Error("POST retries exhausted", "url", url, "attempts", c.attempts)
	return nil
}

// ResolveRedirect chases the redirect chain behind url and returns the final
// target, or "" when none could be found. A HEAD probe reads the Location
// header without following it; when the server answers with no Location, a
// full GET follows the chain and reports where it landed.
func (c *Client) ResolveRedirect(ctx context.Context, url string, headers map[string]string) string {
	for attempt := 1; attempt <= c.attempts; attempt++ {
		target := c.redirectTarget(ctx, url, headers)
		if target != "" && target != url {
			return target
		}
		if attempt < c.attempts && !c.wait(ctx, attempt) {
			return ""
		}
	}
	return ""
}

func (c *Client) redirectTarget(ctx context.Context, url string, headers map[string]string) string {
	resp, err := c.noFollow.R().
		SetContext(ctx).
		SetHeaders(headers).
		Head(url)
	if err != nil && resp.RawResponse == nil {
		slog.Warn("redirect probe failed", "url", url, "err", err)
		return ""
	}
	if location := resp.Header().Get("Location"); location != "" {
		return location
	}

	followed, err := c.rest.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil || followed.RawResponse == nil {
		slog.Warn("redirect follow failed", "url", url, "err", err)
		return ""
	}
	return followed.RawResponse.Request.URL.String()
}

// usableJSON decides whether one attempt produced a valid payload. Transport
// errors, non-200 statuses and malformed bodies all count as failed attempts.
func usableJSON(url string, attempt int, resp *resty.Response, err error) []byte {
	switch {
	case err != nil:
		slog.Warn("request failed", "url", url, "attempt", attempt, "err", err)
	case resp.StatusCode() != http.StatusOK:
		slog.Warn("unexpected status", "url", url, "attempt", attempt, "status", resp.StatusCode())
	case !gjson.ValidBytes(resp.Body()):
		slog.Warn("malformed JSON payload", "url", url, "attempt", attempt)
	default:
		return resp.Body()
	}
	return nil
}

// wait sleeps the linear backoff for attempt, honoring cancellation.
func (c *Client) wait(ctx context.Context, attempt int) bool {
	select {
	case <-time.After(time.Duration(attempt) * c.baseDelay):
		return true
	case <-ctx.Done():
		return false
	}
}
