package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// RetryPolicy decides how transient HTTP failures are retried.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(status int) bool
}

// DefaultRetryPolicy mirrors the production posture: 3 attempts,
// exponential-ish backoff from a base delay, retry on 500/502/503.
func DefaultRetryPolicy(maxAttempts int, base time.Duration) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if base <= 0 {
		base = 5 * time.Second
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff: func(attempt int) time.Duration {
			return base << attempt
		},
		Retryable: func(status int) bool {
			switch status {
			case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
				return true
			}
			return false
		},
	}
}

// FetchError reports an endpoint failure after the retry budget is spent.
type FetchError struct {
	URL      string
	Status   int
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
	}
	return fmt.Sprintf("fetch %s failed after %d attempt(s): status %d", e.URL, e.Attempts, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ClientOptions parameterise the shared HTTP client.
type ClientOptions struct {
	Timeout        time.Duration
	UserAgent      string
	AcceptLanguage string
	Policy         RetryPolicy
}

// Client is a retrying HTTP client shared by all source fetchers. It keeps a
// cookie jar because the customs board requires the listing-page session
// cookie before a detail POST succeeds.
type Client struct {
	opts     ClientOptions
	http     *http.Client
	download *http.Client
	logger   zerolog.Logger
}

// NewClient constructs the shared fetch client.
func NewClient(opts ClientOptions, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	// Default each policy field on its own so a caller that only sets
	// MaxAttempts does not leave nil Backoff/Retryable funcs behind.
	def := DefaultRetryPolicy(opts.Policy.MaxAttempts, 0)
	if opts.Policy.MaxAttempts <= 0 {
		opts.Policy.MaxAttempts = def.MaxAttempts
	}
	if opts.Policy.Backoff == nil {
		opts.Policy.Backoff = def.Backoff
	}
	if opts.Policy.Retryable == nil {
		opts.Policy.Retryable = def.Retryable
	}

	// Document downloads (PDF attachments) get a doubled budget; page
	// fetches stay on the tighter one.
	jar, _ := cookiejar.New(nil)
	return &Client{
		opts:     opts,
		http:     &http.Client{Timeout: timeout, Jar: jar},
		download: &http.Client{Timeout: 2 * timeout, Jar: jar},
		logger:   logger.With().Str("component", "fetch_client").Logger(),
	}
}

// Get retrieves the endpoint body with query params applied.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	return c.do(ctx, c.http, http.MethodGet, endpoint, params, nil)
}

// PostForm submits a form-encoded body and returns the response body.
func (c *Client) PostForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	return c.do(ctx, c.http, http.MethodPost, endpoint, nil, form)
}

// DownloadTemp streams the endpoint into a temporary file. The returned
// cleanup func removes the file and must be called on every path.
func (c *Client) DownloadTemp(ctx context.Context, endpoint, pattern string) (string, func(), error) {
	body, err := c.do(ctx, c.download, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return "", nil, err
	}

	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}

	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}

	return tmp.Name(), cleanup, nil
}

func (c *Client) do(ctx context.Context, httpClient *http.Client, method, endpoint string, params, form url.Values) ([]byte, error) {
	target := endpoint
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		target = endpoint + sep + params.Encode()
	}

	var lastStatus int
	var lastErr error

	attempts := 0
	for attempt := 0; attempt < c.opts.Policy.MaxAttempts; attempt++ {
		attempts++

		var bodyReader io.Reader
		if form != nil {
			bodyReader = strings.NewReader(form.Encode())
		}

		req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
		if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
			req.Header.Set("User-Agent", ua)
		}
		if al := strings.TrimSpace(c.opts.AcceptLanguage); al != "" {
			req.Header.Set("Accept-Language", al)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			c.logger.Warn().Err(err).Str("url", target).Int("attempt", attempt+1).Msg("request failed")
			if !c.sleep(ctx, attempt) {
				break
			}
			continue
		}

		payload, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if readErr != nil {
				return nil, fmt.Errorf("read response body: %w", readErr)
			}
			return payload, nil
		}

		lastStatus = resp.StatusCode
		lastErr = nil
		if !c.opts.Policy.Retryable(resp.StatusCode) {
			break
		}
		c.logger.Warn().Int("status", resp.StatusCode).Str("url", target).Int("attempt", attempt+1).Msg("retryable status")
		if !c.sleep(ctx, attempt) {
			break
		}
	}

	return nil, &FetchError{URL: target, Status: lastStatus, Attempts: attempts, Err: lastErr}
}

func (c *Client) sleep(ctx context.Context, attempt int) bool {
	delay := c.opts.Policy.Backoff(attempt)
	if delay <= 0 {
		return true
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
