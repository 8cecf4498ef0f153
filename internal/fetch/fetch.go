// Package fetch performs page retrieval with a bounded retry policy.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/html/charset"

	"mhedlund/pricetracker/logger"
	"mhedlund/pricetracker/pkg/errors"
	"mhedlund/pricetracker/services/cache"
)

const (
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	blockKeyPrefix   = "fetch_block:"
	defaultBlockTime = 5 * time.Minute
)

// RetryPolicy separates how many attempts are made and how long to wait
// between them from the fetch call itself. Delay is fixed per attempt; the
// value is deployment configuration, not hardcoded backoff.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy matches the documented defaults: 3 attempts, 5s apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 5 * time.Second}
}

// SleepFunc waits for d or until ctx is cancelled. Injected in tests so retry
// behavior is verifiable without real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Client fetches pages with retries, per-request timeout and rate-limit
// blocking shared through the cache service.
type Client struct {
	http   *http.Client
	ua     string
	policy RetryPolicy
	cache  cache.CacheService
	sleep  SleepFunc
	log    *logger.Logger
}

// NewClient creates a fetch client. A nil cache disables cross-process host
// blocking; a zero policy falls back to the defaults.
func NewClient(timeout time.Duration, ua string, policy RetryPolicy, cacheSvc cache.CacheService) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if ua == "" {
		ua = defaultUserAgent
	}
	if policy.MaxAttempts < 1 {
		policy = DefaultRetryPolicy()
	}
	if cacheSvc == nil {
		cacheSvc = cache.NullCache{}
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		ua:     ua,
		policy: policy,
		cache:  cacheSvc,
		sleep:  sleepContext,
		log:    logger.ForComponent("fetch"),
	}
}

// WithSleep replaces the inter-attempt sleep, for tests
func (c *Client) WithSleep(fn SleepFunc) *Client {
	c.sleep = fn
	return c
}

// Fetch retrieves rawurl and returns its body decoded to UTF-8. Transport
// errors and 5xx responses are retried up to the policy's attempt budget with
// a fixed delay between attempts; 4xx responses are immediately fatal for
// this item since retrying will not help. After exhausting attempts the last
// cause is returned as a typed fetch failure; this function never panics past
// its boundary.
func (c *Client) Fetch(ctx context.Context, rawurl string) (io.Reader, error) {
	host := hostOf(rawurl)
	if _, err := c.cache.Get(blockKeyPrefix + host); err == nil {
		return nil, errors.NewFetch("", fmt.Sprintf("host %s is blocked after rate limiting", host), nil)
	}

	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.policy.Delay); err != nil {
				return nil, errors.NewFetch("", "fetch cancelled", err)
			}
		}

		body, retryable, err := c.fetchOnce(ctx, rawurl, host)
		if err == nil {
			return body, nil
		}
		lastErr = err
		c.log.Warn().
			Str("url", rawurl).
			Int("attempt", attempt).
			Err(err).
			Msg("Fetch attempt failed")
		if !retryable {
			break
		}
	}
	return nil, errors.NewFetch("", fmt.Sprintf("fetch %s failed", rawurl), lastErr)
}

// fetchOnce performs a single attempt. The second return value reports
// whether another attempt can help.
func (c *Client) fetchOnce(ctx context.Context, rawurl, host string) (io.Reader, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "sv-SE,sv;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.blockHost(host, resp.Header.Get("Retry-After"))
		return nil, false, fmt.Errorf("rate limited by %s", host)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, false, fmt.Errorf("client error: status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}
	body, err := toUTF8(bodyBytes, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, false, err
	}
	return body, false, nil
}

// blockHost records a shared rate-limit block so sibling items and sibling
// processes stop hammering the host for the block window.
func (c *Client) blockHost(host, retryAfter string) {
	block := defaultBlockTime
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
		block = time.Duration(secs) * time.Second
	}
	if err := c.cache.Set(blockKeyPrefix+host, []byte(retryAfter), block); err != nil {
		c.log.Warn().Str("host", host).Err(err).Msg("Failed to record host block")
	}
}

// toUTF8 converts the body to UTF-8 based on the Content-Type header and
// body sniffing
func toUTF8(body []byte, contentType string) (io.Reader, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(body), nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, encoding.NewDecoder().Reader(bytes.NewReader(body))); err != nil {
		return nil, fmt.Errorf("failed to decode body to UTF-8: %w", err)
	}
	return &buf, nil
}

func hostOf(rawurl string) string {
	u, err := url.Parse(rawurl)
	if err != nil || u.Host == "" {
		return rawurl
	}
	return u.Host
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
