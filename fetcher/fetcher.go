// Package fetcher performs single-page HTTP GETs with retry, timeout and
// robots.txt compliance.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"civic-crawler/logger"
)

// Default configuration values.
const (
	DefaultRequestTimeout = 15 * time.Second
	DefaultMaxRetries     = 2
	DefaultRetryDelay     = time.Second
	defaultUserAgent      = "CivicCrawler/1.0"
	acceptHeader          = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguage        = "en-GB,en;q=0.9"
)

// maxResponseBodyBytes limits the size of fetched pages.
const maxResponseBodyBytes = 10 * 1024 * 1024

// Config holds fetcher settings.
type Config struct {
	UserAgents     []string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	RespectRobots  bool
}

// WithDefaults returns a copy of the config with zero-value fields defaulted.
// MaxRetries of zero is a valid setting and is kept.
func (c Config) WithDefaults() Config {
	if len(c.UserAgents) == 0 {
		c.UserAgents = []string{defaultUserAgent}
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}

// Response is a successfully fetched page.
type Response struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        []byte
	Attempts    int
	FetchedAt   time.Time
}

// Fetcher issues GET requests. It is safe for concurrent use.
type Fetcher struct {
	client *http.Client
	cfg    Config
	robots *RobotsChecker
	log    logger.Interface
	next   atomic.Uint64
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default client. Its Timeout is ignored; the
// per-attempt timeout comes from Config.RequestTimeout.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithLogger sets the logger.
func WithLogger(l logger.Interface) Option {
	return func(f *Fetcher) { f.log = l }
}

// New creates a Fetcher.
func New(cfg Config, opts ...Option) *Fetcher {
	cfg = cfg.WithDefaults()
	f := &Fetcher{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		cfg:   cfg,
		log:   logger.NewNoOp(),
		sleep: sleepCtx,
	}
	for _, opt := range opts {
		opt(f)
	}
	if cfg.RespectRobots {
		f.robots = NewRobotsChecker(f.client, cfg.UserAgents[0], 0)
	}
	return f
}

// Fetch GETs rawURL, retrying up to MaxRetries times with a linear backoff.
// Failures are returned as *FetchError; a cancelled ctx returns ctx.Err().
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	if f.robots != nil {
		allowed, err := f.robots.IsAllowed(ctx, rawURL)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			return nil, &FetchError{URL: rawURL, Reason: ReasonNetwork, Err: err}
		}
		if !allowed {
			return nil, &FetchError{URL: rawURL, Reason: ReasonRobotsBlocked, Err: errRobotsDisallowed}
		}
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := f.cfg.RetryDelay * time.Duration(attempt)
			f.log.Debug("retrying fetch", "url", rawURL, "attempt", attempt+1, "delay", delay, "error", lastErr)
			if err := f.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		attempts++
		resp, err := f.attempt(ctx, rawURL)
		if err == nil {
			resp.Attempts = attempts
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		if !retryable(err) {
			break
		}
	}

	reason, status := classify(lastErr)
	return nil, &FetchError{URL: rawURL, Reason: reason, StatusCode: status, Attempts: attempts, Err: lastErr}
}

func (f *Fetcher) attempt(ctx context.Context, rawURL string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodyBytes))
		return nil, errStatus{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

// userAgent rotates round-robin over the configured agents.
func (f *Fetcher) userAgent() string {
	n := f.next.Add(1) - 1
	return f.cfg.UserAgents[n%uint64(len(f.cfg.UserAgents))]
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
