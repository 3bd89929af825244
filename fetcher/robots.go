package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

const (
	defaultRobotsCacheTTL = 24 * time.Hour
	robotsTxtPath         = "/robots.txt"
	maxRobotsBodyBytes    = 512 * 1024
	robotsFetchTimeout    = 10 * time.Second
)

var errRobotsDisallowed = errors.New("disallowed by robots.txt")

// RobotsChecker caches robots.txt rules per host.
type RobotsChecker struct {
	httpClient *http.Client
	userAgent  string
	cacheTTL   time.Duration

	mu    sync.RWMutex
	cache map[string]robotsEntry
	// hosts holds one single-slot semaphore per host so only one
	// robots.txt request per host is in flight.
	hosts map[string]chan struct{}
}

type robotsEntry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
}

// NewRobotsChecker creates a RobotsChecker. A zero cacheTTL means 24h.
func NewRobotsChecker(client *http.Client, userAgent string, cacheTTL time.Duration) *RobotsChecker {
	if cacheTTL <= 0 {
		cacheTTL = defaultRobotsCacheTTL
	}
	return &RobotsChecker{
		httpClient: client,
		userAgent:  userAgent,
		cacheTTL:   cacheTTL,
		cache:      make(map[string]robotsEntry),
		hosts:      make(map[string]chan struct{}),
	}
}

// IsAllowed reports whether rawURL may be fetched. A missing, failing or
// unparsable robots.txt allows everything.
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("robots: parse url: %w", err)
	}
	host := strings.ToLower(u.Host)
	if host == "" {
		return false, fmt.Errorf("robots: empty host in %q", rawURL)
	}

	entry, ok := r.cached(host)
	if !ok {
		entry, err = r.load(ctx, u.Scheme, host)
		if err != nil {
			return false, err
		}
	}

	if entry.data == nil {
		return true, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return entry.data.TestAgent(path, r.userAgent), nil
}

// load fetches and caches robots.txt of host. Concurrent callers for the same
// host wait for the first one and reuse its entry.
func (r *RobotsChecker) load(ctx context.Context, scheme, host string) (robotsEntry, error) {
	sem := r.hostSemaphore(host)
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return robotsEntry{}, ctx.Err()
	}
	defer func() { <-sem }()

	if entry, ok := r.cached(host); ok {
		return entry, nil
	}

	entry := r.fetch(ctx, scheme, host)
	if err := ctx.Err(); err != nil {
		return robotsEntry{}, err
	}
	r.mu.Lock()
	r.cache[host] = entry
	r.mu.Unlock()
	return entry, nil
}

func (r *RobotsChecker) hostSemaphore(host string) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	sem, ok := r.hosts[host]
	if !ok {
		sem = make(chan struct{}, 1)
		r.hosts[host] = sem
	}
	return sem
}

func (r *RobotsChecker) cached(host string) (robotsEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.cache[host]
	if !ok || time.Since(entry.fetchedAt) > r.cacheTTL {
		return robotsEntry{}, false
	}
	return entry, true
}

func (r *RobotsChecker) fetch(ctx context.Context, scheme, host string) robotsEntry {
	entry := robotsEntry{fetchedAt: time.Now()}
	if scheme == "" {
		scheme = "https"
	}

	ctx, cancel := context.WithTimeout(ctx, robotsFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scheme+"://"+host+robotsTxtPath, http.NoBody)
	if err != nil {
		return entry
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return entry
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return entry
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return entry
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return entry
	}
	entry.data = data
	return entry
}
