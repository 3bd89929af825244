// Package frontier implements the URL frontier of a crawl session: a FIFO queue,
// a visited set keyed by normalized URL, a domain allow-list and the depth,
// size and per-page discovery bounds.
//
// A Frontier is not safe for concurrent use. The crawl session owns it from a
// single goroutine.
package frontier

import (
	"strings"

	"civic-crawler/models"
	"civic-crawler/utils"
)

// DefaultDiscoveryCap is the number of new links admitted per source page.
const DefaultDiscoveryCap = 3

// Options bounds a Frontier.
type Options struct {
	AllowedDomains []string
	MaxURLs        int
	MaxDepth       int
	DiscoveryCap   int
}

// Frontier is the queue plus dedupe set governing which URLs remain to be fetched.
type Frontier struct {
	allow        domainMatcher
	maxURLs      int
	maxDepth     int
	discoveryCap int

	queue    []models.CrawlTarget
	visited  map[string]struct{}
	dequeued int
	admitted int
}

// New creates an empty Frontier.
func New(opts Options) *Frontier {
	return &Frontier{
		allow:        newDomainMatcher(opts.AllowedDomains),
		maxURLs:      opts.MaxURLs,
		maxDepth:     opts.MaxDepth,
		discoveryCap: opts.DiscoveryCap,
		visited:      make(map[string]struct{}),
	}
}

// EnqueueSeeds admits seed URLs at depth 0 and returns how many were accepted.
// Seeds outside the allow-list, invalid URLs and duplicates are rejected.
func (f *Frontier) EnqueueSeeds(urls []string) int {
	accepted := 0
	for _, raw := range urls {
		if f.admit(raw, 0) {
			accepted++
		}
	}
	return accepted
}

// Discover admits up to the discovery cap of new links found on baseURL,
// which was crawled at depth. Relative links are resolved against baseURL.
// It returns the number of links admitted.
func (f *Frontier) Discover(links []string, baseURL string, depth int) int {
	next := depth + 1
	if next > f.maxDepth {
		return 0
	}

	admitted := 0
	for _, link := range links {
		if admitted >= f.discoveryCap {
			break
		}
		abs := utils.MakeAbsoluteURL(baseURL, link)
		if abs == "" {
			continue
		}
		if f.admit(abs, next) {
			admitted++
		}
	}
	return admitted
}

// Dequeue pops the oldest target. It returns false once the queue is empty or
// MaxURLs targets have been handed out.
func (f *Frontier) Dequeue() (models.CrawlTarget, bool) {
	if f.IsExhausted() {
		return models.CrawlTarget{}, false
	}

	target := f.queue[0]
	f.queue[0] = models.CrawlTarget{}
	f.queue = f.queue[1:]
	f.dequeued++

	return target, true
}

// IsExhausted reports whether Dequeue will return nothing more.
func (f *Frontier) IsExhausted() bool {
	return len(f.queue) == 0 || f.CeilingReached()
}

// CeilingReached reports whether MaxURLs targets were dequeued.
func (f *Frontier) CeilingReached() bool {
	return f.maxURLs > 0 && f.dequeued >= f.maxURLs
}

// Len is the number of queued targets.
func (f *Frontier) Len() int { return len(f.queue) }

// Dequeued is the number of targets handed out so far.
func (f *Frontier) Dequeued() int { return f.dequeued }

// Seen reports whether rawURL was already admitted.
func (f *Frontier) Seen(rawURL string) bool {
	key, err := utils.NormalizeURL(rawURL)
	if err != nil {
		return false
	}
	_, ok := f.visited[key]
	return ok
}

func (f *Frontier) admit(raw string, depth int) bool {
	if !utils.IsValidURL(raw) {
		return false
	}

	key, err := utils.NormalizeURL(raw)
	if err != nil {
		return false
	}
	if _, seen := f.visited[key]; seen {
		return false
	}

	host, err := utils.ExtractHost(key)
	if err != nil || !f.allow.matches(host) {
		return false
	}

	f.visited[key] = struct{}{}
	f.queue = append(f.queue, models.CrawlTarget{
		URL:      key,
		Depth:    depth,
		Domain:   host,
		Sequence: f.admitted,
	})
	f.admitted++

	return true
}

// domainMatcher implements the allow-list. An entry "example.gov.uk" matches
// only that host; "*.example.gov.uk" matches any subdomain but not the apex.
type domainMatcher struct {
	exact    map[string]struct{}
	suffixes []string
}

func newDomainMatcher(domains []string) domainMatcher {
	m := domainMatcher{exact: make(map[string]struct{})}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		switch {
		case d == "":
		case strings.HasPrefix(d, "*."):
			m.suffixes = append(m.suffixes, d[1:])
		default:
			m.exact[d] = struct{}{}
		}
	}
	return m
}

func (m domainMatcher) matches(host string) bool {
	if _, ok := m.exact[host]; ok {
		return true
	}
	for _, suffix := range m.suffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}
