package crawler

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Delayer decides how long a worker waits before fetching from host.
type Delayer interface {
	Wait(ctx context.Context, host string) error
}

// DomainGate spaces requests to the same host by at least base, plus a
// uniform random jitter in [0, maxDelay-base). Different hosts do not block each
// other. It is safe for concurrent use.
type DomainGate struct {
	base   time.Duration
	jitter time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	sleep    func(ctx context.Context, d time.Duration) error
	rand     func(n int64) int64
}

// NewDomainGate creates a gate. A zero base disables the per-host spacing.
func NewDomainGate(base, maxDelay time.Duration) *DomainGate {
	jitter := maxDelay - base
	if jitter < 0 {
		jitter = 0
	}
	return &DomainGate{
		base:     base,
		jitter:   jitter,
		limiters: make(map[string]*rate.Limiter),
		sleep:    sleepCtx,
		rand:     rand.Int64N,
	}
}

// Wait blocks until host may be fetched or ctx is done. The jitter is slept
// first and the host token is taken last, so two releases for the same host
// are always at least base apart.
func (g *DomainGate) Wait(ctx context.Context, host string) error {
	if g.jitter > 0 {
		if err := g.sleep(ctx, time.Duration(g.rand(int64(g.jitter)))); err != nil {
			return err
		}
	}
	if g.base > 0 {
		return g.limiter(host).Wait(ctx)
	}
	return ctx.Err()
}

func (g *DomainGate) limiter(host string) *rate.Limiter {
	host = strings.ToLower(host)

	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(g.base), 1)
		g.limiters[host] = l
	}
	return l
}

// NoDelay never waits.
type NoDelay struct{}

// Wait returns ctx.Err().
func (NoDelay) Wait(ctx context.Context, _ string) error { return ctx.Err() }

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
