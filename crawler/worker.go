package crawler

import (
	"context"
	"sync"

	"civic-crawler/fetcher"
	"civic-crawler/models"
)

// Fetcher retrieves one page. *fetcher.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Response, error)
}

// outcome is what a worker reports back to the session loop for one target.
type outcome struct {
	target models.CrawlTarget
	resp   *fetcher.Response
	err    error
}

// pool runs a fixed number of fetch workers. Workers only wait on the
// politeness gate and fetch; everything else happens in the session loop.
type pool struct {
	fetcher Fetcher
	delayer Delayer

	jobs     chan models.CrawlTarget
	outcomes chan outcome
	wg       sync.WaitGroup
}

func startPool(ctx context.Context, size int, f Fetcher, d Delayer) *pool {
	p := &pool{
		fetcher:  f,
		delayer:  d,
		jobs:     make(chan models.CrawlTarget, size),
		outcomes: make(chan outcome, size),
	}
	for range size {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	return p
}

func (p *pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for target := range p.jobs {
		// The loop drains outcomes until close, so this send never blocks forever.
		p.outcomes <- p.fetch(ctx, target)
	}
}

func (p *pool) fetch(ctx context.Context, target models.CrawlTarget) outcome {
	if err := p.delayer.Wait(ctx, target.Domain); err != nil {
		return outcome{target: target, err: err}
	}
	resp, err := p.fetcher.Fetch(ctx, target.URL)
	return outcome{target: target, resp: resp, err: err}
}

// stop closes the job queue and closes outcomes once every worker exited.
func (p *pool) stop() {
	close(p.jobs)
	go func() {
		p.wg.Wait()
		close(p.outcomes)
	}()
}
