// Package crawler runs crawl sessions: it drives the frontier, a pool of
// fetch workers, the analysis pipeline and the persister through the session
// state machine.
package crawler

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"civic-crawler/analyzer"
	"civic-crawler/config"
	"civic-crawler/fetcher"
	"civic-crawler/frontier"
	"civic-crawler/logger"
	"civic-crawler/models"
	"civic-crawler/report"
	"civic-crawler/storage"
)

// finalWriteTimeout bounds the snapshot and report writes after the session
// context was cancelled.
const finalWriteTimeout = 30 * time.Second

// ErrAlreadyRun is returned when Run is called twice on a session.
var ErrAlreadyRun = errors.New("crawl session already run")

// Skip reasons, counted as neither success nor failure.
const (
	skipNotHTML       = "not_html"
	skipTooShort      = "content_too_short"
	skipParse         = "parse_error"
	skipDuplicateBody = "duplicate_content"
)

// Session is one crawl run. The frontier, results, stats and failures are
// owned by the goroutine executing Run.
type Session struct {
	id        string
	cfg       config.Config
	fetcher   Fetcher
	persister storage.Persister
	delayer   Delayer
	log       logger.Interface
	now       func() time.Time
	observe   func(State)

	state   atomic.Int32
	started atomic.Bool

	frontier  *frontier.Frontier
	results   []models.CrawlResult
	stats     *models.CrawlStats
	failures  []models.FailureEntry
	bodies    map[[sha256.Size]byte]struct{}
	sinceSave int
}

// Option customises a Session.
type Option func(*Session)

// WithDelayer replaces the per-domain politeness gate.
func WithDelayer(d Delayer) Option {
	return func(s *Session) { s.delayer = d }
}

// WithSessionID sets the session ID instead of a random UUID.
func WithSessionID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithStateObserver registers a callback invoked, on the session goroutine,
// for every state transition.
func WithStateObserver(fn func(State)) Option {
	return func(s *Session) { s.observe = fn }
}

// NewSession creates a session. cfg is copied and never mutated.
func NewSession(cfg config.Config, f Fetcher, p storage.Persister, log logger.Interface, opts ...Option) *Session {
	if log == nil {
		log = logger.NewNoOp()
	}
	if p == nil {
		p = storage.Discard{}
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.SaveInterval < 1 {
		cfg.SaveInterval = 1
	}

	s := &Session{
		id:        uuid.NewString(),
		cfg:       cfg,
		fetcher:   f,
		persister: p,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.delayer == nil {
		s.delayer = NewDomainGate(cfg.BaseDelay, cfg.MaxDelay)
	}
	s.log = log.With("component", "crawler", "session_id", s.id)
	return s
}

// ID is the session ID.
func (s *Session) ID() string { return s.id }

// State is the current state. Safe to call from any goroutine.
func (s *Session) State() State { return State(s.state.Load()) }

// Run crawls until the frontier is exhausted, MaxURLs targets were handed
// out or ctx is cancelled, then writes a final snapshot and the summary
// report. A cancelled ctx ends the session as aborted with a nil error; a
// non-nil error means the session aborted because storage is exhausted.
func (s *Session) Run(ctx context.Context) (*models.SummaryReport, error) {
	if !s.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRun
	}

	s.stats = models.NewCrawlStats(s.id, s.now().UTC())
	s.bodies = make(map[[sha256.Size]byte]struct{})
	s.frontier = frontier.New(frontier.Options{
		AllowedDomains: s.cfg.AllowedDomains,
		MaxURLs:        s.cfg.MaxURLs,
		MaxDepth:       s.cfg.MaxDepth,
		DiscoveryCap:   s.cfg.DiscoveryCap,
	})

	accepted := s.frontier.EnqueueSeeds(s.cfg.Seeds)
	if rejected := len(s.cfg.Seeds) - accepted; rejected > 0 {
		s.log.Warn("seeds rejected", "rejected", rejected, "accepted", accepted)
	}
	s.setState(StateSeeded)
	s.log.Info("crawl session started",
		"profile", s.cfg.Profile,
		"seeds", accepted,
		"max_urls", s.cfg.MaxURLs,
		"max_depth", s.cfg.MaxDepth,
		"workers", s.cfg.Workers,
	)

	p := startPool(ctx, s.cfg.Workers, s.fetcher, s.delayer)
	end, fatal := s.loop(ctx, p)
	p.stop()
	s.drain(p, fatal != nil)

	status := models.StatusAborted
	if end != StateAborted {
		status = models.StatusCompleted
		s.setState(end)
	}

	s.setState(StateFinalizing)
	rep := s.finalize(ctx, status)
	if status == models.StatusAborted {
		s.setState(StateAborted)
	} else {
		s.setState(StateCompleted)
	}

	s.log.Info("crawl session finished",
		"status", status,
		"processed", s.stats.ProcessedURLs,
		"failed", s.stats.FailedURLs,
		"skipped", s.stats.SkippedURLs,
		"average_quality", s.stats.AverageQuality,
	)
	return rep, fatal
}

// loop dispatches targets and applies outcomes until a terminal condition.
// It returns StateFrontierExhausted, StateMaxURLsReached or StateAborted.
func (s *Session) loop(ctx context.Context, p *pool) (State, error) {
	inflight := 0
	for {
		for inflight < s.cfg.Workers && ctx.Err() == nil {
			s.setState(StateDequeuing)
			target, ok := s.frontier.Dequeue()
			if !ok {
				break
			}
			s.setState(StateFetching)
			s.log.Debug("fetching", "url", target.URL, "depth", target.Depth)
			p.jobs <- target
			inflight++
		}

		if inflight == 0 {
			switch {
			case ctx.Err() != nil:
				return StateAborted, nil
			case s.frontier.CeilingReached():
				return StateMaxURLsReached, nil
			default:
				return StateFrontierExhausted, nil
			}
		}

		select {
		case <-ctx.Done():
			s.log.Info("crawl interrupted", "in_flight", inflight)
			return StateAborted, nil
		case o := <-p.outcomes:
			inflight--
			if err := s.apply(ctx, o); err != nil {
				return StateAborted, err
			}
		}
	}
}

// drain consumes the outcomes of fetches still in flight after the loop
// ended. Completed pages are kept unless storage already failed.
func (s *Session) drain(p *pool, discard bool) {
	for o := range p.outcomes {
		if discard || isCancellation(o.err) {
			continue
		}
		// Snapshot errors are ignored here; the final write follows.
		_ = s.apply(context.Background(), o)
	}
}

// apply runs one outcome through the processing states. Only a fatal storage
// error is returned.
func (s *Session) apply(ctx context.Context, o outcome) error {
	if o.err != nil {
		if isCancellation(o.err) && ctx.Err() != nil {
			return nil
		}
		s.setState(StateFetchFailed)
		s.recordFailure(o.target, o.err)
		return nil
	}

	s.setState(StateFetched)
	resp := o.resp
	if !analyzer.IsHTML(resp.ContentType) {
		s.skip(o.target, skipNotHTML)
		return nil
	}
	sum := sha256.Sum256(resp.Body)
	if _, dup := s.bodies[sum]; dup {
		s.skip(o.target, skipDuplicateBody)
		return nil
	}
	s.bodies[sum] = struct{}{}

	page := analyzer.Page{
		URL:         o.target.URL,
		Body:        resp.Body,
		ContentType: resp.ContentType,
		StatusCode:  resp.StatusCode,
		Depth:       o.target.Depth,
		Sequence:    o.target.Sequence,
		FetchedAt:   resp.FetchedAt,
	}

	s.setState(StateExtracting)
	ex, err := analyzer.ExtractPage(page, s.cfg.MinContentLength)
	switch {
	case errors.Is(err, analyzer.ErrContentTooShort):
		s.skip(o.target, skipTooShort)
		return nil
	case err != nil:
		s.skip(o.target, skipParse)
		return nil
	}

	s.setState(StateClassifying)
	class := analyzer.ClassifyPage(page, ex)

	s.setState(StateScoring)
	quality := analyzer.Score(ex.Title, ex.Description, ex.Text, ex.Data)

	result := analyzer.Assemble(page, ex, class, quality, s.cfg.GovDomainSuffix)
	s.results = append(s.results, result)
	s.stats.Record(result)

	discovered := s.frontier.Discover(ex.Links, page.URL, page.Depth)
	s.log.Debug("page processed",
		"url", page.URL,
		"data_type", result.DataType,
		"quality", result.Quality,
		"discovered", discovered,
	)

	s.setState(StatePersisted)
	s.sinceSave++
	if s.sinceSave < s.cfg.SaveInterval {
		return nil
	}
	s.sinceSave = 0
	return s.snapshot(ctx)
}

// snapshot persists progress. Only resource exhaustion is returned.
func (s *Session) snapshot(ctx context.Context) error {
	err := s.persister.Snapshot(ctx, s.results, s.stats)
	if err == nil {
		s.log.Debug("snapshot saved", "results", len(s.results))
		return nil
	}
	if storage.IsResourceExhausted(err) {
		s.log.Error("storage exhausted, aborting session", "error", err)
		return fmt.Errorf("snapshot: %w", err)
	}
	s.log.Warn("snapshot failed, retrying at next interval", "error", err)
	return nil
}

// finalize writes the final snapshot and the report. Writes are attempted
// even if ctx was cancelled.
func (s *Session) finalize(ctx context.Context, status models.SessionStatus) *models.SummaryReport {
	s.stats.Finalize(status, s.now().UTC())

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalWriteTimeout)
	defer cancel()

	if err := s.persister.Snapshot(writeCtx, s.results, s.stats); err != nil {
		s.log.Error("final snapshot failed", "error", err)
	}

	rep := report.Build(s.results, s.stats, s.failures, s.cfg.TopN)
	if err := s.persister.WriteReport(writeCtx, rep); err != nil {
		s.log.Error("writing summary report failed", "error", err)
	}
	return rep
}

func (s *Session) recordFailure(target models.CrawlTarget, err error) {
	entry := models.FailureEntry{
		URL:      target.URL,
		Reason:   string(fetcher.ReasonNetwork),
		Attempts: 1,
		At:       s.now().UTC(),
	}
	var fetchErr *fetcher.FetchError
	if errors.As(err, &fetchErr) {
		entry.Reason = string(fetchErr.Reason)
		entry.StatusCode = fetchErr.StatusCode
		entry.Attempts = fetchErr.Attempts
	}

	s.stats.RecordFailure()
	s.failures = append(s.failures, entry)
	s.log.Warn("fetch failed", "url", target.URL, "reason", entry.Reason, "status", entry.StatusCode, "error", err)
}

func (s *Session) skip(target models.CrawlTarget, reason string) {
	s.stats.RecordSkip()
	s.log.Debug("page skipped", "url", target.URL, "reason", reason)
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
	if s.observe != nil {
		s.observe(st)
	}
}

// isCancellation reports whether err comes from the session context rather
// than from the fetch itself. Fetch timeouts arrive wrapped in a FetchError.
func isCancellation(err error) bool {
	var fetchErr *fetcher.FetchError
	if errors.As(err, &fetchErr) {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
