// Package storage persists crawl progress and serves the stored records back
// to readers.
package storage

import (
	"context"
	"errors"
	"fmt"

	"civic-crawler/models"
)

var (
	// ErrResourceExhausted marks a write that failed because the disk or quota
	// is full. A session treats it as fatal.
	ErrResourceExhausted = errors.New("storage resources exhausted")
	// ErrNoSnapshot is returned by readers when nothing was persisted yet.
	ErrNoSnapshot = errors.New("no snapshot found")
)

// Persister receives incremental snapshots and the final report of a session.
// Snapshot replaces any previous snapshot of the same session.
type Persister interface {
	Snapshot(ctx context.Context, results []models.CrawlResult, stats *models.CrawlStats) error
	WriteReport(ctx context.Context, report *models.SummaryReport) error
}

// RecordReader is the read side consumed by the CLI and the HTTP API.
// An empty dataType matches every record; limit <= 0 means no limit.
type RecordReader interface {
	GetRecords(ctx context.Context, dataType models.DataType, limit int) ([]models.CrawlResult, error)
	GetStats(ctx context.Context) (*models.CrawlStats, error)
}

// Multi fans writes out to every persister and joins their errors.
type Multi []Persister

// Snapshot writes to all persisters, even after one fails.
func (m Multi) Snapshot(ctx context.Context, results []models.CrawlResult, stats *models.CrawlStats) error {
	var errs []error
	for _, p := range m {
		if err := p.Snapshot(ctx, results, stats); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteReport writes to all persisters, even after one fails.
func (m Multi) WriteReport(ctx context.Context, report *models.SummaryReport) error {
	var errs []error
	for _, p := range m {
		if err := p.WriteReport(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops everything. Useful for dry runs.
type Discard struct{}

func (Discard) Snapshot(context.Context, []models.CrawlResult, *models.CrawlStats) error { return nil }
func (Discard) WriteReport(context.Context, *models.SummaryReport) error                { return nil }

// IsResourceExhausted reports whether err means no further writes can succeed.
func IsResourceExhausted(err error) bool {
	return errors.Is(err, ErrResourceExhausted) || isExhaustedErrno(err)
}

// wrapWriteErr tags disk-full errors with ErrResourceExhausted.
func wrapWriteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isExhaustedErrno(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrResourceExhausted, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
