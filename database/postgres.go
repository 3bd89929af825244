// Package database persists crawl sessions to PostgreSQL and reads them back.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"civic-crawler/models"
	"civic-crawler/storage"
)

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 2
	defaultConnMaxLifetime = 5 * time.Minute
	pingTimeout            = 5 * time.Second
)

// pgDiskFull is the SQLSTATE raised when the server runs out of disk.
const pgDiskFull = "53100"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS crawl_sessions (
		session_id   TEXT PRIMARY KEY,
		status       TEXT NOT NULL,
		started_at   TIMESTAMPTZ NOT NULL,
		ended_at     TIMESTAMPTZ,
		stats        JSONB NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS crawl_results (
		session_id      TEXT NOT NULL REFERENCES crawl_sessions(session_id) ON DELETE CASCADE,
		url             TEXT NOT NULL,
		sequence        INTEGER NOT NULL,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL,
		content_excerpt TEXT NOT NULL,
		data_type       TEXT NOT NULL,
		category        TEXT NOT NULL,
		quality         DOUBLE PRECISION NOT NULL,
		metadata        JSONB NOT NULL,
		extracted_data  JSONB NOT NULL,
		citation        JSONB NOT NULL,
		PRIMARY KEY (session_id, url)
	)`,
	`CREATE TABLE IF NOT EXISTS crawl_reports (
		session_id TEXT PRIMARY KEY REFERENCES crawl_sessions(session_id) ON DELETE CASCADE,
		report     JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_crawl_results_data_type ON crawl_results(session_id, data_type)`,
	`CREATE INDEX IF NOT EXISTS idx_crawl_sessions_started_at ON crawl_sessions(started_at DESC)`,
}

const upsertSessionQuery = `
	INSERT INTO crawl_sessions (session_id, status, started_at, ended_at, stats, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	ON CONFLICT (session_id) DO UPDATE
	SET status = EXCLUDED.status, ended_at = EXCLUDED.ended_at,
		stats = EXCLUDED.stats, updated_at = NOW()`

const upsertResultQuery = `
	INSERT INTO crawl_results (session_id, url, sequence, title, description, content_excerpt,
		data_type, category, quality, metadata, extracted_data, citation)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (session_id, url) DO NOTHING`

const upsertReportQuery = `
	INSERT INTO crawl_reports (session_id, report) VALUES ($1, $2)
	ON CONFLICT (session_id) DO UPDATE SET report = EXCLUDED.report, created_at = NOW()`

const latestSessionQuery = `SELECT session_id FROM crawl_sessions ORDER BY started_at DESC LIMIT 1`

const resultColumns = `url, sequence, title, description, content_excerpt, data_type,
	category, quality, metadata, extracted_data, citation`

// PostgresStore implements storage.Persister and storage.RecordReader.
// Results are immutable, so a snapshot only inserts rows it has not stored yet.
type PostgresStore struct {
	db *sqlx.DB
}

// Open connects to databaseURL and creates the schema.
func Open(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := NewPostgresStore(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an open connection.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates missing tables and indexes.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, q := range schema {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Snapshot stores the session row and every new result in one transaction.
func (s *PostgresStore) Snapshot(ctx context.Context, results []models.CrawlResult, stats *models.CrawlStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapErr("begin snapshot", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, upsertSessionQuery,
		stats.SessionID, string(stats.Status), stats.StartedAt, stats.EndedAt, statsJSON,
	); err != nil {
		return wrapErr("upsert session", err)
	}

	for _, r := range results {
		args, err := resultArgs(stats.SessionID, r)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, upsertResultQuery, args...); err != nil {
			return wrapErr("insert result "+r.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("commit snapshot", err)
	}
	return nil
}

// WriteReport stores the summary report of its session.
func (s *PostgresStore) WriteReport(ctx context.Context, report *models.SummaryReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, upsertReportQuery, report.SessionID, data); err != nil {
		return wrapErr("write report", err)
	}
	return nil
}

// GetRecords returns results of the most recent session in discovery order.
func (s *PostgresStore) GetRecords(ctx context.Context, dataType models.DataType, limit int) ([]models.CrawlResult, error) {
	sessionID, err := s.latestSession(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + resultColumns + ` FROM crawl_results
		WHERE session_id = $1 AND ($2 = '' OR data_type = $2)
		ORDER BY sequence LIMIT $3`

	var limitArg sql.NullInt64
	if limit > 0 {
		limitArg = sql.NullInt64{Int64: int64(limit), Valid: true}
	}

	var rows []resultRow
	if err := s.db.SelectContext(ctx, &rows, query, sessionID, string(dataType), limitArg); err != nil {
		return nil, fmt.Errorf("select results: %w", err)
	}

	results := make([]models.CrawlResult, 0, len(rows))
	for _, row := range rows {
		r, err := row.toModel()
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// GetStats returns the stats of the most recent session.
func (s *PostgresStore) GetStats(ctx context.Context) (*models.CrawlStats, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, `SELECT stats FROM crawl_sessions ORDER BY started_at DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("select stats: %w", err)
	}

	var stats models.CrawlStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return &stats, nil
}

func (s *PostgresStore) latestSession(ctx context.Context) (string, error) {
	var id string
	err := s.db.GetContext(ctx, &id, latestSessionQuery)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNoSnapshot
	}
	if err != nil {
		return "", fmt.Errorf("select latest session: %w", err)
	}
	return id, nil
}

type resultRow struct {
	URL            string  `db:"url"`
	Sequence       int     `db:"sequence"`
	Title          string  `db:"title"`
	Description    string  `db:"description"`
	ContentExcerpt string  `db:"content_excerpt"`
	DataType       string  `db:"data_type"`
	Category       string  `db:"category"`
	Quality        float64 `db:"quality"`
	Metadata       []byte  `db:"metadata"`
	ExtractedData  []byte  `db:"extracted_data"`
	Citation       []byte  `db:"citation"`
}

func (row resultRow) toModel() (models.CrawlResult, error) {
	dt, err := models.ParseDataType(row.DataType)
	if err != nil {
		return models.CrawlResult{}, fmt.Errorf("result %s: %w", row.URL, err)
	}

	r := models.CrawlResult{
		URL:            row.URL,
		Title:          row.Title,
		Description:    row.Description,
		ContentExcerpt: row.ContentExcerpt,
		DataType:       dt,
		Category:       row.Category,
		Quality:        row.Quality,
		Sequence:       row.Sequence,
	}
	if err := json.Unmarshal(row.Metadata, &r.Metadata); err != nil {
		return models.CrawlResult{}, fmt.Errorf("decode metadata of %s: %w", row.URL, err)
	}
	if err := json.Unmarshal(row.ExtractedData, &r.ExtractedData); err != nil {
		return models.CrawlResult{}, fmt.Errorf("decode extracted data of %s: %w", row.URL, err)
	}
	if err := json.Unmarshal(row.Citation, &r.Citation); err != nil {
		return models.CrawlResult{}, fmt.Errorf("decode citation of %s: %w", row.URL, err)
	}
	return r, nil
}

func resultArgs(sessionID string, r models.CrawlResult) ([]any, error) {
	metadata, err := json.Marshal(r.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	extracted, err := json.Marshal(r.ExtractedData)
	if err != nil {
		return nil, fmt.Errorf("encode extracted data: %w", err)
	}
	citation, err := json.Marshal(r.Citation)
	if err != nil {
		return nil, fmt.Errorf("encode citation: %w", err)
	}
	return []any{
		sessionID, r.URL, r.Sequence, r.Title, r.Description, r.ContentExcerpt,
		string(r.DataType), r.Category, r.Quality, metadata, extracted, citation,
	}, nil
}

// wrapErr tags disk-full errors with storage.ErrResourceExhausted.
func wrapErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgDiskFull {
		return fmt.Errorf("%s: %w: %w", op, storage.ErrResourceExhausted, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
