package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"civic-crawler/models"
)

// Artifact names inside the output directory.
const (
	DatasetFile   = "dataset.json"
	StatsFile     = "stats.json"
	SummaryFile   = "summary.json"
	CategoriesDir = "categories"
)

const dirPerm = 0o755

// FileStore writes JSON artifacts to a directory. Every artifact is replaced
// atomically, so a crash mid-write leaves the previous snapshot intact.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, CategoriesDir), dirPerm); err != nil {
		return nil, wrapWriteErr("create output dir", err)
	}
	return &FileStore{dir: dir}, nil
}

// OpenFileStore opens an existing directory for reading. A missing
// directory reports ErrNoSnapshot.
func OpenFileStore(dir string) (*FileStore, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoSnapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("open output dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open output dir: %s is not a directory", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir is the output directory.
func (s *FileStore) Dir() string { return s.dir }

// Snapshot writes the dataset, the stats and one file per category.
func (s *FileStore) Snapshot(ctx context.Context, results []models.CrawlResult, stats *models.CrawlStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if results == nil {
		results = []models.CrawlResult{}
	}
	// The dataset is replaced before the stats, so stats.json never counts
	// more results than dataset.json holds. A crash in between leaves stats
	// one snapshot behind, which the next snapshot repairs.
	if err := writeJSON(filepath.Join(s.dir, DatasetFile), results); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(s.dir, StatsFile), stats); err != nil {
		return err
	}

	for category, records := range partition(results) {
		path := filepath.Join(s.dir, CategoriesDir, CategorySlug(category)+".json")
		if err := writeJSON(path, records); err != nil {
			return err
		}
	}
	return nil
}

// WriteReport writes summary.json.
func (s *FileStore) WriteReport(ctx context.Context, report *models.SummaryReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return writeJSON(filepath.Join(s.dir, SummaryFile), report)
}

// LoadResults reads the last dataset snapshot in its original order.
func (s *FileStore) LoadResults() ([]models.CrawlResult, error) {
	var results []models.CrawlResult
	if err := readJSON(filepath.Join(s.dir, DatasetFile), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// LoadStats reads the last stats snapshot.
func (s *FileStore) LoadStats() (*models.CrawlStats, error) {
	var stats models.CrawlStats
	if err := readJSON(filepath.Join(s.dir, StatsFile), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// LoadReport reads the final summary report.
func (s *FileStore) LoadReport() (*models.SummaryReport, error) {
	var report models.SummaryReport
	if err := readJSON(filepath.Join(s.dir, SummaryFile), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetRecords filters the last dataset snapshot.
func (s *FileStore) GetRecords(ctx context.Context, dataType models.DataType, limit int) ([]models.CrawlResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results, err := s.LoadResults()
	if err != nil {
		return nil, err
	}
	return Filter(results, dataType, limit), nil
}

// GetStats returns the last stats snapshot.
func (s *FileStore) GetStats(ctx context.Context) (*models.CrawlStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.LoadStats()
}

// Filter keeps records of dataType (all when empty), up to limit (all when <= 0).
func Filter(results []models.CrawlResult, dataType models.DataType, limit int) []models.CrawlResult {
	out := make([]models.CrawlResult, 0, len(results))
	for _, r := range results {
		if dataType != "" && r.DataType != dataType {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// CategorySlug turns a category label into a file name, e.g.
// "Planning & Development" becomes "planning-development".
func CategorySlug(category string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(category) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "uncategorized"
	}
	return slug
}

func partition(results []models.CrawlResult) map[string][]models.CrawlResult {
	out := make(map[string][]models.CrawlResult)
	for _, r := range results {
		out[r.Category] = append(out[r.Category], r)
	}
	return out
}

// writeJSON writes v to a temp file next to path, fsyncs it and renames it
// over path.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return wrapWriteErr("create temp file", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return wrapWriteErr("write "+filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return wrapWriteErr("sync "+filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return wrapWriteErr("close "+filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return wrapWriteErr("replace "+filepath.Base(path), err)
	}
	committed = true
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNoSnapshot, path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
