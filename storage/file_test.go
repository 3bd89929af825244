package storage_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic-crawler/models"
	"civic-crawler/storage"
)

var fetchedAt = time.Date(2024, 3, 12, 9, 30, 0, 0, time.UTC)

func result(seq int, category string, dt models.DataType, quality float64) models.CrawlResult {
	u := fmt.Sprintf("https://www.leeds.gov.uk/page-%d", seq)
	return models.CrawlResult{
		URL:            u,
		Title:          fmt.Sprintf("Page %d", seq),
		Description:    "A council page",
		ContentExcerpt: "Some text",
		DataType:       dt,
		Category:       category,
		Metadata: models.Metadata{
			ContentLength: 1200,
			WordCount:     200,
			ContentType:   "text/html",
			StatusCode:    200,
			FetchedAt:     fetchedAt,
		},
		ExtractedData: models.NewExtractedData(
			[]models.Table{{Headers: []string{"Item"}, Rows: [][]string{{"Budget"}}}},
			[]string{"12/03/2024"},
			[]string{"£1,000"},
			nil,
		),
		Quality: quality,
		Citation: models.CitationInfo{
			SourceURL:        u,
			Title:            fmt.Sprintf("Page %d", seq),
			FileLinks:        []string{},
			Domain:           "www.leeds.gov.uk",
			IsGovernmentSite: true,
			Confidence:       models.ConfidenceMedium,
		},
		Sequence: seq,
	}
}

func fixture() ([]models.CrawlResult, *models.CrawlStats) {
	results := []models.CrawlResult{
		result(0, "Council Meetings", models.DataTypeMeeting, 0.7),
		result(1, "Planning & Development", models.DataTypePlanningApplication, 0.4),
		result(2, "Council Meetings", models.DataTypeMeeting, 0.9),
	}
	stats := models.NewCrawlStats("session-1", fetchedAt)
	for _, r := range results {
		stats.Record(r)
	}
	return results, stats
}

func TestFileStore_SnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	results, stats := fixture()
	require.NoError(t, store.Snapshot(context.Background(), results, stats))

	loaded, err := store.LoadResults()
	require.NoError(t, err)
	assert.Equal(t, results, loaded)

	loadedStats, err := store.LoadStats()
	require.NoError(t, err)
	assert.Equal(t, stats, loadedStats)
}

func TestFileStore_StatsNeverAheadOfDataset(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := storage.NewFileStore(dir)
	require.NoError(t, err)

	results, _ := fixture()
	ctx := context.Background()

	first := models.NewCrawlStats("session-1", fetchedAt)
	first.Record(results[0])
	require.NoError(t, store.Snapshot(ctx, results[:1], first))

	// Make the dataset unwritable so the next snapshot fails on its first file.
	dataset := filepath.Join(dir, storage.DatasetFile)
	require.NoError(t, os.Remove(dataset))
	require.NoError(t, os.MkdirAll(filepath.Join(dataset, "blocker"), 0o755))

	second := models.NewCrawlStats("session-1", fetchedAt)
	for _, r := range results {
		second.Record(r)
	}
	require.Error(t, store.Snapshot(ctx, results, second))

	loaded, err := store.LoadStats()
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.ProcessedURLs)
}

func TestFileStore_SnapshotOverwrites(t *testing.T) {
	t.Parallel()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	results, stats := fixture()
	ctx := context.Background()
	require.NoError(t, store.Snapshot(ctx, results[:1], stats))
	require.NoError(t, store.Snapshot(ctx, results, stats))

	loaded, err := store.LoadResults()
	require.NoError(t, err)
	assert.Len(t, loaded, 3)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-", "temp files must not be left behind")
	}
}

func TestFileStore_CategoryFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := storage.NewFileStore(dir)
	require.NoError(t, err)

	results, stats := fixture()
	require.NoError(t, store.Snapshot(context.Background(), results, stats))

	meetings := filepath.Join(dir, storage.CategoriesDir, "council-meetings.json")
	planning := filepath.Join(dir, storage.CategoriesDir, "planning-development.json")
	assert.FileExists(t, meetings)
	assert.FileExists(t, planning)

	data, err := os.ReadFile(meetings)
	require.NoError(t, err)
	assert.Contains(t, string(data), "page-0")
	assert.Contains(t, string(data), "page-2")
	assert.NotContains(t, string(data), "page-1")
}

func TestFileStore_GetRecords(t *testing.T) {
	t.Parallel()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	results, stats := fixture()
	ctx := context.Background()
	require.NoError(t, store.Snapshot(ctx, results, stats))

	tests := []struct {
		name     string
		dataType models.DataType
		limit    int
		wantSeq  []int
	}{
		{"all", "", 0, []int{0, 1, 2}},
		{"limit", "", 2, []int{0, 1}},
		{"by data type", models.DataTypeMeeting, 0, []int{0, 2}},
		{"by data type with limit", models.DataTypeMeeting, 1, []int{0}},
		{"no match", models.DataTypeCouncillor, 0, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := store.GetRecords(ctx, tt.dataType, tt.limit)
			require.NoError(t, err)

			seqs := make([]int, 0, len(records))
			for _, r := range records {
				seqs = append(seqs, r.Sequence)
			}
			assert.Equal(t, tt.wantSeq, seqs)
		})
	}

	got, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ProcessedURLs)
}

func TestFileStore_NoSnapshot(t *testing.T) {
	t.Parallel()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.GetRecords(context.Background(), "", 0)
	assert.ErrorIs(t, err, storage.ErrNoSnapshot)

	_, err = store.GetStats(context.Background())
	assert.ErrorIs(t, err, storage.ErrNoSnapshot)
}

func TestOpenFileStore(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing")
	_, err := storage.OpenFileStore(missing)
	require.ErrorIs(t, err, storage.ErrNoSnapshot)
	_, statErr := os.Stat(missing)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "open must not create the directory")

	dir := t.TempDir()
	writer, err := storage.NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, writer.WriteReport(context.Background(), &models.SummaryReport{SessionID: "session-2"}))

	reader, err := storage.OpenFileStore(dir)
	require.NoError(t, err)
	loaded, err := reader.LoadReport()
	require.NoError(t, err)
	assert.Equal(t, "session-2", loaded.SessionID)
}

func TestFileStore_WriteReport(t *testing.T) {
	t.Parallel()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	report := &models.SummaryReport{SessionID: "session-1", Status: models.StatusCompleted, ProcessedURLs: 3}
	require.NoError(t, store.WriteReport(context.Background(), report))

	loaded, err := store.LoadReport()
	require.NoError(t, err)
	assert.Equal(t, "session-1", loaded.SessionID)
	assert.Equal(t, models.StatusCompleted, loaded.Status)
}

func TestCategorySlug(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Planning & Development": "planning-development",
		"Council Tax":            "council-tax",
		"General":                "general",
		"  Data & Statistics  ":  "data-statistics",
		"&&&":                    "uncategorized",
		"":                       "uncategorized",
	}
	for in, want := range tests {
		assert.Equal(t, want, storage.CategorySlug(in), in)
	}
}

type stubPersister struct {
	err       error
	snapshots int
	reports   int
}

func (s *stubPersister) Snapshot(context.Context, []models.CrawlResult, *models.CrawlStats) error {
	s.snapshots++
	return s.err
}

func (s *stubPersister) WriteReport(context.Context, *models.SummaryReport) error {
	s.reports++
	return s.err
}

func TestMulti_WritesAllAndJoinsErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ok := &stubPersister{}
	failing := &stubPersister{err: boom}
	m := storage.Multi{failing, ok}

	err := m.Snapshot(context.Background(), nil, models.NewCrawlStats("s", fetchedAt))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, ok.snapshots)
	assert.Equal(t, 1, failing.snapshots)

	err = m.WriteReport(context.Background(), &models.SummaryReport{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, ok.reports)
}

func TestIsResourceExhausted(t *testing.T) {
	t.Parallel()

	assert.True(t, storage.IsResourceExhausted(storage.ErrResourceExhausted))
	assert.True(t, storage.IsResourceExhausted(fmt.Errorf("write: %w", syscall.ENOSPC)))
	assert.True(t, storage.IsResourceExhausted(errors.Join(errors.New("db down"), storage.ErrResourceExhausted)))
	assert.False(t, storage.IsResourceExhausted(errors.New("permission denied")))
	assert.False(t, storage.IsResourceExhausted(nil))
}
