// Package report builds and renders the summary report of a crawl session.
package report

import (
	"cmp"
	"maps"
	"slices"

	"civic-crawler/analyzer"
	"civic-crawler/models"
)

// DefaultTopN is the number of top results kept when topN <= 0.
const DefaultTopN = 10

// Build assembles the summary report from the final session state. Top results
// are ordered by quality descending, ties by discovery sequence.
func Build(results []models.CrawlResult, stats *models.CrawlStats, failures []models.FailureEntry, topN int) *models.SummaryReport {
	if topN <= 0 {
		topN = DefaultTopN
	}

	r := &models.SummaryReport{
		SessionID:        stats.SessionID,
		Status:           stats.Status,
		StartedAt:        stats.StartedAt,
		TotalURLs:        stats.TotalURLs,
		ProcessedURLs:    stats.ProcessedURLs,
		FailedURLs:       stats.FailedURLs,
		SkippedURLs:      stats.SkippedURLs,
		SuccessRate:      stats.SuccessRate(),
		ByDataType:       maps.Clone(stats.ByDataType),
		ByCategory:       maps.Clone(stats.ByCategory),
		ByQualityBand:    make(map[models.QualityBand]int),
		TotalContentSize: stats.TotalContentSize,
		AverageQuality:   stats.AverageQuality,
		TopResults:       topResults(results, topN),
		Errors:           append([]models.FailureEntry{}, failures...),
	}
	if stats.EndedAt != nil {
		r.EndedAt = *stats.EndedAt
	}
	if r.ByDataType == nil {
		r.ByDataType = make(map[models.DataType]int)
	}
	if r.ByCategory == nil {
		r.ByCategory = make(map[string]int)
	}

	for _, res := range results {
		r.ByQualityBand[analyzer.Band(res.Quality)]++
	}

	return r
}

func topResults(results []models.CrawlResult, n int) []models.CrawlResult {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b models.CrawlResult) int {
		if c := cmp.Compare(b.Quality, a.Quality); c != 0 {
			return c
		}
		return cmp.Compare(a.Sequence, b.Sequence)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	if sorted == nil {
		sorted = []models.CrawlResult{}
	}
	return sorted
}
