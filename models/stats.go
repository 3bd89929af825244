package models

import "time"

// SessionStatus is the terminal (or current) status recorded in CrawlStats.
type SessionStatus string

const (
	StatusRunning   SessionStatus = "running"
	StatusCompleted SessionStatus = "completed"
	StatusAborted   SessionStatus = "aborted"
)

// CrawlStats is the running aggregate of a session. It is owned by the session
// loop and mutated once per processed URL.
type CrawlStats struct {
	SessionID        string           `json:"session_id"`
	Status           SessionStatus    `json:"status"`
	StartedAt        time.Time        `json:"started_at"`
	EndedAt          *time.Time       `json:"ended_at,omitempty"`
	TotalURLs        int              `json:"total_urls"`
	ProcessedURLs    int              `json:"processed_urls"`
	FailedURLs       int              `json:"failed_urls"`
	SkippedURLs      int              `json:"skipped_urls"`
	ByDataType       map[DataType]int `json:"by_data_type"`
	ByCategory       map[string]int   `json:"by_category"`
	TotalContentSize int64            `json:"total_content_size"`
	AverageQuality   float64          `json:"average_quality"`
}

// NewCrawlStats returns empty stats for a session started at startedAt.
func NewCrawlStats(sessionID string, startedAt time.Time) *CrawlStats {
	return &CrawlStats{
		SessionID:  sessionID,
		Status:     StatusRunning,
		StartedAt:  startedAt,
		ByDataType: make(map[DataType]int),
		ByCategory: make(map[string]int),
	}
}

// Record accounts for one successfully processed result. The average quality
// is updated incrementally.
func (s *CrawlStats) Record(r CrawlResult) {
	s.TotalURLs++
	s.ProcessedURLs++
	s.ByDataType[r.DataType]++
	s.ByCategory[r.Category]++
	s.TotalContentSize += int64(r.Metadata.ContentLength)
	s.AverageQuality += (r.Quality - s.AverageQuality) / float64(s.ProcessedURLs)
}

// RecordFailure accounts for a URL whose fetch failed.
func (s *CrawlStats) RecordFailure() {
	s.TotalURLs++
	s.FailedURLs++
}

// RecordSkip accounts for a fetched URL that produced no result.
func (s *CrawlStats) RecordSkip() {
	s.TotalURLs++
	s.SkippedURLs++
}

// SuccessRate is processed / (processed + failed), or 0 when nothing was attempted.
func (s *CrawlStats) SuccessRate() float64 {
	attempted := s.ProcessedURLs + s.FailedURLs
	if attempted == 0 {
		return 0
	}
	return float64(s.ProcessedURLs) / float64(attempted)
}

// Finalize sets the terminal status and end timestamp.
func (s *CrawlStats) Finalize(status SessionStatus, at time.Time) {
	s.Status = status
	s.EndedAt = &at
}

// Clone returns a deep copy safe to hand to a persister.
func (s *CrawlStats) Clone() *CrawlStats {
	c := *s
	c.ByDataType = make(map[DataType]int, len(s.ByDataType))
	for k, v := range s.ByDataType {
		c.ByDataType[k] = v
	}
	c.ByCategory = make(map[string]int, len(s.ByCategory))
	for k, v := range s.ByCategory {
		c.ByCategory[k] = v
	}
	if s.EndedAt != nil {
		end := *s.EndedAt
		c.EndedAt = &end
	}
	return &c
}
