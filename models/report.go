package models

import "time"

// QualityBand is a coarse human-facing bucket of the quality score.
type QualityBand string

const (
	BandExcellent QualityBand = "excellent"
	BandGood      QualityBand = "good"
	BandAverage   QualityBand = "average"
	BandPoor      QualityBand = "poor"
)

// SummaryReport is written once when a session terminates.
type SummaryReport struct {
	SessionID        string              `json:"session_id"`
	Status           SessionStatus       `json:"status"`
	StartedAt        time.Time           `json:"started_at"`
	EndedAt          time.Time           `json:"ended_at"`
	TotalURLs        int                 `json:"total_urls"`
	ProcessedURLs    int                 `json:"processed_urls"`
	FailedURLs       int                 `json:"failed_urls"`
	SkippedURLs      int                 `json:"skipped_urls"`
	SuccessRate      float64             `json:"success_rate"`
	ByDataType       map[DataType]int    `json:"by_data_type"`
	ByCategory       map[string]int      `json:"by_category"`
	ByQualityBand    map[QualityBand]int `json:"by_quality_band"`
	TotalContentSize int64               `json:"total_content_size"`
	AverageQuality   float64             `json:"average_quality"`
	TopResults       []CrawlResult       `json:"top_results"`
	Errors           []FailureEntry      `json:"errors"`
}
