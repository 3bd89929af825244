// Package models holds the records produced by a crawl session.
package models

import (
	"fmt"
	"time"
)

// DataType is the technical classification of a crawled page.
type DataType string

const (
	DataTypeMeeting             DataType = "meeting"
	DataTypePlanningApplication DataType = "planning_application"
	DataTypeFinancialInfo       DataType = "financial_info"
	DataTypeServiceForm         DataType = "service_form"
	DataTypeDataTable           DataType = "data_table"
	DataTypeCouncillor          DataType = "councillor"
	DataTypeCouncilPage         DataType = "council_page"
	DataTypeGeneral             DataType = "general"
)

// DataTypes lists every valid DataType in a stable order.
var DataTypes = []DataType{
	DataTypeMeeting,
	DataTypePlanningApplication,
	DataTypeFinancialInfo,
	DataTypeServiceForm,
	DataTypeDataTable,
	DataTypeCouncillor,
	DataTypeCouncilPage,
	DataTypeGeneral,
}

// ParseDataType converts s into a DataType, rejecting unknown values.
func ParseDataType(s string) (DataType, error) {
	for _, dt := range DataTypes {
		if string(dt) == s {
			return dt, nil
		}
	}
	return "", fmt.Errorf("unknown data type %q", s)
}

// Confidence of a citation.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
)

// MaxExcerptLength caps CrawlResult.ContentExcerpt, in runes.
const MaxExcerptLength = 500

// CrawlTarget is a URL waiting in the frontier.
type CrawlTarget struct {
	URL      string `json:"url"`
	Depth    int    `json:"depth"`
	Domain   string `json:"domain"`
	Sequence int    `json:"sequence"`
}

// Metadata describes the fetched page.
type Metadata struct {
	ContentLength int       `json:"content_length"`
	WordCount     int       `json:"word_count"`
	LinkCount     int       `json:"link_count"`
	ImageCount    int       `json:"image_count"`
	TableCount    int       `json:"table_count"`
	FormCount     int       `json:"form_count"`
	ContentType   string    `json:"content_type"`
	StatusCode    int       `json:"status_code"`
	Depth         int       `json:"depth"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// CitationInfo records where a result was sourced from.
type CitationInfo struct {
	SourceURL        string     `json:"source_url"`
	Title            string     `json:"title"`
	FileLinks        []string   `json:"file_links"`
	Domain           string     `json:"domain"`
	IsGovernmentSite bool       `json:"is_government_site"`
	Confidence       Confidence `json:"confidence"`
}

// CrawlResult is the immutable record produced for one successfully processed page.
type CrawlResult struct {
	URL            string        `json:"url"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	ContentExcerpt string        `json:"content_excerpt"`
	DataType       DataType      `json:"data_type"`
	Category       string        `json:"category"`
	Metadata       Metadata      `json:"metadata"`
	ExtractedData  ExtractedData `json:"extracted_data"`
	Quality        float64       `json:"quality"`
	Citation       CitationInfo  `json:"citation"`
	Sequence       int           `json:"sequence"`
}

// Excerpt returns content truncated to MaxExcerptLength runes.
func Excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= MaxExcerptLength {
		return content
	}
	return string(runes[:MaxExcerptLength])
}

// FailureEntry is one failed URL in the summary report.
type FailureEntry struct {
	URL        string    `json:"url"`
	Reason     string    `json:"reason"`
	StatusCode int       `json:"status_code,omitempty"`
	Attempts   int       `json:"attempts"`
	At         time.Time `json:"at"`
}
