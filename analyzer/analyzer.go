package analyzer

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"time"

	"github.com/PuerkitoBio/goquery"

	"civic-crawler/models"
)

// DefaultMinContentLength is the shortest page text, in runes, worth keeping.
const DefaultMinContentLength = 100

var (
	// ErrContentTooShort marks a page dropped for having too little text.
	ErrContentTooShort = errors.New("content too short")
	// ErrParse marks a page whose HTML could not be parsed.
	ErrParse = errors.New("parse html")
)

// Page is a fetched document ready for analysis.
type Page struct {
	URL         string
	Body        []byte
	ContentType string
	StatusCode  int
	Depth       int
	Sequence    int
	FetchedAt   time.Time
}

// ExtractPage parses the page body and extracts its content. A minLen <= 0
// means DefaultMinContentLength.
func ExtractPage(p Page, minLen int) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return Extraction{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	ex := Extract(doc, p.URL)

	if minLen <= 0 {
		minLen = DefaultMinContentLength
	}
	if ex.Counts.ContentLength < minLen {
		return Extraction{}, fmt.Errorf("%w: %d runes", ErrContentTooShort, ex.Counts.ContentLength)
	}
	return ex, nil
}

// Assemble builds the immutable result of a page from the stage outputs.
func Assemble(p Page, ex Extraction, class Classification, quality float64, govSuffix string) models.CrawlResult {
	meta := ex.Counts
	meta.ContentType = p.ContentType
	meta.StatusCode = p.StatusCode
	meta.Depth = p.Depth
	meta.FetchedAt = p.FetchedAt

	return models.CrawlResult{
		URL:            p.URL,
		Title:          ex.Title,
		Description:    ex.Description,
		ContentExcerpt: models.Excerpt(ex.Text),
		DataType:       class.DataType,
		Category:       class.Category,
		Metadata:       meta,
		ExtractedData:  ex.Data,
		Quality:        quality,
		Citation:       BuildCitation(p.URL, ex.Title, ex.FileLinks, govSuffix),
		Sequence:       p.Sequence,
	}
}

// IsHTML reports whether a Content-Type header denotes an HTML document.
// An empty header is treated as HTML.
func IsHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
