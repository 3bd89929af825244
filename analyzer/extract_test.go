package analyzer_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic-crawler/analyzer"
	"civic-crawler/models"
)

const meetingPage = `<!DOCTYPE html>
<html>
<head>
  <title>Executive Board meeting - Leeds City Council</title>
  <meta name="description" content="Agenda, minutes and decisions of the Executive Board meeting held on 12/03/2024.">
  <script>var x = "01/01/1999";</script>
</head>
<body>
  <h1>Executive Board</h1>
  <p>The meeting was held on 12/03/2024 and adjourned to 19-03-2024. Next meeting 12/03/2024.</p>
  <p>Budget approved: £1,250,000.50 with a contingency of £ 300 and £1,250,000.50 reserve.</p>
  <table>
    <tr><th>Item</th><th>Decision</th></tr>
    <tr><td>Budget</td><td>Approved</td></tr>
    <tr></tr>
    <tr><td>Housing strategy</td><td>Deferred</td></tr>
  </table>
  <a href="/council/agenda">Agenda</a>
  <a href="https://democracy.leeds.gov.uk/minutes">Minutes</a>
  <a href="/council/agenda#item-2">Agenda item 2</a>
  <a href="/docs/minutes-12-03-2024.pdf">Minutes (PDF)</a>
  <a href="mailto:Democratic.Services@leeds.gov.uk?subject=Board">Email</a>
  <a href="mailto:democratic.services@leeds.gov.uk">Email again</a>
  <img src="/logo.png"><img src="/seal.png">
  <form action="/search"><input name="q"></form>
</body>
</html>`

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtract_MeetingPage(t *testing.T) {
	t.Parallel()

	ex := analyzer.Extract(parse(t, meetingPage), "https://www.leeds.gov.uk/council/executive-board")

	assert.Equal(t, "Executive Board meeting - Leeds City Council", ex.Title)
	assert.True(t, strings.HasPrefix(ex.Description, "Agenda, minutes"))
	assert.NotContains(t, ex.Text, "01/01/1999")

	require.Len(t, ex.Data.Tables, 1)
	assert.Equal(t, []string{"Item", "Decision"}, ex.Data.Tables[0].Headers)
	assert.Equal(t, [][]string{{"Budget", "Approved"}, {"Housing strategy", "Deferred"}}, ex.Data.Tables[0].Rows)

	assert.Equal(t, []string{"12/03/2024", "19-03-2024"}, ex.Data.Dates)
	assert.Equal(t, []string{"£1,250,000.50", "£ 300"}, ex.Data.Amounts)
	assert.Equal(t, []string{"democratic.services@leeds.gov.uk"}, ex.Data.Contacts)

	assert.Equal(t, []string{
		"https://www.leeds.gov.uk/council/agenda",
		"https://democracy.leeds.gov.uk/minutes",
		"https://www.leeds.gov.uk/council/agenda#item-2",
	}, ex.Links)
	assert.Equal(t, []string{"https://www.leeds.gov.uk/docs/minutes-12-03-2024.pdf"}, ex.FileLinks)

	assert.Equal(t, 1, ex.Counts.TableCount)
	assert.Equal(t, 1, ex.Counts.FormCount)
	assert.Equal(t, 2, ex.Counts.ImageCount)
	assert.Equal(t, 6, ex.Counts.LinkCount)
	assert.Positive(t, ex.Counts.WordCount)
	assert.Equal(t, len([]rune(ex.Text)), ex.Counts.ContentLength)
}

func TestExtract_CapsOnLargeDocument(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("<html><body>")
	for i := range 20 {
		b.WriteString("<table><tr><th>H</th></tr>")
		for j := range 30 {
			fmt.Fprintf(&b, "<tr><td>%d-%d</td></tr>", i, j)
		}
		b.WriteString("</table>")
	}
	for i := range 60 {
		fmt.Fprintf(&b, "<p>%02d/01/2024 £%d</p>", i%28+1, i+1)
		fmt.Fprintf(&b, `<a href="mailto:officer%d@leeds.gov.uk">x</a>`, i)
	}
	b.WriteString("</body></html>")

	ex := analyzer.Extract(parse(t, b.String()), "https://www.leeds.gov.uk/")

	assert.LessOrEqual(t, len(ex.Data.Tables), models.MaxTables)
	for _, tbl := range ex.Data.Tables {
		assert.LessOrEqual(t, len(tbl.Rows), models.MaxTableRows)
	}
	assert.LessOrEqual(t, len(ex.Data.Dates), models.MaxDates)
	assert.LessOrEqual(t, len(ex.Data.Amounts), models.MaxAmounts)
	assert.LessOrEqual(t, len(ex.Data.Contacts), models.MaxContacts)
	assert.Len(t, ex.Data.Tables, models.MaxTables)
	assert.Equal(t, 20, ex.Counts.TableCount)
}

func TestPipeline_BuildsResult(t *testing.T) {
	t.Parallel()

	fetched := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	page := analyzer.Page{
		URL:         "https://democracy.leeds.gov.uk/meetings/executive-board",
		Body:        []byte(meetingPage),
		ContentType: "text/html; charset=utf-8",
		StatusCode:  200,
		Depth:       1,
		Sequence:    4,
		FetchedAt:   fetched,
	}

	ex, err := analyzer.ExtractPage(page, 0)
	require.NoError(t, err)
	class := analyzer.ClassifyPage(page, ex)
	quality := analyzer.Score(ex.Title, ex.Description, ex.Text, ex.Data)
	result := analyzer.Assemble(page, ex, class, quality, ".gov.uk")

	assert.Equal(t, models.DataTypeMeeting, result.DataType)
	assert.Equal(t, "Council Meetings", result.Category)
	assert.Equal(t, 4, result.Sequence)
	assert.Equal(t, 1, result.Metadata.Depth)
	assert.Equal(t, fetched, result.Metadata.FetchedAt)
	assert.True(t, result.Citation.IsGovernmentSite)
	assert.Equal(t, models.ConfidenceHigh, result.Citation.Confidence)
	assert.Equal(t, "democracy.leeds.gov.uk", result.Citation.Domain)
	assert.Equal(t, quality, result.Quality)
	assert.GreaterOrEqual(t, result.Quality, 0.0)
	assert.LessOrEqual(t, result.Quality, 1.0)
	assert.Len(t, ex.Links, 3)
}

func TestExtractPage_TooShort(t *testing.T) {
	t.Parallel()

	_, err := analyzer.ExtractPage(analyzer.Page{
		URL:  "https://www.leeds.gov.uk/empty",
		Body: []byte("<html><body><p>Coming soon</p></body></html>"),
	}, 0)

	assert.ErrorIs(t, err, analyzer.ErrContentTooShort)
}

func TestBuildCitation(t *testing.T) {
	t.Parallel()

	c := analyzer.BuildCitation("https://www.york.gov.uk/bins", "Bins", nil, analyzer.DefaultGovSuffix)
	assert.True(t, c.IsGovernmentSite)
	assert.Equal(t, models.ConfidenceMedium, c.Confidence)
	assert.Empty(t, c.FileLinks)

	c = analyzer.BuildCitation("https://example.com/x", "X", []string{"https://example.com/a.pdf"}, analyzer.DefaultGovSuffix)
	assert.False(t, c.IsGovernmentSite)
	assert.Equal(t, models.ConfidenceHigh, c.Confidence)
	assert.Equal(t, "example.com", c.Domain)
}

func TestIsHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		contentType string
		want        bool
	}{
		{"text/html", true},
		{"text/html; charset=utf-8", true},
		{"TEXT/HTML", true},
		{"application/xhtml+xml", true},
		{"", true},
		{"application/pdf", false},
		{"application/json", false},
		{"text/plain", false},
		{";;", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, analyzer.IsHTML(tt.contentType))
		})
	}
}
