package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"civic-crawler/models"
)

// maxRenderedErrors bounds the error table; the full list stays in summary.json.
const maxRenderedErrors = 20

const maxTitleWidth = 60

var bandOrder = []models.QualityBand{
	models.BandExcellent,
	models.BandGood,
	models.BandAverage,
	models.BandPoor,
}

// Render writes the report as a set of tables.
func Render(w io.Writer, r *models.SummaryReport) {
	renderOverview(w, r)
	renderCounts(w, "Data Type", dataTypeRows(r.ByDataType))
	renderCounts(w, "Category", categoryRows(r.ByCategory))
	renderBands(w, r.ByQualityBand)
	renderTop(w, r.TopResults)
	renderErrors(w, r.Errors)
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

func renderOverview(w io.Writer, r *models.SummaryReport) {
	t := newTable(w, "Crawl Summary")
	t.AppendRows([]table.Row{
		{"Session", r.SessionID},
		{"Status", r.Status},
		{"Duration", duration(r).Round(time.Second)},
		{"Total URLs", r.TotalURLs},
		{"Processed", r.ProcessedURLs},
		{"Failed", r.FailedURLs},
		{"Skipped", r.SkippedURLs},
		{"Success Rate", fmt.Sprintf("%.1f%%", r.SuccessRate*100)},
		{"Content", FormatBytes(r.TotalContentSize)},
		{"Average Quality", fmt.Sprintf("%.2f", r.AverageQuality)},
	})
	t.Render()
}

type countRow struct {
	label string
	count int
}

func dataTypeRows(m map[models.DataType]int) []countRow {
	rows := make([]countRow, 0, len(m))
	for _, dt := range models.DataTypes {
		if n := m[dt]; n > 0 {
			rows = append(rows, countRow{string(dt), n})
		}
	}
	return rows
}

func categoryRows(m map[string]int) []countRow {
	rows := make([]countRow, 0, len(m))
	for label, n := range m {
		rows = append(rows, countRow{label, n})
	}
	slices.SortFunc(rows, func(a, b countRow) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.label, b.label)
	})
	return rows
}

func renderCounts(w io.Writer, label string, rows []countRow) {
	if len(rows) == 0 {
		return
	}
	t := newTable(w, "By "+label)
	t.AppendHeader(table.Row{label, "Results"})
	for _, row := range rows {
		t.AppendRow(table.Row{row.label, row.count})
	}
	t.Render()
}

func renderBands(w io.Writer, bands map[models.QualityBand]int) {
	t := newTable(w, "Quality Bands")
	t.AppendHeader(table.Row{"Band", "Results"})
	for _, b := range bandOrder {
		t.AppendRow(table.Row{b, bands[b]})
	}
	t.Render()
}

func renderTop(w io.Writer, top []models.CrawlResult) {
	if len(top) == 0 {
		return
	}
	t := newTable(w, "Top Results")
	t.AppendHeader(table.Row{"#", "Quality", "Data Type", "Title", "URL"})
	for i, r := range top {
		t.AppendRow(table.Row{i + 1, fmt.Sprintf("%.2f", r.Quality), r.DataType, text.Trim(r.Title, maxTitleWidth), r.URL})
	}
	t.Render()
}

func renderErrors(w io.Writer, errs []models.FailureEntry) {
	if len(errs) == 0 {
		return
	}
	t := newTable(w, fmt.Sprintf("Errors (%d)", len(errs)))
	t.AppendHeader(table.Row{"URL", "Reason", "Status", "Attempts"})
	for _, e := range errs[:min(len(errs), maxRenderedErrors)] {
		status := "-"
		if e.StatusCode > 0 {
			status = fmt.Sprint(e.StatusCode)
		}
		t.AppendRow(table.Row{e.URL, e.Reason, status, e.Attempts})
	}
	t.Render()
}

func duration(r *models.SummaryReport) time.Duration {
	if r.EndedAt.IsZero() || r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// FormatBytes renders a byte count with a binary unit, e.g. "1.5 KB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
